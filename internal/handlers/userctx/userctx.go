// Package userctx carries the authenticated user (customer or staff) through request context
package userctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/models"
)

type userKey struct{}

func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// Only set behind middleware.AuthMiddleware
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok && u.ID != uuid.Nil
}
