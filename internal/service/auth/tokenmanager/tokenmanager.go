package tokenmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
)

const (
	defaultIssuer          = "minibank"
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour

	refreshTokenBytes = 32
)

// Subject holds the user id
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Config struct {
	// Key to sign access tokens with. Required
	SecretKey string

	// Defaults are used for zero values
	Issuer     string
	Alg        string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	key        []byte
	issuer     string
	alg        jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration

	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing method %q is not supported, use one of HS256, HS384, HS512", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         []byte(cfg.SecretKey),
		issuer:      cfg.Issuer,
		alg:         alg,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// Issue signed access token and persist a new refresh token for the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)

	access, accessExpiresAt, err := m.signAccess(user, now)
	if err != nil {
		return pair, err
	}

	b := make([]byte, refreshTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := base64.RawURLEncoding.EncodeToString(b)
	refreshExpiresAt := now.Add(m.refreshTTL)

	_, err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashRefresh(refresh),
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

func (m *TokenManager) signAccess(user models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(m.alg, AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: user.Role,
	})

	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", expiresAt, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return signed, expiresAt, nil
}

// Rotate refresh token: it is valid only once and only till it expires
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.refreshRepo.GetAndMarkUsed(ctx, hashRefresh(refresh))
	if err != nil {
		return token, fmt.Errorf("refresh token rejected. Err: %w", err)
	}

	if token.ExpiresAt.Before(time.Now()) {
		return token, fmt.Errorf("refresh token rejected. Err: %w", apperrors.ErrRefreshTokenExpired)
	}

	return token, nil
}

// Verify access token signature, issuer and expiration
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (models.AccessClaims, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.AccessClaims{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.AccessClaims{}, fmt.Errorf("token subject is not a user id. Err: %w", err)
	}

	return models.AccessClaims{UserID: userID, Role: claims.Role}, nil
}

// Refresh tokens are stored hashed, so a leaked table can't be replayed
func hashRefresh(refresh string) string {
	sum := sha256.Sum256([]byte(refresh))
	return hex.EncodeToString(sum[:])
}
