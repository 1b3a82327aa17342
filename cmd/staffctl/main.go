package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/minibank/internal/db"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository/postgres"
	"github.com/nkiryanov/minibank/internal/service/user"
)

// Create staff or admin user: staffctl --username alice --password secret [--role admin]
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Getwd, os.Stdout); err != nil {
		slog.Error("staffctl failed", "error", err.Error())
		os.Exit(1)
	}
}

type options struct {
	DatabaseDSN string
	Username    string
	Password    string
	FullName    string
	Role        string
}

func parseOptions(args []string, getenv func(string) string, getwd func() (string, error)) (options, error) {
	o := options{
		DatabaseDSN: getenv("DATABASE_URI"),
		Role:        models.RoleStaff,
	}

	if o.DatabaseDSN == "" {
		wd, err := getwd()
		if err != nil {
			return o, err
		}
		envMap, err := godotenv.Read(filepath.Join(wd, ".env"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return o, fmt.Errorf("can't load .env. Err: %w", err)
		}
		o.DatabaseDSN = envMap["DATABASE_URI"]
	}

	fs := pflag.NewFlagSet("staffctl", pflag.ContinueOnError)
	fs.StringVarP(&o.DatabaseDSN, "database", "d", o.DatabaseDSN, "Database connection string")
	fs.StringVarP(&o.Username, "username", "u", "", "Username")
	fs.StringVarP(&o.Password, "password", "p", "", "Password")
	fs.StringVar(&o.FullName, "full-name", "", "Full name, username if empty")
	fs.StringVarP(&o.Role, "role", "r", o.Role, "Role (staff, admin)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case o.DatabaseDSN == "":
		return o, errors.New("database is required")
	case o.Username == "":
		return o, errors.New("username is required")
	case o.Password == "":
		return o, errors.New("password is required")
	case !slices.Contains([]string{models.RoleStaff, models.RoleAdmin}, o.Role):
		return o, fmt.Errorf("role must be staff or admin, got %q", o.Role)
	}

	return o, nil
}

func run(ctx context.Context, args []string, getenv func(string) string, getwd func() (string, error), stdout io.Writer) error {
	o, err := parseOptions(args, getenv, getwd)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, o.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	users := user.NewService(user.DefaultHasher, postgres.NewStorage(pool))
	u, err := users.CreateUser(ctx, user.CreateUserParams{
		Username: o.Username,
		Password: o.Password,
		FullName: o.FullName,
		Role:     o.Role,
	})
	if err != nil {
		return fmt.Errorf("can't create user. Err: %w", err)
	}

	_, err = fmt.Fprintf(stdout, "created %s %q id=%s\n", u.Role, u.Username, u.ID)
	return err
}
