package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository/postgres"
	"github.com/nkiryanov/minibank/internal/testutil"
)

func noEnv(string) string { return "" }

func Test_parseOptions(t *testing.T) {
	emptyWd := func() (string, error) { return t.TempDir(), nil }

	t.Run("defaults", func(t *testing.T) {
		o, err := parseOptions([]string{"-d", "postgres://db", "-u", "alice", "-p", "secret"}, noEnv, emptyWd)

		require.NoError(t, err)
		require.Equal(t, "postgres://db", o.DatabaseDSN)
		require.Equal(t, "alice", o.Username)
		require.Equal(t, "secret", o.Password)
		require.Equal(t, models.RoleStaff, o.Role)
	})

	t.Run("database from env", func(t *testing.T) {
		getenv := func(key string) string {
			if key == "DATABASE_URI" {
				return "postgres://env"
			}
			return ""
		}

		o, err := parseOptions([]string{"-u", "alice", "-p", "secret", "--role", "admin"}, getenv, emptyWd)

		require.NoError(t, err)
		require.Equal(t, "postgres://env", o.DatabaseDSN)
		require.Equal(t, models.RoleAdmin, o.Role)
	})

	t.Run("database from dot env", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_URI=postgres://file\n"), 0o600)
		require.NoError(t, err)

		o, err := parseOptions([]string{"-u", "alice", "-p", "secret"}, noEnv, func() (string, error) { return dir, nil })

		require.NoError(t, err)
		require.Equal(t, "postgres://file", o.DatabaseDSN)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"no database", []string{"-u", "alice", "-p", "secret"}},
			{"no username", []string{"-d", "postgres://db", "-p", "secret"}},
			{"no password", []string{"-d", "postgres://db", "-u", "alice"}},
			{"user role", []string{"-d", "postgres://db", "-u", "alice", "-p", "secret", "--role", "user"}},
			{"unknown flag", []string{"-d", "postgres://db", "-u", "alice", "-p", "secret", "--force"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := parseOptions(tt.args, noEnv, emptyWd)

				require.Error(t, err)
			})
		}
	})
}

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)
	t.Cleanup(func() { testutil.Truncate(t, pg.Pool) })

	var out bytes.Buffer

	err := run(t.Context(), []string{"-d", pg.DSN, "-u", "alice", "-p", "secret", "--full-name", "Alice Staff"}, noEnv, os.Getwd, &out)

	require.NoError(t, err)
	require.Contains(t, out.String(), `created staff "alice"`)

	u, err := postgres.NewStorage(pg.Pool).User().GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, models.RoleStaff, u.Role)
	require.Equal(t, "Alice Staff", u.FullName)
	require.True(t, u.IsStaff())

	t.Run("same username fails", func(t *testing.T) {
		err := run(t.Context(), []string{"-d", pg.DSN, "-u", "alice", "-p", "secret"}, noEnv, os.Getwd, &out)

		require.Error(t, err)
	})
}
