package testutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/nkiryanov/minibank/internal/db"
)

func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

type PostgresContainer struct {
	Pool      *pgxpool.Pool
	DSN       string
	Terminate func()
}

// Env variable with DSN of an already running database to use instead of a container
const DatabaseEnv = "MINIBANK_TEST_DATABASE_URI"

// Start postgres for the test and migrate it
// If DatabaseEnv is set that database is used as is, otherwise a container is started
// Terminate has to be called when tests finish
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	if dsn := os.Getenv(DatabaseEnv); dsn != "" {
		dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
		require.NoErrorf(t, err, "can't use database from %s", DatabaseEnv)

		return PostgresContainer{Pool: dbpool, DSN: dsn, Terminate: dbpool.Close}
	}

	cmd := exec.Command("docker", "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker is not available, start it or set %s. Err: %s", DatabaseEnv, out)
	}

	port, err := RandomPort()
	require.NoError(t, err, "can't acquire port for postgres")

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("minibank-test"),
		postgres.WithUsername("minibank"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ExposedPorts = []string{fmt.Sprintf("%d:5432", port)}
			return nil
		}),
	)
	require.NoError(t, err, "can't start postgres container")

	dsn, err := container.ConnectionString(t.Context(), "sslmode=disable")
	require.NoError(t, err, "can't get postgres container DSN")
	t.Logf("postgres container started, DSN=%v", dsn)

	dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "can't migrate postgres container")

	return PostgresContainer{
		Pool: dbpool,
		DSN:  dsn,
		Terminate: func() {
			dbpool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type dbtx interface {
	Begin(context.Context) (pgx.Tx, error)
}

// Run testFunc in transaction rolled back at the end, db stays unchanged
func WithTx(dbtx dbtx, t *testing.T, testFunc func(tx pgx.Tx)) {
	tx, err := dbtx.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		err := tx.Rollback(t.Context())
		require.NoError(t, err)
	}()

	testFunc(tx)
}

// Truncate all tables but keep schema. Use it in tests that can't run in single transaction
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	// Row level triggers are not fired on truncate, so ledger may be cleaned too
	// Background context: it's usually called from t.Cleanup when t.Context is already cancelled
	_, err := pool.Exec(context.Background(), `TRUNCATE deposit_requests, ledger_entries, accounts, refresh_tokens, users, bank_reserve`)
	require.NoError(t, err, "Error happened when truncating tables")
}

func MustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}
