package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/decisiveml/ruinlab/pkg/config"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ruinlab"),
		postgres.WithUsername("ruinlab"),
		postgres.WithPassword("ruinlab"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestOpen_Integration(t *testing.T) {
	url := startPostgres(t)

	db, err := Open(context.Background(), config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, db.Ping(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.Stats.MaxConns)
	assert.Empty(t, status.Error)

	// Close should not panic twice
	db.Close()
	db.Close()
}

func TestNew_MissingURL(t *testing.T) {
	_, err := New(&config.Config{})
	assert.ErrorIs(t, err, ErrNoDatabaseURL)
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{
		URL:             "invalid://url",
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	})
	assert.Error(t, err)
}
