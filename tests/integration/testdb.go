// Package integration runs the engine against real PostgreSQL and Redis
// containers started with testcontainers.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/bootstrap"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
)

// skipWithoutDocker skips container tests in short mode or without a
// reachable Docker daemon
func skipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// startPostgres runs a throwaway PostgreSQL and returns settings pointing at it
func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase("reconciliation_it"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		DBName:          "reconciliation_it",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
	}
}

// startRedis runs a throwaway Redis used for return locks and alert throttling
func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: port.Int()}
}

// newApp starts the full engine on PostgreSQL, with Redis when withRedis is set.
// The schema is created by the embedded migrations.
func newApp(t *testing.T, withRedis bool) *bootstrap.App {
	t.Helper()
	skipWithoutDocker(t)

	cfg := &config.Config{
		App:      config.AppConfig{Name: "pharma-engine", Env: "test", Port: "0"},
		Database: startPostgres(t),
		Log:      config.LogConfig{Level: "error", Format: "json", Output: "stdout"},
		Engine: config.EngineConfig{
			MaxRetries:         10,
			RetryBaseDelay:     5 * time.Millisecond,
			RetryMaxDelay:      100 * time.Millisecond,
			ReturnLockTTL:      5 * time.Second,
			NumberWidth:        4,
			AlertThrottle:      time.Hour,
			ExpiryWarningDays:  30,
			EventBusBufferSize: 256,
		},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
	}
	if withRedis {
		cfg.Redis = startRedis(t)
	}

	app, err := bootstrap.New(context.Background(), cfg, zaptest.NewLogger(t), bootstrap.WithSchema())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}
