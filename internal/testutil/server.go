// Package testutil builds fully wired dependencies for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/deppfellow/student-records/internal/config"
	"github.com/deppfellow/student-records/internal/database"
	"github.com/deppfellow/student-records/internal/logger"
	"github.com/deppfellow/student-records/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// NewConfig returns a config backed by a fresh SQLite file in t.TempDir().
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	observability := config.DefaultObservabilityConfig()
	observability.Environment = "test"
	observability.HealthChecks.Checks = []string{"database"}

	return &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        5,
			WriteTimeout:       5,
			IdleTimeout:        5,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			Path:         filepath.Join(t.TempDir(), "students.db"),
			MaxOpenConns: 1,
		},
		Observability: observability,
	}
}

// NewServer opens and migrates the database described by cfg.
// A nil cfg uses NewConfig. The database is closed when the test ends.
func NewServer(t *testing.T, cfg *config.Config) *server.Server {
	t.Helper()

	if cfg == nil {
		cfg = NewConfig(t)
	}

	log := zerolog.Nop()
	s, err := server.New(cfg, &log, &logger.LoggerService{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.DB.Close()
	})

	require.NoError(t, database.Migrate(context.Background(), &log, cfg, s.DB))

	return s
}
