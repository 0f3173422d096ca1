package database_test

import (
	"context"
	"testing"

	"github.com/deppfellow/student-records/internal/config"
	"github.com/deppfellow/student-records/internal/database"
	"github.com/deppfellow/student-records/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSQLite_Idempotent(t *testing.T) {
	s := testutil.NewServer(t, nil)
	ctx := context.Background()
	log := zerolog.Nop()

	// testutil.NewServer already migrated once.
	require.NoError(t, database.Migrate(ctx, &log, s.Config, s.DB))

	var version int
	require.NoError(t, s.DB.DB.Raw("PRAGMA user_version").Scan(&version).Error)
	assert.Equal(t, 1, version)

	var tables []string
	require.NoError(t, s.DB.DB.Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'students'").Scan(&tables).Error)
	assert.Equal(t, []string{"students"}, tables)
}

func TestSQLitePragmas(t *testing.T) {
	s := testutil.NewServer(t, nil)

	var foreignKeys int
	require.NoError(t, s.DB.DB.Raw("PRAGMA foreign_keys").Scan(&foreignKeys).Error)
	assert.Equal(t, 1, foreignKeys)

	var journalMode string
	require.NoError(t, s.DB.DB.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	assert.Equal(t, "wal", journalMode)
}

func TestPing(t *testing.T) {
	s := testutil.NewServer(t, nil)
	assert.NoError(t, s.DB.Ping(context.Background()))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"file:/tmp/students.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		database.SQLiteDSN("/tmp/students.db"),
	)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:   "postgres",
			Host:     "db.internal",
			Port:     5432,
			User:     "app",
			Password: "p@ss word",
			Name:     "students",
			SSLMode:  "disable",
		},
	}

	dsn := database.PostgresDSN(cfg)
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "/students?")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "p@ss word")
}
