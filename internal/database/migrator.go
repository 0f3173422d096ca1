package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/student-records/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Embed all SQL files under migrations/ at compile time.
// The binary carries its own schema; one directory per driver.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// downMarker separates the forward migration from its rollback (tern's format).
const downMarker = "---- create above / drop below ----"

// Migrate brings the schema to the latest version.
//
//   - postgres: jackc/tern over a dedicated pgx connection,
//     version kept in the schema_version table
//   - sqlite: the same numbered files applied in order,
//     version kept in PRAGMA user_version
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, db *Database) error {
	if cfg.Database.IsSQLite() {
		return migrateSQLite(ctx, logger, db.DB)
	}
	return migratePostgres(ctx, logger, cfg)
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	// Open a direct connection for migrations.
	// Using a single connection avoids pool complexity for a one-time action.
	conn, err := pgx.Connect(ctx, PostgresDSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	logOutcome(logger, int(from), len(m.Migrations))
	return nil
}

type sqliteMigration struct {
	version int
	name    string
	sql     string
}

func loadSQLiteMigrations() ([]sqliteMigration, error) {
	entries, err := fs.ReadDir(migrations, "migrations/sqlite")
	if err != nil {
		return nil, fmt.Errorf("reading sqlite migrations: %w", err)
	}

	var loaded []sqliteMigration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		prefix, _, _ := strings.Cut(entry.Name(), "_")
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s has no numeric prefix", entry.Name())
		}

		body, err := fs.ReadFile(migrations, path.Join("migrations/sqlite", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		up, _, _ := strings.Cut(string(body), downMarker)
		loaded = append(loaded, sqliteMigration{version: version, name: entry.Name(), sql: up})
	}

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].version < loaded[j].version })

	for i, m := range loaded {
		if m.version != i+1 {
			return nil, fmt.Errorf("migration %s breaks the version sequence (want %d)", m.name, i+1)
		}
	}

	return loaded, nil
}

func migrateSQLite(ctx context.Context, logger *zerolog.Logger, db *gorm.DB) error {
	pending, err := loadSQLiteMigrations()
	if err != nil {
		return err
	}

	var from int
	if err := db.WithContext(ctx).Raw("PRAGMA user_version").Scan(&from).Error; err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	for _, m := range pending {
		if m.version <= from {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.sql).Error; err != nil {
				return err
			}
			return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)).Error
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
	}

	logOutcome(logger, from, len(pending))
	return nil
}

func logOutcome(logger *zerolog.Logger, from, to int) {
	if from == to {
		logger.Info().Msgf("database schema up to date, version %d", to)
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, to)
	}
}
