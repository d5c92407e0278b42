package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"
)

// Migration is one numbered schema change read from <version>_<name>.up.sql
// and its optional .down.sql counterpart.
type Migration struct {
	Version  string
	Title    string
	UpSQL    string
	DownSQL  string
	Checksum string // SHA256 of UpSQL
}

// ErrChecksumMismatch is returned when an applied migration file was edited
var ErrChecksumMismatch = errors.New("applied migrations have been modified")

// MigrationExecutor applies migrations and records them in schema_migrations
type MigrationExecutor struct {
	db *sql.DB
}

// NewMigrationExecutor creates a new migration executor
func NewMigrationExecutor(db *sql.DB) *MigrationExecutor {
	return &MigrationExecutor{db: db}
}

// RunMigrations executes all pending migrations from a directory
func (m *MigrationExecutor) RunMigrations(ctx context.Context, migrationsPath string) error {
	return m.Run(ctx, os.DirFS(migrationsPath))
}

// Run executes all pending migrations found in fsys, oldest first
func (m *MigrationExecutor) Run(ctx context.Context, fsys fs.FS) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := ReadMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if err := validateChecksums(migrations, applied); err != nil {
		return err
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := m.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		slog.Info("Applied migration", "version", migration.Version, "title", migration.Title)
	}

	return nil
}

// Rollback reverts the newest applied migrations, at most steps of them
func (m *MigrationExecutor) Rollback(ctx context.Context, fsys fs.FS, steps int) error {
	migrations, err := ReadMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for i := len(migrations) - 1; i >= 0 && steps > 0; i-- {
		migration := migrations[i]
		if _, ok := applied[migration.Version]; !ok {
			continue
		}
		if migration.DownSQL == "" {
			return fmt.Errorf("migration %s has no down script", migration.Version)
		}
		if err := m.revert(ctx, migration); err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", migration.Version, err)
		}
		slog.Info("Reverted migration", "version", migration.Version, "title", migration.Title)
		steps--
	}
	return nil
}

func (m *MigrationExecutor) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			title VARCHAR(500),
			checksum VARCHAR(64),
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// ReadMigrations parses the migration files in fsys, sorted by version.
// Files without an up script are ignored.
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filename := entry.Name()

		var base string
		var up bool
		switch {
		case strings.HasSuffix(filename, ".up.sql"):
			base, up = strings.TrimSuffix(filename, ".up.sql"), true
		case strings.HasSuffix(filename, ".down.sql"):
			base = strings.TrimSuffix(filename, ".down.sql")
		default:
			continue
		}

		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" {
			continue
		}

		content, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return nil, err
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Title: strings.ReplaceAll(name, "_", " ")}
			byVersion[version] = mig
		}
		if up {
			mig.UpSQL = string(content)
			mig.Checksum = calculateChecksum(mig.UpSQL)
		} else {
			mig.DownSQL = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpSQL != "" {
			migrations = append(migrations, *mig)
		}
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// appliedChecksums maps applied versions to their recorded checksum
func (m *MigrationExecutor) appliedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, COALESCE(checksum, '') FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	applied := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		applied[version] = checksum
	}
	return applied, rows.Err()
}

func (m *MigrationExecutor) apply(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("migration SQL failed: %w", err)
		}
		query := `INSERT INTO schema_migrations (version, title, checksum) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Title, migration.Checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

func (m *MigrationExecutor) revert(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("down migration SQL failed: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}

func (m *MigrationExecutor) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// validateChecksums fails when a migration that was already applied no
// longer matches its file.
func validateChecksums(migrations []Migration, applied map[string]string) error {
	var mismatches []string
	for _, migration := range migrations {
		recorded, ok := applied[migration.Version]
		if !ok || recorded == "" || recorded == migration.Checksum {
			continue
		}
		mismatches = append(mismatches, fmt.Sprintf(
			"migration %s (%s): recorded %s, file %s",
			migration.Version, migration.Title, recorded, migration.Checksum,
		))
	}
	if len(mismatches) == 0 {
		return nil
	}
	slices.Sort(mismatches)
	return fmt.Errorf("%w; restore the original files or add a new migration:\n  %s",
		ErrChecksumMismatch, strings.Join(mismatches, "\n  "))
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
