package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"hu-tracker/internal/database"
)

// TestContainers holds references to test containers
type TestContainers struct {
	PostgresContainer *postgres.PostgresContainer
	DB                *sql.DB
	DBConnString      string
}

// SetupTestContainers starts PostgreSQL and applies the project migrations.
// The test is skipped in -short mode.
func SetupTestContainers(t *testing.T) *TestContainers {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("hutracker_test"),
		postgres.WithUsername("hutracker_test"),
		postgres.WithPassword("hutracker_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	tc := &TestContainers{PostgresContainer: postgresContainer}
	t.Cleanup(func() { tc.Cleanup(t) })

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	tc.DBConnString = connStr

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	tc.DB = db

	if err := database.NewMigrationExecutor(db).RunMigrations(ctx, migrationsDir(t)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return tc
}

// Cleanup closes the connection and terminates the container. It is
// registered with t.Cleanup and safe to call twice.
func (tc *TestContainers) Cleanup(t *testing.T) {
	t.Helper()

	if tc.DB != nil {
		_ = tc.DB.Close()
		tc.DB = nil
	}
	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
		tc.PostgresContainer = nil
	}
}

// migrationsDir walks up from the test's package directory to the module root
func migrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("migrations directory not found")
		}
		dir = parent
	}
}
