package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/voxlog/audioblog/backend/db"
)

// SetupTestDB creates a catalog test database connection and runs the
// embedded migration. It skips the test if TEST_PG_DSN is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := database.Exec(`DELETE FROM clips`); err != nil {
		database.Close()
		t.Fatalf("failed to reset clips table: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
