package db

import (
	"net/url"
	"testing"

	"github.com/deemkeen/linkodon/domain"
)

// setupTestDB creates an in-memory database with the full schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	return database
}

func testBaseURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://local.test")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// createLocalUser mints and stores a local user with a fresh keypair.
func createLocalUser(t *testing.T, database *DB, username string) *domain.ApUser {
	t.Helper()
	create, err := domain.NewLocalApUser(testBaseURL(t), username)
	if err != nil {
		t.Fatalf("Failed to build local user: %v", err)
	}
	err, user := database.CreateApUser(create)
	if err != nil {
		t.Fatalf("Failed to create local user: %v", err)
	}
	return user
}

func TestOpenMemoryCreatesSchema(t *testing.T) {
	database := setupTestDB(t)

	err, count := database.CountFollows()
	if err != nil {
		t.Fatalf("Schema should exist after open: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty follows table, got %d rows", count)
	}
}
