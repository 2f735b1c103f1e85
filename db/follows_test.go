package db

import (
	"errors"
	"testing"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

func TestUpsertFollowIdempotent(t *testing.T) {
	database := setupTestDB(t)
	alice := createLocalUser(t, database, "alice")
	err, bob := database.UpsertApUser(remoteUserFixture("https://b.example/ap/user/bob"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := database.UpsertFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("First follow failed: %v", err)
	}
	if err := database.UpsertFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("Repeated follow should succeed: %v", err)
	}

	err, count := database.CountFollows()
	if err != nil {
		t.Fatalf("CountFollows failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one edge after repeated follow, got %d", count)
	}
}

func TestDeleteFollowIdempotent(t *testing.T) {
	database := setupTestDB(t)
	alice := createLocalUser(t, database, "alice")
	err, bob := database.UpsertApUser(remoteUserFixture("https://b.example/ap/user/bob"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := database.UpsertFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if err := database.DeleteFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// Deleting an edge that is already gone still succeeds
	if err := database.DeleteFollow(bob.Id, alice.Id); err != nil {
		t.Errorf("Deleting an absent edge should succeed: %v", err)
	}

	err, count := database.CountFollows()
	if err != nil {
		t.Fatalf("CountFollows failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no edges, got %d", count)
	}
}

func TestDeleteFollowMissingUsersSucceeds(t *testing.T) {
	database := setupTestDB(t)
	if err := database.DeleteFollow(uuid.New(), uuid.New()); err != nil {
		t.Errorf("Deleting between unknown users should succeed: %v", err)
	}
}

func TestReadFollowByPair(t *testing.T) {
	database := setupTestDB(t)
	alice := createLocalUser(t, database, "alice")
	err, bob := database.UpsertApUser(remoteUserFixture("https://b.example/ap/user/bob"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	err, _ = database.ReadFollowByPair(bob.Id, alice.Id)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound before follow, got %v", err)
	}

	if err := database.UpsertFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	err, follow := database.ReadFollowByPair(bob.Id, alice.Id)
	if err != nil {
		t.Fatalf("ReadFollowByPair failed: %v", err)
	}
	if follow.FollowerId != bob.Id || follow.FollowingId != alice.Id {
		t.Error("Follow edge has the wrong direction")
	}
}
