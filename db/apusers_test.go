package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

func remoteUserFixture(apId string) *domain.CreateApUser {
	return &domain.CreateApUser{
		Id:              uuid.New(),
		ApId:            apId,
		Username:        "bob",
		InboxURL:        apId + "/inbox",
		SharedInboxURL:  "https://b.example/ap/inbox",
		PublicKey:       "-----BEGIN PUBLIC KEY-----\nfixture\n-----END PUBLIC KEY-----",
		LastRefreshedAt: time.Now().UTC(),
		DisplayName:     "Bob",
		Bio:             "remote user",
	}
}

func TestCreateAndReadLocalUser(t *testing.T) {
	database := setupTestDB(t)
	user := createLocalUser(t, database, "alice")

	if user.PrivateKey == nil {
		t.Fatal("Local user should have a private key")
	}
	if !user.IsLocal("local.test") {
		t.Error("User minted on local.test should be local")
	}
	if user.IsLocal("other.test") {
		t.Error("User should not be local to another domain")
	}

	err, read := database.ReadApUserById(user.Id)
	if err != nil {
		t.Fatalf("Failed to read user by id: %v", err)
	}
	if read.ApId != user.ApId {
		t.Errorf("Expected ap_id %s, got %s", user.ApId, read.ApId)
	}
	if read.PrivateKey == nil || read.PrivateKey.Reveal() == "" {
		t.Error("Private key should survive the round trip")
	}
}

func TestReadApUserNotFound(t *testing.T) {
	database := setupTestDB(t)

	err, _ := database.ReadApUserByApId("https://b.example/ap/user/missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpsertApUserKeepsRowId(t *testing.T) {
	database := setupTestDB(t)
	apId := "https://b.example/ap/user/bob"

	first := remoteUserFixture(apId)
	err, original := database.UpsertApUser(first)
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	second := remoteUserFixture(apId)
	second.DisplayName = "Bob Updated"
	second.Bio = "new bio"
	err, updated := database.UpsertApUser(second)
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	if updated.Id != original.Id {
		t.Errorf("Upsert should keep the row id: %s != %s", updated.Id, original.Id)
	}
	if updated.DisplayName != "Bob Updated" {
		t.Errorf("Expected last write to win, got display name %q", updated.DisplayName)
	}
	if updated.Bio != "new bio" {
		t.Errorf("Expected last write to win, got bio %q", updated.Bio)
	}
}

func TestUpsertRemoteUserHasNoPrivateKey(t *testing.T) {
	database := setupTestDB(t)

	err, user := database.UpsertApUser(remoteUserFixture("https://b.example/ap/user/bob"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if user.PrivateKey != nil {
		t.Error("Remote users must not carry a private key")
	}
	if user.IsLocal("local.test") {
		t.Error("Remote user should never be local")
	}
}

func TestReadApUserByUsernameScopedToDomain(t *testing.T) {
	database := setupTestDB(t)
	createLocalUser(t, database, "alice")

	remote := remoteUserFixture("https://b.example/ap/user/alice2")
	remote.Username = "alice"
	if err, _ := database.UpsertApUser(remote); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	err, local := database.ReadApUserByUsername("alice", "local.test")
	if err != nil {
		t.Fatalf("Failed to read local alice: %v", err)
	}
	if !local.IsLocal("local.test") {
		t.Error("Lookup on the local domain should return the local user")
	}

	err, other := database.ReadApUserByUsername("alice", "b.example")
	if err != nil {
		t.Fatalf("Failed to read remote alice: %v", err)
	}
	if other.ApId != remote.ApId {
		t.Errorf("Expected remote alice %s, got %s", remote.ApId, other.ApId)
	}
}

func TestDeliveryInboxPrefersShared(t *testing.T) {
	withShared := domain.ApUser{InboxURL: "https://b.example/ap/inbox/1", SharedInboxURL: "https://b.example/ap/inbox"}
	if withShared.DeliveryInbox() != "https://b.example/ap/inbox" {
		t.Error("Shared inbox should be preferred when present")
	}

	withoutShared := domain.ApUser{InboxURL: "https://b.example/ap/inbox/1"}
	if withoutShared.DeliveryInbox() != "https://b.example/ap/inbox/1" {
		t.Error("Personal inbox should be used when no shared inbox exists")
	}
}

func TestListFollowers(t *testing.T) {
	database := setupTestDB(t)
	alice := createLocalUser(t, database, "alice")

	err, followers := database.ListFollowers(alice.Id)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(*followers) != 0 {
		t.Fatalf("Expected no followers, got %d", len(*followers))
	}

	err, bob := database.UpsertApUser(remoteUserFixture("https://b.example/ap/user/bob"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := database.UpsertFollow(bob.Id, alice.Id); err != nil {
		t.Fatalf("UpsertFollow failed: %v", err)
	}

	err, followers = database.ListFollowers(alice.Id)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(*followers) != 1 {
		t.Fatalf("Expected 1 follower, got %d", len(*followers))
	}
	if (*followers)[0].ApId != bob.ApId {
		t.Errorf("Expected follower %s, got %s", bob.ApId, (*followers)[0].ApId)
	}

	// The in-transaction variant sees the same set
	err = database.WithTx(func(tx *sql.Tx) error {
		err, inTx := database.ListFollowersTx(tx, alice.Id)
		if err != nil {
			return err
		}
		if len(*inTx) != 1 || (*inTx)[0].ApId != bob.ApId {
			t.Errorf("Expected the same follower in a transaction, got %v", *inTx)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ListFollowersTx failed: %v", err)
	}
}
