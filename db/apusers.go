package db

import (
	"database/sql"
	"fmt"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

const (
	sqlApUserColumns = `id, ap_id, username, inbox_url, shared_inbox_url, public_key, private_key, last_refreshed_at, display_name, bio`

	sqlInsertApUser = `INSERT INTO ap_users(id, ap_id, username, inbox_url, shared_inbox_url, public_key, private_key, last_refreshed_at, display_name, bio)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// On ap_id conflict every mutable field is overwritten but the row id is
	// kept, so repeated upserts of the same remote actor are idempotent and
	// last-write-wins. Concurrent resolvers racing on the same actor land on
	// the same row instead of a constraint violation.
	sqlUpsertApUser = `INSERT INTO ap_users(id, ap_id, username, inbox_url, shared_inbox_url, public_key, private_key, last_refreshed_at, display_name, bio)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                        ON CONFLICT(ap_id) DO UPDATE SET
                            username = excluded.username,
                            inbox_url = excluded.inbox_url,
                            shared_inbox_url = excluded.shared_inbox_url,
                            public_key = excluded.public_key,
                            private_key = excluded.private_key,
                            last_refreshed_at = excluded.last_refreshed_at,
                            display_name = excluded.display_name,
                            bio = excluded.bio`

	sqlSelectApUserById       = `SELECT ` + sqlApUserColumns + ` FROM ap_users WHERE id = ?`
	sqlSelectApUserByApId     = `SELECT ` + sqlApUserColumns + ` FROM ap_users WHERE ap_id = ?`
	sqlSelectApUserByUsername = `SELECT ` + sqlApUserColumns + ` FROM ap_users WHERE username = ? AND ap_id LIKE ?`

	sqlSelectFollowersOf = `SELECT ap_users.id, ap_users.ap_id, ap_users.username, ap_users.inbox_url, ap_users.shared_inbox_url, ap_users.public_key, ap_users.private_key, ap_users.last_refreshed_at, ap_users.display_name, ap_users.bio
                        FROM follows
                        INNER JOIN ap_users ON ap_users.id = follows.follower_id
                        WHERE follows.following_id = ?`
)

func scanApUser(row *sql.Row) (error, *domain.ApUser) {
	var user domain.ApUser
	var idStr string
	var privateKey sql.NullString
	err := row.Scan(
		&idStr,
		&user.ApId,
		&user.Username,
		&user.InboxURL,
		&user.SharedInboxURL,
		&user.PublicKey,
		&privateKey,
		&user.LastRefreshedAt,
		&user.DisplayName,
		&user.Bio,
	)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	user.Id, _ = uuid.Parse(idStr)
	if privateKey.Valid && privateKey.String != "" {
		user.PrivateKey = domain.NewSecretString(privateKey.String)
	}
	return nil, &user
}

func insertApUser(q dbtx, create *domain.CreateApUser, query string) error {
	var privateKey any
	if create.PrivateKey != "" {
		privateKey = create.PrivateKey
	}
	_, err := q.Exec(query,
		create.Id.String(),
		create.ApId,
		create.Username,
		create.InboxURL,
		create.SharedInboxURL,
		create.PublicKey,
		privateKey,
		create.LastRefreshedAt,
		create.DisplayName,
		create.Bio,
	)
	return err
}

// CreateApUser inserts a new user row. Fails on a duplicate ap_id; use
// UpsertApUser for remote actors.
func (db *DB) CreateApUser(create *domain.CreateApUser) (error, *domain.ApUser) {
	if err := create.Validate(); err != nil {
		return err, nil
	}
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		return insertApUser(tx, create, sqlInsertApUser)
	})
	if err != nil {
		return err, nil
	}
	return db.ReadApUserByApId(create.ApId)
}

// UpsertApUser inserts or, on ap_id conflict, overwrites the cached actor.
func (db *DB) UpsertApUser(create *domain.CreateApUser) (error, *domain.ApUser) {
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		return db.UpsertApUserTx(tx, create)
	})
	if err != nil {
		return err, nil
	}
	return db.ReadApUserByApId(create.ApId)
}

// UpsertApUserTx is UpsertApUser inside an already-open transaction.
func (db *DB) UpsertApUserTx(tx *sql.Tx, create *domain.CreateApUser) error {
	if err := create.Validate(); err != nil {
		return err
	}
	return insertApUser(tx, create, sqlUpsertApUser)
}

func (db *DB) ReadApUserById(id uuid.UUID) (error, *domain.ApUser) {
	return scanApUser(db.db.QueryRow(sqlSelectApUserById, id.String()))
}

func (db *DB) ReadApUserByApId(apId string) (error, *domain.ApUser) {
	return scanApUser(db.db.QueryRow(sqlSelectApUserByApId, apId))
}

func (db *DB) ReadApUserByApIdTx(tx *sql.Tx, apId string) (error, *domain.ApUser) {
	return scanApUser(tx.QueryRow(sqlSelectApUserByApId, apId))
}

// ReadApUserByUsername looks up a user by name on a given domain. Usernames
// are only unique per domain, so the domain is always required; for local
// users pass the configured instance domain.
func (db *DB) ReadApUserByUsername(username string, apDomain string) (error, *domain.ApUser) {
	domainPattern := fmt.Sprintf("%%://%s/%%", apDomain)
	return scanApUser(db.db.QueryRow(sqlSelectApUserByUsername, username, domainPattern))
}

// ListFollowers returns all actors following the given user.
func (db *DB) ListFollowers(followedId uuid.UUID) (error, *[]domain.ApUser) {
	return db.listFollowers(db.db, followedId)
}

func (db *DB) ListFollowersTx(tx *sql.Tx, followedId uuid.UUID) (error, *[]domain.ApUser) {
	return db.listFollowers(tx, followedId)
}

func (db *DB) listFollowers(q dbtx, followedId uuid.UUID) (error, *[]domain.ApUser) {
	rows, err := q.Query(sqlSelectFollowersOf, followedId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var users []domain.ApUser
	for rows.Next() {
		var user domain.ApUser
		var idStr string
		var privateKey sql.NullString
		if err := rows.Scan(&idStr, &user.ApId, &user.Username, &user.InboxURL, &user.SharedInboxURL,
			&user.PublicKey, &privateKey, &user.LastRefreshedAt, &user.DisplayName, &user.Bio); err != nil {
			return err, &users
		}
		user.Id, _ = uuid.Parse(idStr)
		if privateKey.Valid && privateKey.String != "" {
			user.PrivateKey = domain.NewSecretString(privateKey.String)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return err, &users
	}
	return nil, &users
}
