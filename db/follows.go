package db

import (
	"database/sql"
	"time"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

const (
	// Re-asserting an existing edge is a no-op, not an error.
	sqlUpsertFollow = `INSERT INTO follows(id, follower_id, following_id, created_at)
                        VALUES (?, ?, ?, ?)
                        ON CONFLICT(follower_id, following_id) DO NOTHING`

	sqlSelectFollowByPair = `SELECT id, follower_id, following_id, created_at FROM follows
                        WHERE follower_id = ? AND following_id = ?`

	sqlDeleteFollowByPair = `DELETE FROM follows WHERE follower_id = ? AND following_id = ?`

	sqlCountFollows = `SELECT COUNT(*) FROM follows`
)

// UpsertFollow asserts a follow edge. Duplicate pairs leave the table
// unchanged.
func (db *DB) UpsertFollow(followerId, followingId uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return db.UpsertFollowTx(tx, followerId, followingId)
	})
}

func (db *DB) UpsertFollowTx(tx *sql.Tx, followerId, followingId uuid.UUID) error {
	_, err := tx.Exec(sqlUpsertFollow, uuid.New().String(), followerId.String(), followingId.String(), time.Now().UTC())
	return err
}

// DeleteFollow removes a follow edge. Removing a non-existent edge succeeds.
func (db *DB) DeleteFollow(followerId, followingId uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return db.DeleteFollowTx(tx, followerId, followingId)
	})
}

func (db *DB) DeleteFollowTx(tx *sql.Tx, followerId, followingId uuid.UUID) error {
	_, err := tx.Exec(sqlDeleteFollowByPair, followerId.String(), followingId.String())
	return err
}

func (db *DB) ReadFollowByPair(followerId, followingId uuid.UUID) (error, *domain.Follow) {
	row := db.db.QueryRow(sqlSelectFollowByPair, followerId.String(), followingId.String())
	var follow domain.Follow
	var idStr, followerStr, followingStr string
	err := row.Scan(&idStr, &followerStr, &followingStr, &follow.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	follow.Id, _ = uuid.Parse(idStr)
	follow.FollowerId, _ = uuid.Parse(followerStr)
	follow.FollowingId, _ = uuid.Parse(followingStr)
	return nil, &follow
}

func (db *DB) CountFollows() (error, int) {
	var count int
	if err := db.db.QueryRow(sqlCountFollows).Scan(&count); err != nil {
		return err, 0
	}
	return nil, count
}
