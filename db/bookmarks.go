package db

import (
	"database/sql"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

const (
	sqlInsertBookmark = `INSERT INTO bookmarks(id, ap_user_id, ap_id, url, title, created_at)
                        VALUES (?, ?, ?, ?, ?, ?)`

	sqlUpsertBookmark = `INSERT INTO bookmarks(id, ap_user_id, ap_id, url, title, created_at)
                        VALUES (?, ?, ?, ?, ?, ?)
                        ON CONFLICT(ap_id) DO UPDATE SET
                            url = excluded.url,
                            title = excluded.title`

	sqlSelectBookmarkById    = `SELECT id, ap_user_id, ap_id, url, title, created_at FROM bookmarks WHERE id = ?`
	sqlSelectBookmarkByApId  = `SELECT id, ap_user_id, ap_id, url, title, created_at FROM bookmarks WHERE ap_id = ?`
	sqlSelectBookmarksByUser = `SELECT id, ap_user_id, ap_id, url, title, created_at FROM bookmarks
                        WHERE ap_user_id = ? ORDER BY created_at DESC`
)

func scanBookmark(row *sql.Row) (error, *domain.Bookmark) {
	var bookmark domain.Bookmark
	var idStr, userIdStr string
	err := row.Scan(&idStr, &userIdStr, &bookmark.ApId, &bookmark.URL, &bookmark.Title, &bookmark.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	bookmark.Id, _ = uuid.Parse(idStr)
	bookmark.ApUserId, _ = uuid.Parse(userIdStr)
	return nil, &bookmark
}

// CreateBookmark inserts a locally-created bookmark.
func (db *DB) CreateBookmark(create *domain.CreateBookmark) (error, *domain.Bookmark) {
	if err := create.Validate(); err != nil {
		return err, nil
	}
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertBookmark,
			create.Id.String(), create.ApUserId.String(), create.ApId, create.URL, create.Title, create.CreatedAt)
		return err
	})
	if err != nil {
		return err, nil
	}
	return db.ReadBookmarkByApId(create.ApId)
}

// UpsertRemoteBookmark caches a bookmark received from another instance,
// overwriting url and title on repeat delivery.
func (db *DB) UpsertRemoteBookmark(create *domain.CreateBookmark) (error, *domain.Bookmark) {
	if err := create.Validate(); err != nil {
		return err, nil
	}
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertBookmark,
			create.Id.String(), create.ApUserId.String(), create.ApId, create.URL, create.Title, create.CreatedAt)
		return err
	})
	if err != nil {
		return err, nil
	}
	return db.ReadBookmarkByApId(create.ApId)
}

func (db *DB) ReadBookmarkById(id uuid.UUID) (error, *domain.Bookmark) {
	return scanBookmark(db.db.QueryRow(sqlSelectBookmarkById, id.String()))
}

func (db *DB) ReadBookmarkByApId(apId string) (error, *domain.Bookmark) {
	return scanBookmark(db.db.QueryRow(sqlSelectBookmarkByApId, apId))
}

func (db *DB) ReadBookmarksByUserId(userId uuid.UUID) (error, *[]domain.Bookmark) {
	rows, err := db.db.Query(sqlSelectBookmarksByUser, userId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var bookmark domain.Bookmark
		var idStr, userIdStr string
		if err := rows.Scan(&idStr, &userIdStr, &bookmark.ApId, &bookmark.URL, &bookmark.Title, &bookmark.CreatedAt); err != nil {
			return err, &bookmarks
		}
		bookmark.Id, _ = uuid.Parse(idStr)
		bookmark.ApUserId, _ = uuid.Parse(userIdStr)
		bookmarks = append(bookmarks, bookmark)
	}
	if err = rows.Err(); err != nil {
		return err, &bookmarks
	}
	return nil, &bookmarks
}
