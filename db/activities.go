package db

import (
	"database/sql"
	"time"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

// ActivityRecord logs an inbound or outbound activity for deduplication and
// debugging. Duplicate deliveries of the same activity id are skipped by the
// inbox.
type ActivityRecord struct {
	Id           uuid.UUID
	ActivityURI  string
	ActivityType string
	ActorURI     string
	RawJSON      string
	Local        bool
	CreatedAt    time.Time
}

const (
	sqlInsertActivity      = `INSERT INTO activities(id, activity_uri, activity_type, actor_uri, raw_json, local, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectActivityByURI = `SELECT id, activity_uri, activity_type, actor_uri, raw_json, local, created_at FROM activities WHERE activity_uri = ?`
)

func (db *DB) CreateActivityRecord(record *ActivityRecord) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertActivity,
			record.Id.String(),
			record.ActivityURI,
			record.ActivityType,
			record.ActorURI,
			record.RawJSON,
			record.Local,
			record.CreatedAt,
		)
		return err
	})
}

func (db *DB) ReadActivityRecordByURI(uri string) (error, *ActivityRecord) {
	row := db.db.QueryRow(sqlSelectActivityByURI, uri)
	var record ActivityRecord
	var idStr string
	err := row.Scan(&idStr, &record.ActivityURI, &record.ActivityType, &record.ActorURI, &record.RawJSON, &record.Local, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	record.Id, _ = uuid.Parse(idStr)
	return nil, &record
}
