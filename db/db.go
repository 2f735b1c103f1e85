package db

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/deemkeen/linkodon/util"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

var (
	dbInstance *DB
	dbOnce     sync.Once
)

const (
	sqlCreateApUsersTable = `CREATE TABLE IF NOT EXISTS ap_users(
                        id TEXT NOT NULL PRIMARY KEY,
                        ap_id TEXT UNIQUE NOT NULL,
                        username TEXT NOT NULL,
                        inbox_url TEXT NOT NULL,
                        shared_inbox_url TEXT DEFAULT '',
                        public_key TEXT NOT NULL,
                        private_key TEXT,
                        last_refreshed_at TIMESTAMP NOT NULL,
                        display_name TEXT DEFAULT '',
                        bio TEXT DEFAULT ''
                        )`

	sqlCreateFollowsTable = `CREATE TABLE IF NOT EXISTS follows(
                        id TEXT NOT NULL PRIMARY KEY,
                        follower_id TEXT NOT NULL,
                        following_id TEXT NOT NULL,
                        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
                        UNIQUE(follower_id, following_id)
                        )`

	sqlCreateBookmarksTable = `CREATE TABLE IF NOT EXISTS bookmarks(
                        id TEXT NOT NULL PRIMARY KEY,
                        ap_user_id TEXT NOT NULL,
                        ap_id TEXT UNIQUE NOT NULL,
                        url TEXT NOT NULL,
                        title TEXT NOT NULL,
                        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
                        )`

	sqlCreateActivitiesTable = `CREATE TABLE IF NOT EXISTS activities(
                        id TEXT NOT NULL PRIMARY KEY,
                        activity_uri TEXT UNIQUE NOT NULL,
                        activity_type TEXT NOT NULL,
                        actor_uri TEXT NOT NULL,
                        raw_json TEXT NOT NULL,
                        local INTEGER DEFAULT 0,
                        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
                        )`

	sqlCreateDeliveryQueueTable = `CREATE TABLE IF NOT EXISTS delivery_queue(
                        id TEXT NOT NULL PRIMARY KEY,
                        inbox_uri TEXT NOT NULL,
                        sender_ap_id TEXT NOT NULL,
                        activity_json TEXT NOT NULL,
                        attempts INTEGER DEFAULT 0,
                        next_retry_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
                        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
                        )`

	sqlCreateIndices = `
		CREATE INDEX IF NOT EXISTS idx_ap_users_ap_id ON ap_users(ap_id);
		CREATE INDEX IF NOT EXISTS idx_ap_users_username ON ap_users(username);
		CREATE INDEX IF NOT EXISTS idx_follows_follower_id ON follows(follower_id);
		CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_ap_user_id ON bookmarks(ap_user_id);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_ap_id ON bookmarks(ap_id);
		CREATE INDEX IF NOT EXISTS idx_activities_uri ON activities(activity_uri);
		CREATE INDEX IF NOT EXISTS idx_delivery_queue_next_retry ON delivery_queue(next_retry_at);
	`
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so that every query can run
// standalone or inside an enclosing handler transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens (or creates) the database at the given path and sets up the
// schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Configure connection pool for concurrent access. An in-memory database
	// exists per connection, so it must stay on a single one.
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	var journalMode string
	err = sqlDB.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode)
	if err != nil {
		log.Printf("Warning: Failed to enable WAL mode: %v", err)
	} else {
		log.Printf("Database journal mode: %s", journalMode)
	}

	// Optimize PRAGMAs for the concurrent federation workload
	sqlDB.Exec("PRAGMA synchronous = NORMAL")
	sqlDB.Exec("PRAGMA cache_size = -64000")
	sqlDB.Exec("PRAGMA temp_store = MEMORY")
	sqlDB.Exec("PRAGMA busy_timeout = 5000")
	sqlDB.Exec("PRAGMA foreign_keys = ON")

	db := &DB{db: sqlDB}
	if err := db.createSchema(); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenMemory opens a throwaway in-memory database. Used by tests.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}

// GetDB returns the process-wide database, opening it on first use.
func GetDB() *DB {
	dbOnce.Do(func() {
		path := util.ResolveFilePath("database.db")
		db, err := Open(path)
		if err != nil {
			panic(err)
		}
		log.Printf("Database initialized with connection pooling (max 25 connections)")
		dbInstance = db
	})

	return dbInstance
}

func (db *DB) createSchema() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreateApUsersTable,
			sqlCreateFollowsTable,
			sqlCreateBookmarksTable,
			sqlCreateActivitiesTable,
			sqlCreateDeliveryQueueTable,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(sqlCreateIndices); err != nil {
			log.Printf("Warning: Failed to create indices: %v", err)
		}
		return nil
	})
}

// WithTx runs f inside one transaction, committing only when f succeeds.
// Activity receives use this so a failed receive never leaves a partial
// edge or actor update behind.
func (db *DB) WithTx(f func(tx *sql.Tx) error) error {
	return db.wrapTransaction(f)
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}
