// Package sqlitestore keeps the leaderboard in an embedded sqlite file. It is
// meant for a single process: subscribers only hear about writes made
// through the same Store.
package sqlitestore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/battlesnakeio/arcade/leaderboard"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver.
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const createScoresTableSQL = `
CREATE TABLE IF NOT EXISTS scores (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    score INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
`

const createScoresIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores (score DESC, created_at ASC);
`

// DefaultPath is used when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scores.db"
	}
	return filepath.Join(home, ".arcade", "scores.db")
}

// Store is a leaderboard.Store backed by sqlite.
type Store struct {
	db   *sql.DB
	feed *leaderboard.Feed
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "unable to create database directory")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}
	// Submissions arrive from background goroutines; a single connection
	// serialises them instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{createScoresTableSQL, createScoresIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "unable to migrate")
		}
	}

	return &Store{
		db:   db,
		feed: leaderboard.NewFeed(),
	}, nil
}

// Write inserts the record and notifies subscribers once it is committed.
func (s *Store) Write(ctx context.Context, r leaderboard.Record) (leaderboard.Record, error) {
	if err := leaderboard.Validate(r); err != nil {
		return leaderboard.Record{}, err
	}
	r.ID = leaderboard.NewID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return leaderboard.Record{}, errors.Wrap(err, "unable to begin")
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO scores (id, name, score) VALUES (?, ?, ?)",
		r.ID, r.Name, r.Score); err != nil {
		tx.Rollback()
		return leaderboard.Record{}, errors.Wrap(err, "unable to write score")
	}
	row := tx.QueryRowContext(ctx, "SELECT created_at FROM scores WHERE id = ?", r.ID)
	if err := row.Scan(&r.CreatedAt); err != nil {
		tx.Rollback()
		return leaderboard.Record{}, errors.Wrap(err, "unable to read score")
	}
	if err := tx.Commit(); err != nil {
		return leaderboard.Record{}, errors.Wrap(err, "unable to commit score")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	log.WithField("id", r.ID).Debug("score committed")

	s.feed.Notify()
	return r, nil
}

// Top returns the highest scores, oldest first among equal scores. created_at
// only has millisecond resolution, so rowid, which grows with every insert,
// keeps writes from the same millisecond in arrival order.
func (s *Store) Top(ctx context.Context, limit int) ([]leaderboard.Record, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, score, created_at FROM scores
		ORDER BY score DESC, created_at ASC, rowid ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []leaderboard.Record{}
	for rows.Next() {
		var r leaderboard.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Score, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Subscribe streams the top records after every write made through s.
func (s *Store) Subscribe(ctx context.Context, limit int, onUpdate func([]leaderboard.Record)) (func(), error) {
	return s.feed.Subscribe(ctx, limit, s.Top, onUpdate)
}

// Close ends all subscriptions and closes the database.
func (s *Store) Close() error {
	s.feed.Close()
	return s.db.Close()
}
