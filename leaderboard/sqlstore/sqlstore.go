// Package sqlstore keeps the leaderboard in postgres. Writes raise a
// notification which every store listening on the database turns into
// subscriber updates.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/battlesnakeio/arcade/config"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const migrations = `
CREATE TABLE IF NOT EXISTS scores (
	id VARCHAR(255) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	score INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS scores_rank ON scores (score DESC, created_at ASC);
`

const changeChannel = "scores_changed"

// NewSQLStore returns a new store using a postgres database.
func NewSQLStore(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to connect")
	}

	_, err = db.ExecContext(ctx, migrations)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to migrate")
	}

	listener := pq.NewListener(url, 10*time.Millisecond, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.WithError(err).WithField("event", ev).Warn("score listener")
			}
		})
	if err := listener.Listen(changeChannel); err != nil {
		listener.Close()
		db.Close()
		return nil, errors.Wrap(err, "unable to listen for score changes")
	}

	s := &Store{
		db:       db,
		listener: listener,
		feed:     leaderboard.NewFeed(),
	}
	go s.listen()
	return s, nil
}

// Store represents an SQL store.
type Store struct {
	db       *sql.DB
	listener *pq.Listener
	feed     *leaderboard.Feed
}

// listen turns notifications into subscriber updates. A nil notification
// means the connection was re-established and changes may have been missed,
// so it refreshes subscribers too.
func (s *Store) listen() {
	for range s.listener.Notify {
		s.feed.Notify()
	}
}

// transact is a transaction wrapper, helps avoid failed to close connections.
func (s *Store) transact(
	ctx context.Context, txFunc func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			if rErr := tx.Rollback(); rErr != nil {
				log.WithError(rErr).Error("rollback failed")
			}
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			// err is non-nil; don't change it
			if rErr := tx.Rollback(); rErr != nil {
				log.WithError(rErr).Error("rollback failed")
			}
		} else {
			err = tx.Commit() // err is nil; if Commit returns error update err
		}
	}()
	err = txFunc(tx)
	return err
}

// Write inserts the record. The database assigns CreatedAt, and the
// notification is only delivered once the transaction commits.
func (s *Store) Write(ctx context.Context, r leaderboard.Record) (leaderboard.Record, error) {
	if err := leaderboard.Validate(r); err != nil {
		return leaderboard.Record{}, err
	}
	r.ID = leaderboard.NewID()

	err := s.transact(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO scores (id, name, score) VALUES ($1, $2, $3) RETURNING created_at`,
			r.ID, r.Name, r.Score)
		if err := row.Scan(&r.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, changeChannel, r.ID)
		return err
	})
	if err != nil {
		return leaderboard.Record{}, errors.Wrap(err, "unable to write score")
	}
	return r, nil
}

// Top returns the highest scores, oldest first among equal scores.
func (s *Store) Top(ctx context.Context, limit int) ([]leaderboard.Record, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, score, created_at FROM scores
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $1`, limit)
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
		records = append(records, r)
	}
	return records, rows.Err()
}

// Subscribe streams the top records on every committed write.
func (s *Store) Subscribe(ctx context.Context, limit int, onUpdate func([]leaderboard.Record)) (func(), error) {
	return s.feed.Subscribe(ctx, limit, s.Top, onUpdate)
}

// Close ends all subscriptions and closes the database.
func (s *Store) Close() error {
	s.feed.Close()
	if err := s.listener.Close(); err != nil {
		log.WithError(err).Warn("unable to close score listener")
	}
	return s.db.Close()
}
