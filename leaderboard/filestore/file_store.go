// Package filestore keeps the leaderboard in an append-only file with one
// JSON record per line. The whole file is read on open and served from
// memory afterwards.
package filestore

import (
	"context"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is used when no path is given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".arcade", "scores.jsonl")
}

func homeDir() string {
	usr, err := user.Current()
	if err != nil {
		return "."
	}
	return usr.HomeDir
}

// NewFileStore opens the leaderboard file at path, creating it if needed.
func NewFileStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}

	records, err := readRecords(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	leaderboard.Rank(records)

	w, err := openFileWriter(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}

	log.WithFields(log.Fields{
		"path":    path,
		"records": len(records),
	}).Debug("leaderboard file loaded")

	return &Store{
		path:    path,
		records: records,
		w:       w,
		feed:    leaderboard.NewFeed(),
	}, nil
}

// Store is a file backed leaderboard.
type Store struct {
	path    string
	records []leaderboard.Record
	w       writer
	lock    sync.Mutex
	feed    *leaderboard.Feed
	closed  bool
}

// Write appends the record to the file. The record is only ranked once the
// line was written.
func (s *Store) Write(ctx context.Context, r leaderboard.Record) (leaderboard.Record, error) {
	if err := leaderboard.Validate(r); err != nil {
		return leaderboard.Record{}, err
	}

	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return leaderboard.Record{}, leaderboard.ErrClosed
	}
	r.ID = leaderboard.NewID()
	r.CreatedAt = time.Now().UTC()
	if err := writeLine(s.w, &r); err != nil {
		s.lock.Unlock()
		return leaderboard.Record{}, errors.Wrapf(err, "unable to append to %s", s.path)
	}
	s.records = append(s.records, r)
	leaderboard.Rank(s.records)
	s.lock.Unlock()

	s.feed.Notify()
	return r, nil
}

// Top returns the highest scores.
func (s *Store) Top(ctx context.Context, limit int) ([]leaderboard.Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil, leaderboard.ErrClosed
	}
	if limit < 0 {
		limit = 0
	}
	if limit > len(s.records) {
		limit = len(s.records)
	}
	top := make([]leaderboard.Record, limit)
	copy(top, s.records[:limit])
	return top, nil
}

// Subscribe streams the top records after every write.
func (s *Store) Subscribe(ctx context.Context, limit int, onUpdate func([]leaderboard.Record)) (func(), error) {
	return s.feed.Subscribe(ctx, limit, s.Top, onUpdate)
}

// Close ends all subscriptions and closes the file.
func (s *Store) Close() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.lock.Unlock()

	s.feed.Close()
	return s.w.Close()
}
