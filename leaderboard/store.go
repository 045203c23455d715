// Package leaderboard records finished games and keeps subscribers up to
// date with the highest scores. Storage is pluggable through the Store
// interface.
package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

var (
	// ErrClosed is returned when a store has been closed.
	ErrClosed = errors.New("leaderboard: store is closed")
	// ErrInvalidRecord is returned for records that can not be written.
	ErrInvalidRecord = errors.New("leaderboard: invalid record")
)

// Store is the interface to the backend store.
type Store interface {
	// Write appends a record, assigning its ID and CreatedAt, and returns
	// the stored record.
	Write(ctx context.Context, r Record) (Record, error)
	// Top returns up to limit records, highest score first.
	Top(ctx context.Context, limit int) ([]Record, error)
	// Subscribe calls onUpdate with the current top records and again every
	// time they may have changed. Calls happen on a goroutine owned by the
	// subscription. The returned function releases the subscription and is
	// safe to call more than once.
	Subscribe(ctx context.Context, limit int, onUpdate func([]Record)) (func(), error)
}

// Validate checks a record before it is written.
func Validate(r Record) error {
	if r.Score < 0 {
		return ErrInvalidRecord
	}
	return nil
}

// NewID returns a new record id.
func NewID() string {
	return uuid.NewV4().String()
}

// InMemStore returns an in memory implementation of the Store interface.
func InMemStore() Store {
	return &inmem{
		feed: NewFeed(),
	}
}

type inmem struct {
	records []Record
	lock    sync.Mutex
	feed    *Feed
	closed  bool
}

func (in *inmem) Write(ctx context.Context, r Record) (Record, error) {
	if err := Validate(r); err != nil {
		return Record{}, err
	}

	in.lock.Lock()
	if in.closed {
		in.lock.Unlock()
		return Record{}, ErrClosed
	}
	r.ID = NewID()
	r.CreatedAt = time.Now().UTC()
	in.records = append(in.records, r)
	Rank(in.records)
	in.lock.Unlock()

	in.feed.Notify()
	return r, nil
}

func (in *inmem) Top(ctx context.Context, limit int) ([]Record, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if in.closed {
		return nil, ErrClosed
	}
	if limit < 0 {
		limit = 0
	}
	if limit > len(in.records) {
		limit = len(in.records)
	}
	top := make([]Record, limit)
	copy(top, in.records[:limit])
	return top, nil
}

func (in *inmem) Subscribe(ctx context.Context, limit int, onUpdate func([]Record)) (func(), error) {
	return in.feed.Subscribe(ctx, limit, in.Top, onUpdate)
}

func (in *inmem) Close() error {
	in.lock.Lock()
	in.closed = true
	in.lock.Unlock()
	in.feed.Close()
	return nil
}
