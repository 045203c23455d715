package leaderboard

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// TopFunc fetches the current top records.
type TopFunc func(ctx context.Context, limit int) ([]Record, error)

// Feed fans change notifications out to subscribers. Every subscriber runs
// its own goroutine which re-reads the top list when notified. Notifications
// that arrive while a read is in flight collapse into one.
type Feed struct {
	lock   sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: map[*subscriber]struct{}{}}
}

type subscriber struct {
	limit    int
	top      TopFunc
	onUpdate func([]Record)
	notify   chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (s *subscriber) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *subscriber) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.notify:
		}

		records, err := s.top(ctx, s.limit)
		if err != nil {
			if ctx.Err() == nil && !s.stopped() {
				log.WithError(err).Warn("unable to read top scores for subscriber")
			}
			continue
		}
		if s.stopped() {
			return
		}
		s.onUpdate(records)
	}
}

// Subscribe registers onUpdate and pushes the current top list to it. The
// subscription ends when the returned function is called, when ctx is done
// or when the feed is closed.
func (f *Feed) Subscribe(ctx context.Context, limit int, top TopFunc, onUpdate func([]Record)) (func(), error) {
	s := &subscriber{
		limit:    limit,
		top:      top,
		onUpdate: onUpdate,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	f.lock.Lock()
	if f.closed {
		f.lock.Unlock()
		return nil, ErrClosed
	}
	f.subs[s] = struct{}{}
	f.lock.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := func() {
		s.stop()
		cancel()
		f.lock.Lock()
		delete(f.subs, s)
		f.lock.Unlock()
	}

	s.signal()
	go func() {
		s.run(ctx)
		unsubscribe()
	}()
	return unsubscribe, nil
}

// Notify tells every subscriber that the top list may have changed.
func (f *Feed) Notify() {
	f.lock.Lock()
	defer f.lock.Unlock()

	for s := range f.subs {
		s.signal()
	}
}

// Len returns the number of live subscriptions.
func (f *Feed) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.subs)
}

// Close ends every subscription. Subscribing to a closed feed fails with
// ErrClosed.
func (f *Feed) Close() {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.closed = true
	for s := range f.subs {
		s.stop()
		delete(f.subs, s)
	}
}
