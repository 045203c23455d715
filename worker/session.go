// Package worker runs games. A Session owns one game and drives it from a
// single goroutine: the tick timer, key presses, restarts and bonus expiry
// all take turns on that goroutine, so the game itself needs no locking.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/battlesnakeio/arcade/config"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// Session is one player's game and the timers that drive it.
type Session struct {
	ID           string
	TickInterval time.Duration
	// Board receives scores submitted after game over. It may be nil.
	Board *leaderboard.Board
	// AutoSubmitName, when set, submits the score under this name as soon
	// as the game ends.
	AutoSubmitName string
	// OnFrame is called on the session goroutine after every change.
	OnFrame func(rules.Frame)

	game      *rules.Game
	ticker    *time.Ticker
	submitted bool

	events    chan func()
	done      chan struct{}
	closeOnce sync.Once

	lock sync.Mutex
	last rules.Frame
}

// NewSession creates a session whose game expires bonus food on the session
// goroutine. Options are applied after the defaults.
func NewSession(board *leaderboard.Board, onFrame func(rules.Frame), opts ...rules.Option) *Session {
	s := &Session{
		ID:           uuid.NewV4().String(),
		TickInterval: config.TickInterval,
		Board:        board,
		OnFrame:      onFrame,
		events:       make(chan func(), 16),
		done:         make(chan struct{}),
	}
	opts = append([]rules.Option{
		rules.WithScheduler(s),
		rules.WithBonusLifetime(config.BonusLifetime),
	}, opts...)
	s.game = rules.NewGame(opts...)
	s.last = s.game.Frame()
	return s
}

// sessionTimer stops the wall clock timer behind a scheduled callback.
type sessionTimer struct{ t *time.Timer }

func (st sessionTimer) Stop() bool { return st.t.Stop() }

// AfterFunc implements rules.Scheduler. The callback is handed to the
// session goroutine rather than run on the timer's goroutine, and the frame
// is published after it ran.
func (s *Session) AfterFunc(d time.Duration, f func()) rules.Timer {
	return sessionTimer{t: time.AfterFunc(d, func() {
		s.post(func() {
			f()
			s.publish()
		})
	})}
}

// post queues f to run on the session goroutine. It reports false if the
// session is closed.
func (s *Session) post(f func()) bool {
	select {
	case s.events <- f:
		return true
	case <-s.done:
		return false
	}
}

// Run drives the game until ctx is done or Close is called. It releases the
// tick timer and any pending bonus timer before returning, and the session is
// closed afterwards either way.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	activeSessions.Inc()
	defer activeSessions.Dec()

	s.ticker = time.NewTicker(s.TickInterval)
	defer func() {
		s.ticker.Stop()
		s.game.Stop()
	}()

	logger := log.WithField("session", s.ID)
	logger.Info("session started")
	defer logger.Info("session stopped")

	s.publish()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-s.ticker.C:
			s.tick()
		case f := <-s.events:
			f()
		}
	}
}

func (s *Session) tick() {
	if !s.game.Tick() {
		return
	}
	sessionTicks.Inc()

	f := s.game.Frame()
	if f.GameOver {
		gamesOver.WithLabelValues(f.DeathCause).Inc()
		log.WithFields(log.Fields{
			"session": s.ID,
			"turn":    f.Turn,
			"score":   f.Score,
			"cause":   f.DeathCause,
		}).Info("game over")
		if s.AutoSubmitName != "" {
			s.submit(s.AutoSubmitName)
		}
	}
	s.publish()
}

// publish hands the current frame to the listener.
func (s *Session) publish() {
	f := s.game.Frame()
	s.lock.Lock()
	s.last = f
	s.lock.Unlock()
	if s.OnFrame != nil {
		s.OnFrame(f)
	}
}

func (s *Session) submit(name string) bool {
	if !s.game.GameOver() || s.submitted || s.Board == nil {
		return false
	}
	s.submitted = true
	s.Board.SubmitScore(name, s.game.Score())
	return true
}

// Key applies a key press before the next tick.
func (s *Session) Key(key string) {
	s.post(func() {
		if s.game.HandleKey(key) {
			s.publish()
		}
	})
}

// Restart starts a new game. The tick timer starts over so the first move of
// the new game gets a full interval.
func (s *Session) Restart() {
	s.post(func() {
		s.game.Restart()
		s.submitted = false
		if s.ticker != nil {
			s.ticker.Stop()
			s.ticker = time.NewTicker(s.TickInterval)
		}
		log.WithField("session", s.ID).Info("game restarted")
		s.publish()
	})
}

// Submit sends the final score to the board. It only succeeds once per game,
// after the game is over, and waits for the session goroutine to handle it.
func (s *Session) Submit(name string) bool {
	reply := make(chan bool, 1)
	if !s.post(func() { reply <- s.submit(name) }) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-s.done:
		return false
	}
}

// Frame returns the most recently published frame.
func (s *Session) Frame() rules.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.last
}

// Close stops the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
