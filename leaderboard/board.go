package leaderboard

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSubmitTimeout bounds a single score write.
const DefaultSubmitTimeout = 3 * time.Second

// Board is what the game talks to: it submits finished scores and streams
// the top of the leaderboard.
type Board struct {
	Store         Store
	SubmitTimeout time.Duration

	wg sync.WaitGroup
}

// NewBoard returns a board backed by the store.
func NewBoard(s Store) *Board {
	return &Board{
		Store:         s,
		SubmitTimeout: DefaultSubmitTimeout,
	}
}

// SubmitScore writes a score in the background. Failures are logged and
// dropped; a score is written at most once and never retried.
func (b *Board) SubmitScore(name string, score int) {
	r := Record{Name: NormalizeName(name), Score: score}
	if err := Validate(r); err != nil {
		log.WithError(err).
			WithField("score", score).
			Warn("dropping score")
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		timeout := b.SubmitTimeout
		if timeout <= 0 {
			timeout = DefaultSubmitTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		stored, err := b.Store.Write(ctx, r)
		if err != nil {
			log.WithError(err).
				WithFields(log.Fields{
					"name":  r.Name,
					"score": r.Score,
				}).
				Error("error adding score")
			return
		}
		log.WithFields(log.Fields{
			"id":    stored.ID,
			"name":  stored.Name,
			"score": stored.Score,
		}).Info("score added")
	}()
}

// SubscribeTopScores streams the top TopLimit records to onUpdate until the
// returned function is called.
func (b *Board) SubscribeTopScores(onUpdate func([]Record)) (func(), error) {
	return b.Store.Subscribe(context.Background(), TopLimit, onUpdate)
}

// TopScores returns the current top TopLimit records.
func (b *Board) TopScores(ctx context.Context) ([]Record, error) {
	return b.Store.Top(ctx, TopLimit)
}

// Wait blocks until every submission in flight has finished.
func (b *Board) Wait() {
	b.wg.Wait()
}
