package rules

import (
	"sort"
	"time"
)

// Timer is a pending one-shot callback armed by a Scheduler.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks. Game never runs its own goroutines, so a
// Scheduler must invoke callbacks on the goroutine that drives the game.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ManualScheduler is a Scheduler driven by explicit calls to Advance. Due
// callbacks run on the goroutine calling Advance, in deadline order.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc arms f to run once the clock has advanced by d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.seq++
	t := &manualTimer{at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer that became due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.now += d
	for {
		due := s.due()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			if t.stopped || t.fired {
				continue
			}
			t.fired = true
			t.f()
		}
	}
}

// Pending returns the number of armed timers that have not fired or been
// stopped.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// due removes and returns the live timers whose deadline has passed.
func (s *ManualScheduler) due() []*manualTimer {
	var due, rest []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.stopped || t.fired:
		case t.at <= s.now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.timers = rest
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	return due
}
