// Package testsuite holds the behaviour every leaderboard.Store backend must
// show. Backends call Suite from their own tests.
package testsuite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

func testStoreWrite(t *testing.T, s leaderboard.Store) {
	ctx := context.Background()
	before := time.Now().Add(-time.Minute)

	r, err := s.Write(ctx, leaderboard.Record{Name: "ada", Score: 12})
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	require.Equal(t, "ada", r.Name)
	require.Equal(t, 12, r.Score)
	require.True(t, r.CreatedAt.After(before), "created at %v", r.CreatedAt)

	r2, err := s.Write(ctx, leaderboard.Record{Name: "ada", Score: 12})
	require.NoError(t, err)
	require.NotEqual(t, r.ID, r2.ID)

	_, err = s.Write(ctx, leaderboard.Record{Name: "bad", Score: -1})
	require.Error(t, err)
}

func testStoreTopOrderAndLimit(t *testing.T, s leaderboard.Store) {
	ctx := context.Background()

	top, err := s.Top(ctx, leaderboard.TopLimit)
	require.NoError(t, err)
	require.Empty(t, top)

	scores := []int{3, 17, 0, 9, 17, 4, 25, 1}
	for i, score := range scores {
		_, err := s.Write(ctx, leaderboard.Record{Name: fmt.Sprintf("p%d", i), Score: score})
		require.NoError(t, err)
		// Keep created timestamps apart so ties resolve the same way on
		// every backend.
		time.Sleep(10 * time.Millisecond)
	}

	top, err = s.Top(ctx, leaderboard.TopLimit)
	require.NoError(t, err)
	require.Len(t, top, leaderboard.TopLimit)

	var got []int
	for _, r := range top {
		got = append(got, r.Score)
	}
	require.Equal(t, []int{25, 17, 17, 9, 4}, got)
	require.Equal(t, "p1", top[1].Name, "earlier record wins a tie")
	require.Equal(t, "p4", top[2].Name)

	top, err = s.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
}

// collector gathers subscription updates.
type collector struct {
	lock    sync.Mutex
	updates [][]leaderboard.Record
}

func (c *collector) onUpdate(records []leaderboard.Record) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.updates = append(c.updates, records)
}

func (c *collector) count() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.updates)
}

func (c *collector) last() []leaderboard.Record {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.updates) == 0 {
		return nil
	}
	return c.updates[len(c.updates)-1]
}

func testStoreSubscribe(t *testing.T, s leaderboard.Store) {
	ctx := context.Background()

	_, err := s.Write(ctx, leaderboard.Record{Name: "first", Score: 5})
	require.NoError(t, err)

	c := &collector{}
	unsubscribe, err := s.Subscribe(ctx, leaderboard.TopLimit, c.onUpdate)
	require.NoError(t, err)
	defer unsubscribe()

	// Initial push carries the current list.
	require.Eventually(t, func() bool {
		last := c.last()
		return len(last) == 1 && last[0].Name == "first"
	}, waitFor, 10*time.Millisecond)

	_, err = s.Write(ctx, leaderboard.Record{Name: "second", Score: 50})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		last := c.last()
		return len(last) == 2 && last[0].Name == "second"
	}, waitFor, 10*time.Millisecond)
}

func testStoreUnsubscribe(t *testing.T, s leaderboard.Store) {
	ctx := context.Background()

	c := &collector{}
	unsubscribe, err := s.Subscribe(ctx, leaderboard.TopLimit, c.onUpdate)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.count() == 1 }, waitFor, 10*time.Millisecond)

	unsubscribe()
	unsubscribe()

	_, err = s.Write(ctx, leaderboard.Record{Name: "late", Score: 1})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 1, c.count())
}

func testStoreSubscribeContext(t *testing.T, s leaderboard.Store) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &collector{}
	unsubscribe, err := s.Subscribe(ctx, leaderboard.TopLimit, c.onUpdate)
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool { return c.count() == 1 }, waitFor, 10*time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	_, err = s.Write(context.Background(), leaderboard.Record{Name: "late", Score: 1})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 1, c.count())
}

// Suite runs the whole store test suite. newStore is called before each
// test and must return an empty store; backends that connect to a server may
// return the same store after clearing it.
func Suite(t *testing.T, newStore func() leaderboard.Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, leaderboard.Store)
	}{
		{"Write", testStoreWrite},
		{"TopOrderAndLimit", testStoreTopOrderAndLimit},
		{"Subscribe", testStoreSubscribe},
		{"Unsubscribe", testStoreUnsubscribe},
		{"SubscribeContext", testStoreSubscribeContext},
	}
	for _, test := range tests {
		s := newStore()
		t.Run(test.name, func(t *testing.T) {
			test.fn(t, s)
		})
	}
}
