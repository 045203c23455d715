package sqlitestore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/leaderboard/testsuite"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	n := 0
	var stores []*Store
	defer func() {
		for _, s := range stores {
			s.Close()
		}
	}()

	testsuite.Suite(t, func() leaderboard.Store {
		n++
		s, err := NewStore(filepath.Join(dir, fmt.Sprintf("scores-%d.db", n)))
		require.NoError(t, err)
		stores = append(stores, s)
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	written, err := s.Write(context.Background(), leaderboard.Record{Name: "ada", Score: 4})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	top, err := s.Top(context.Background(), leaderboard.TopLimit)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, written.ID, top[0].ID)
	require.True(t, written.CreatedAt.Equal(top[0].CreatedAt))
}

func TestSQLiteStoreTiesKeepArrivalOrder(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	const n = 20
	for i := 0; i < n; i++ {
		_, err := s.Write(ctx, leaderboard.Record{Name: fmt.Sprintf("p%02d", i), Score: 7})
		require.NoError(t, err)
	}

	top, err := s.Top(ctx, n)
	require.NoError(t, err)
	require.Len(t, top, n)
	for i, r := range top {
		require.Equal(t, fmt.Sprintf("p%02d", i), r.Name)
	}
}
