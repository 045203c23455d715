package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/stretchr/testify/require"
)

func withBackend(t *testing.T, name, args string) {
	oldBackend, oldArgs := backend, backendArgs
	backend, backendArgs = name, args
	t.Cleanup(func() { backend, backendArgs = oldBackend, oldArgs })
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		args    string
	}{
		{"inmem", ""},
		{"file", filepath.Join(dir, "scores.jsonl")},
		{"sqlite", filepath.Join(dir, "scores.db")},
	}
	for _, test := range tests {
		t.Run(test.backend, func(t *testing.T) {
			withBackend(t, test.backend, test.args)

			store, closeStore, err := OpenStore()
			require.NoError(t, err)
			defer closeStore()

			_, err = store.Write(context.Background(), leaderboard.Record{Name: "ada", Score: 1})
			require.NoError(t, err)
			top, err := store.Top(context.Background(), leaderboard.TopLimit)
			require.NoError(t, err)
			require.Len(t, top, 1)
		})
	}
}

func TestOpenStoreInvalidBackend(t *testing.T) {
	withBackend(t, "carrier-pigeon", "")

	_, closeStore, err := OpenStore()
	require.Error(t, err)
	require.NotNil(t, closeStore)
	closeStore()
}

func TestOpenStoreBackendError(t *testing.T) {
	withBackend(t, "redis", "not a url")

	_, _, err := OpenStore()
	require.Error(t, err)
}
