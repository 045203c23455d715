package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/leaderboard/testsuite"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	text   string
	err    error
	closed bool
}

func (w *mockWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	w.text += s
	return len(s), nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

// testFileStore returns a store writing to a mock, restoring the real file
// functions when the test ends.
func testFileStore(t *testing.T, contents string) (*Store, *mockWriter) {
	w := &mockWriter{}
	openFileWriter = func(string) (writer, error) { return w, nil }
	openFileReader = func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(contents)), nil
	}
	t.Cleanup(func() {
		openFileWriter = appendOnlyFileWriter
		openFileReader = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	})

	s, err := NewFileStore("scores.jsonl")
	require.NoError(t, err)
	return s, w
}

func TestFileStore(t *testing.T) {
	testsuite.Suite(t, func() leaderboard.Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "scores.jsonl"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestWriteAppendsLine(t *testing.T) {
	s, w := testFileStore(t, "")

	r, err := s.Write(context.Background(), leaderboard.Record{Name: "ada", Score: 4})
	require.NoError(t, err)
	require.Contains(t, w.text, `"id":"`+r.ID+`"`)
	require.True(t, strings.HasSuffix(w.text, "\n"))
	require.Equal(t, 1, strings.Count(w.text, "\n"))

	require.NoError(t, s.Close())
	require.True(t, w.closed)
	require.NoError(t, s.Close())
}

func TestWriteHandlesWriteError(t *testing.T) {
	s, w := testFileStore(t, "")
	w.err = errors.New("fail")

	_, err := s.Write(context.Background(), leaderboard.Record{Name: "ada", Score: 4})
	require.Error(t, err)

	top, err := s.Top(context.Background(), leaderboard.TopLimit)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestOpenSkipsUnreadableLines(t *testing.T) {
	contents := `{"id":"a","name":"ada","score":3,"createdAt":"2020-01-01T00:00:00Z"}

not json
{"id":"b","name":"bob","score":9,"createdAt":"2020-01-02T00:00:00Z"}
{"id":"c","name":"cut`
	s, _ := testFileStore(t, contents)

	top, err := s.Top(context.Background(), leaderboard.TopLimit)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "b", top[0].ID)
	require.Equal(t, "a", top[1].ID)
}

func TestOpenHandlesOpenFileError(t *testing.T) {
	openFileWriter = func(string) (writer, error) { return nil, errors.New("fail") }
	defer func() { openFileWriter = appendOnlyFileWriter }()

	_, err := NewFileStore(filepath.Join(t.TempDir(), "scores.jsonl"))
	require.Error(t, err)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.jsonl")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	written, err := s.Write(ctx, leaderboard.Record{Name: "ada", Score: 7})
	require.NoError(t, err)
	_, err = s.Write(ctx, leaderboard.Record{Name: "bob", Score: 2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Write(ctx, leaderboard.Record{Name: "late", Score: 1})
	require.Equal(t, leaderboard.ErrClosed, err)

	s, err = NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	top, err := s.Top(ctx, leaderboard.TopLimit)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, written.ID, top[0].ID)
	require.Equal(t, "ada", top[0].Name)
	require.True(t, written.CreatedAt.Equal(top[0].CreatedAt))
}
