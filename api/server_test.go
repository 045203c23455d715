package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const waitFor = 2 * time.Second

func createAPIServer() (*Server, leaderboard.Store) {
	store := leaderboard.InMemStore()
	s := New(":1234", leaderboard.NewBoard(store))
	s.TickInterval = time.Hour
	return s, store
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTopScoresEmpty(t *testing.T) {
	s, _ := createAPIServer()

	req, _ := http.NewRequest("GET", "/scores", nil)
	rr := httptest.NewRecorder()

	s.hs.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "[]", rr.Body.String())
}

func TestTopScores(t *testing.T) {
	s, store := createAPIServer()
	ctx := context.Background()
	for i, score := range []int{4, 9, 1, 7, 3, 8} {
		_, err := store.Write(ctx, leaderboard.Record{Name: string(rune('a' + i)), Score: score})
		require.NoError(t, err)
	}

	req, _ := http.NewRequest("GET", "/scores", nil)
	rr := httptest.NewRecorder()
	s.hs.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []leaderboard.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, leaderboard.TopLimit)
	require.Equal(t, 9, records[0].Score)
	require.Equal(t, 3, records[4].Score)
	require.NotEmpty(t, records[0].ID)
}

type brokenStore struct{ leaderboard.Store }

func (brokenStore) Top(context.Context, int) ([]leaderboard.Record, error) {
	return nil, errors.New("down")
}

func TestTopScoresUnavailable(t *testing.T) {
	s := New(":1234", leaderboard.NewBoard(brokenStore{leaderboard.InMemStore()}))

	req, _ := http.NewRequest("GET", "/scores", nil)
	rr := httptest.NewRecorder()
	s.hs.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSubmitScore(t *testing.T) {
	s, store := createAPIServer()

	buf := &bytes.Buffer{}
	buf.WriteString(`{"name":"  ada  ","score":12}`)
	req, _ := http.NewRequest("POST", "/scores", buf)
	rr := httptest.NewRecorder()

	s.hs.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.JSONEq(t, `{"name":"ada","score":12}`, rr.Body.String())

	s.board.Wait()
	top, err := store.Top(context.Background(), leaderboard.TopLimit)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "ada", top[0].Name)
}

func TestSubmitScoreInvalid(t *testing.T) {
	s, _ := createAPIServer()

	for _, body := range []string{`not json`, `{"name":"x","score":-3}`} {
		req, _ := http.NewRequest("POST", "/scores", strings.NewReader(body))
		rr := httptest.NewRecorder()
		s.hs.Handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestSubmitScoreRateLimited(t *testing.T) {
	s, _ := createAPIServer()
	s.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	codes := []int{}
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("POST", "/scores", strings.NewReader(`{"name":"x","score":1}`))
		rr := httptest.NewRecorder()
		s.hs.Handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusAccepted, http.StatusTooManyRequests}, codes)
	s.board.Wait()
}

func TestCORS(t *testing.T) {
	s, _ := createAPIServer()

	req, _ := http.NewRequest("GET", "/scores", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	s.hs.Handler.ServeHTTP(rr, req)
	require.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestLiveScores(t *testing.T) {
	s, store := createAPIServer()
	ts := httptest.NewServer(s.hs.Handler)
	defer ts.Close()

	conn := dial(t, ts, "/scores/live")
	conn.SetReadDeadline(time.Now().Add(waitFor))

	var records []leaderboard.Record
	require.NoError(t, conn.ReadJSON(&records))
	require.Empty(t, records)

	_, err := store.Write(context.Background(), leaderboard.Record{Name: "ada", Score: 3})
	require.NoError(t, err)

	require.NoError(t, conn.ReadJSON(&records))
	require.Len(t, records, 1)
	require.Equal(t, "ada", records[0].Name)
}

// readFrame reads frames until one satisfies ok.
func readFrame(t *testing.T, conn *websocket.Conn, ok func(rules.Frame) bool) rules.Frame {
	conn.SetReadDeadline(time.Now().Add(waitFor))
	for {
		var f rules.Frame
		require.NoError(t, conn.ReadJSON(&f))
		if ok(f) {
			return f
		}
	}
}

func TestPlay(t *testing.T) {
	s, _ := createAPIServer()
	ts := httptest.NewServer(s.hs.Handler)
	defer ts.Close()

	conn := dial(t, ts, "/play")
	f := readFrame(t, conn, func(rules.Frame) bool { return true })
	require.Equal(t, 0, f.Turn)
	require.Equal(t, rules.InitialSnake(), f.Snake)
	require.NotNil(t, f.Food)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: MessageKey, Key: "ArrowRight"}))
	f = readFrame(t, conn, func(f rules.Frame) bool { return f.Direction == rules.Right })
	require.Equal(t, 0, f.Turn)
}

func TestPlayGameOverAndSubmit(t *testing.T) {
	s, store := createAPIServer()
	s.TickInterval = 2 * time.Millisecond
	ts := httptest.NewServer(s.hs.Handler)
	defer ts.Close()

	conn := dial(t, ts, "/play")
	over := readFrame(t, conn, func(f rules.Frame) bool { return f.GameOver })
	require.Equal(t, rules.DeathCauseWallCollision, over.DeathCause)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: MessageSubmit, Name: "ada"}))
	require.Eventually(t, func() bool {
		top, err := store.Top(context.Background(), leaderboard.TopLimit)
		return err == nil && len(top) == 1 && top[0].Name == "ada" && top[0].Score == over.Score
	}, waitFor, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: MessageRestart}))
	readFrame(t, conn, func(f rules.Frame) bool { return !f.GameOver })
}
