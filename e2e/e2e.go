// Package e2e drives a running arcade server over HTTP and websockets.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/gorilla/websocket"
)

type client struct {
	apiURL string
	client *http.Client
}

func (c *client) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(c.apiURL, "http") + path
}

func (c *client) submitScore(name string, score int) error {
	data, err := json.Marshal(map[string]interface{}{"name": name, "score": score})
	if err != nil {
		return err
	}
	resp, err := c.client.Post(fmt.Sprintf("%s/scores", c.apiURL), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	if err = resp.Body.Close(); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) topScores() ([]leaderboard.Record, error) {
	resp, err := c.client.Get(fmt.Sprintf("%s/scores", c.apiURL))
	if err != nil {
		return nil, err
	}
	records := []leaderboard.Record{}
	err = json.NewDecoder(resp.Body).Decode(&records)
	if cErr := resp.Body.Close(); err == nil {
		err = cErr
	}
	return records, err
}

// playUntilOver starts a game, steers it with keys and reads frames until
// the snake dies. It submits the score under name and returns every frame
// seen.
func (c *client) playUntilOver(name string, keys []string, timeout time.Duration) ([]rules.Frame, error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL("/play"), nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	for _, k := range keys {
		msg := map[string]string{"type": "key", "key": k}
		if err := conn.WriteJSON(msg); err != nil {
			return nil, err
		}
	}

	frames := []rules.Frame{}
	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		f := rules.Frame{}
		if err := conn.ReadJSON(&f); err != nil {
			return frames, err
		}
		frames = append(frames, f)
		if f.GameOver {
			break
		}
	}

	return frames, conn.WriteJSON(map[string]string{"type": "submit", "name": name})
}

// watchScores returns a channel of top lists pushed by the server. The
// channel closes when the connection ends.
func (c *client) watchScores() (<-chan []leaderboard.Record, func(), error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL("/scores/live"), nil)
	if err != nil {
		return nil, nil, err
	}

	updates := make(chan []leaderboard.Record, 16)
	go func() {
		defer close(updates)
		for {
			records := []leaderboard.Record{}
			if err := conn.ReadJSON(&records); err != nil {
				return
			}
			updates <- records
		}
	}()
	return updates, func() { conn.Close() }, nil
}
