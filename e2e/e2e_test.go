package e2e

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/davecgh/go-spew/spew"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiURL = "http://127.0.0.1:3005"

func newClient(url string) *client {
	return &client{
		apiURL: url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestMain(m *testing.M) {
	enableE2e := flag.Bool("enable-e2e", false, "enable e2e tests")
	flag.Parse()

	if !*enableE2e {
		os.Exit(0)
		return
	}

	proc := exec.Command("arcade", "server", "--prometheus=false")
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	proc.Env = append(os.Environ(), "TICK_INTERVAL_MS=20")

	if err := proc.Start(); err != nil {
		panic(err)
	}

	code := m.Run()

	err := proc.Process.Kill()
	if err != nil {
		fmt.Printf("error while killing process: %v\n", err)
	}
	os.Exit(code)
}

func waitForServer(t *testing.T, c *client) {
	for i := 0; i < 10; i++ {
		if _, err := c.topScores(); err == nil {
			return
		}
		time.Sleep(1 * time.Second)
	}
	t.Fatal("server never came up")
}

func TestPlay(t *testing.T) {
	const games = 5

	c := newClient(apiURL)
	waitForServer(t, c)

	keys := [][]string{
		nil,
		{"ArrowRight"},
		{"ArrowLeft"},
		{"ArrowRight", "ArrowUp"},
		{"d", "s"},
	}
	for i := 0; i < games; i++ {
		keys := keys[i%len(keys)]
		t.Run(fmt.Sprintf("Game#%d", i), func(t *testing.T) {
			t.Parallel()

			frames, err := c.playUntilOver(uuid.NewV4().String(), keys, 30*time.Second)
			if !assert.NoError(t, err) {
				spew.Dump(frames)
				return
			}

			last := frames[len(frames)-1]
			assert.True(t, last.GameOver)
			assert.NotEmpty(t, last.DeathCause)
			for i := 1; i < len(frames); i++ {
				if !assert.True(t, frames[i].Turn >= frames[i-1].Turn) {
					spew.Dump(frames[i-1], frames[i])
					return
				}
			}
			for _, f := range frames {
				for _, p := range f.Snake {
					if !assert.True(t, p.InBounds(), "turn %d", f.Turn) {
						spew.Dump(f)
						return
					}
				}
			}
		})
	}
}

func TestLiveScores(t *testing.T) {
	c := newClient(apiURL)
	waitForServer(t, c)

	updates, stop, err := c.watchScores()
	require.NoError(t, err)
	defer stop()

	name := uuid.NewV4().String()[:8]
	// Far above anything a real game reaches, so it always makes the top.
	score := rules.GridSize * rules.GridSize * 1000
	require.NoError(t, c.submitScore(name, score))

	timeout := time.After(10 * time.Second)
	for {
		select {
		case records, ok := <-updates:
			require.True(t, ok, "live scores closed")
			require.LessOrEqual(t, len(records), leaderboard.TopLimit)
			for _, r := range records {
				if r.Name == name {
					require.Equal(t, score, r.Score)
					return
				}
			}
		case <-timeout:
			top, _ := c.topScores()
			spew.Dump(top)
			t.Fatal("submitted score never streamed")
		}
	}
}
