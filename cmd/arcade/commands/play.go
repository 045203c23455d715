package commands

import (
	"context"
	"io"

	"github.com/battlesnakeio/arcade/cmd/arcade/commands/server"
	"github.com/battlesnakeio/arcade/config"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/render"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/battlesnakeio/arcade/worker"
	termbox "github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var playerName = ""

func init() {
	playCmd.Flags().StringVarP(&playerName, "name", "n", playerName, "name to put on the leaderboard")
	server.BackendFlags(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "plays snake in the terminal",
	Run: func(*cobra.Command, []string) {
		if err := playGame(); err != nil {
			log.WithError(err).Fatal("unable to play")
		}
	},
}

func playGame() error {
	store, closeStore, err := server.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	board := leaderboard.NewBoard(store)
	board.SubmitTimeout = config.SubmitTimeout
	defer board.Wait()

	if err = termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	// The screen belongs to termbox until it is closed.
	log.SetOutput(io.Discard)

	term := &render.Terminal{
		Title: "Snake!",
		Help:  "arrows/wasd: move  r: restart  q: quit",
	}
	session := worker.NewSession(board, func(f rules.Frame) {
		if err := term.DrawFrame(f); err != nil {
			log.WithError(err).Warn("unable to draw frame")
		}
	})
	session.AutoSubmitName = leaderboard.NormalizeName(playerName)

	unsubscribe, err := board.SubscribeTopScores(func(records []leaderboard.Record) {
		if err := term.DrawScores(records); err != nil {
			log.WithError(err).Warn("unable to draw scores")
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)
	defer session.Close()

	for ev := range setupEventQueue() {
		if ev.Type != termbox.EventKey {
			continue
		}
		switch {
		case isQuit(ev):
			return nil
		case ev.Ch == 'r' || ev.Ch == 'R':
			session.Restart()
		default:
			session.Key(keyName(ev))
		}
	}
	return nil
}
