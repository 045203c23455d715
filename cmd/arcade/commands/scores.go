package commands

import (
	"io"

	"github.com/battlesnakeio/arcade/cmd/arcade/commands/server"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/render"
	termbox "github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	server.BackendFlags(scoresCmd)
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "watches the top scores as they change",
	Run: func(*cobra.Command, []string) {
		if err := watchScores(); err != nil {
			log.WithError(err).Fatal("unable to watch scores")
		}
	},
}

func watchScores() error {
	store, closeStore, err := server.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err = termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	log.SetOutput(io.Discard)

	term := &render.Terminal{}
	unsubscribe, err := leaderboard.NewBoard(store).SubscribeTopScores(func(records []leaderboard.Record) {
		if err := term.DrawScores(records); err != nil {
			log.WithError(err).Warn("unable to draw scores")
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	for ev := range setupEventQueue() {
		if ev.Type == termbox.EventKey && isQuit(ev) {
			return nil
		}
	}
	return nil
}
