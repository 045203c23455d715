package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/battlesnakeio/arcade/api"
	"github.com/battlesnakeio/arcade/config"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	apiListen  = ":3005"
	promEnable = true
	promListen = ":9000"
)

// RootCmd serves the game and the leaderboard.
var RootCmd = &cobra.Command{
	Use:    "server",
	Short:  "serve the arcade api and live leaderboard",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		store, closeStore, err := OpenStore()
		if err != nil {
			log.WithError(err).Fatal("unable to start up backend store")
		}
		defer closeStore()

		board := leaderboard.NewBoard(store)
		board.SubmitTimeout = config.SubmitTimeout

		srv := api.New(apiListen, board)
		go shutdownOnSignal(srv)

		log.WithField("listen", apiListen).Info("arcade api serving")
		if err := srv.WaitForExit(); err != nil {
			log.WithError(err).
				WithField("listen", apiListen).
				Error("api server failed")
		}
		board.Wait()
	},
}

func init() {
	RootCmd.Flags().StringVarP(&apiListen, "listen", "l", apiListen, "api address to listen on")
	RootCmd.Flags().BoolVar(&promEnable, "prometheus", promEnable, "enable prometheus metrics")
	RootCmd.Flags().StringVar(&promListen, "prometheus-listen", promListen, "prometheus http endpoint")
	BackendFlags(RootCmd)
}

func shutdownOnSignal(srv *api.Server) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("api did not shut down cleanly")
	}
}

func prometheus() {
	if !promEnable {
		log.Info("prometheus exporter not enabled")
		return
	}

	log.WithField("addr", promListen).Info("starting prometheus exporter")
	go func() {
		r := http.NewServeMux()
		r.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(promListen, r); err != nil {
			log.WithError(err).Warn("prometheus failed to listen")
		}
	}()
}
