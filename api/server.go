// Package api serves the leaderboard and live game sessions over HTTP and
// websockets.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/battlesnakeio/arcade/config"
	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Server is the arcade HTTP server.
type Server struct {
	hs      *http.Server
	board   *leaderboard.Board
	limiter *rate.Limiter

	// TickInterval is used for sessions started over /play.
	TickInterval time.Duration
	// SessionOptions are passed to every game started over /play.
	SessionOptions []rules.Option
}

// New creates a new api server listening on addr.
func New(addr string, board *leaderboard.Board) *Server {
	router := httprouter.New()
	s := &Server{
		board:        board,
		limiter:      config.NewSubmitLimiter(),
		TickInterval: config.TickInterval,
	}

	router.GET("/scores", s.handleTopScores)
	router.POST("/scores", s.handleSubmitScore)
	router.GET("/scores/live", s.handleLiveScores)
	router.GET("/play", s.handlePlay)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)

	s.hs = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// WaitForExit serves until the server is shut down.
func (s *Server) WaitForExit() error {
	err := s.hs.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for open requests.
// Hijacked websocket connections are not tracked and end with their peer.
func (s *Server) Shutdown(ctx context.Context) error {
	log.WithField("listen", s.hs.Addr).Info("api shutting down")
	return s.hs.Shutdown(ctx)
}
