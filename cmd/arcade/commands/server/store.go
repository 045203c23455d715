package server

import (
	"io"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/leaderboard/filestore"
	"github.com/battlesnakeio/arcade/leaderboard/redisstore"
	"github.com/battlesnakeio/arcade/leaderboard/sqlitestore"
	"github.com/battlesnakeio/arcade/leaderboard/sqlstore"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	backend     = "inmem"
	backendArgs = ""
)

// BackendFlags adds the leaderboard backend flags to c.
func BackendFlags(c *cobra.Command) {
	c.Flags().StringVarP(&backend, "backend", "b", backend, "leaderboard backend, as one of: [inmem, file, redis, sql, sqlite]")
	c.Flags().StringVarP(&backendArgs, "backend-args", "a", backendArgs, "options to pass to the backend being used")
}

// OpenStore creates the store selected by the backend flags. The returned
// close function is never nil.
func OpenStore() (leaderboard.Store, func(), error) {
	var store leaderboard.Store
	var err error
	switch backend {
	case "inmem":
		store = leaderboard.InMemStore()
	case "file":
		store, err = filestore.NewFileStore(backendArgs)
	case "redis":
		store, err = redisstore.NewStore(backendArgs)
	case "sql":
		store, err = sqlstore.NewSQLStore(backendArgs)
	case "sqlite":
		store, err = sqlitestore.NewStore(backendArgs)
	default:
		return nil, func() {}, errors.Errorf("invalid backend %q", backend)
	}
	if err != nil {
		return nil, func() {}, errors.Wrapf(err, "unable to start %s backend", backend)
	}

	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Error("unable to close store")
			}
		}
	}
	return leaderboard.InstrumentStore(store), closeStore, nil
}
