// Package redisstore keeps the leaderboard in redis. Records live in hashes,
// a sorted set ranks them and a pub/sub channel announces writes.
package redisstore

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	rankKey       = "arcade:scores"
	recordPrefix  = "arcade:score:"
	changeChannel = "arcade:scores-changed"
)

// Store is a leaderboard.Store backed by redis.
type Store struct {
	client *redis.Client
	pubsub *redis.PubSub
	feed   *leaderboard.Feed
	done   chan struct{}
	once   sync.Once
}

// NewStore will create a new instance of an underlying redis client, so it should not be re-created across "threads"
// - connectURL see: github.com/go-redis/redis/options.go for URL specifics
// The underlying redis client will be immediately tested for connectivity, so don't call this until you know redis can connect.
// Returns a new instance OR an error if unable (meaning an issue connecting to your redis URL)
func NewStore(connectURL string) (*Store, error) {
	o, err := redis.ParseURL(connectURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse redis URL")
	}

	client := redis.NewClient(o)

	// Validate it's connected
	err = client.Ping().Err()
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect")
	}

	pubsub := client.Subscribe(changeChannel)
	if _, err := pubsub.Receive(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "unable to subscribe to score changes")
	}

	s := &Store{
		client: client,
		pubsub: pubsub,
		feed:   leaderboard.NewFeed(),
		done:   make(chan struct{}),
	}
	go s.listen()
	return s, nil
}

// listen forwards change announcements, including those published by other
// processes, to the local subscribers.
func (rs *Store) listen() {
	ch := rs.pubsub.Channel()
	for {
		select {
		case <-rs.done:
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			rs.feed.Notify()
		}
	}
}

// rankMember orders equal scores so that ZREVRANGE returns the oldest
// record first: members compare lexicographically and the inverted
// timestamp sorts older records higher.
func rankMember(r leaderboard.Record) string {
	return fmt.Sprintf("%019d:%s", math.MaxInt64-r.CreatedAt.UnixNano(), r.ID)
}

func memberID(member string) string {
	i := strings.IndexByte(member, ':')
	return member[i+1:]
}

// now asks the server for the time so CreatedAt does not depend on the
// writer's clock.
func (rs *Store) now(c *redis.Client) time.Time {
	t, err := c.Time().Result()
	if err != nil {
		log.WithError(err).Debug("redis TIME failed, using local clock")
		return time.Now().UTC()
	}
	return t.UTC()
}

// Write stores the record and announces the change.
func (rs *Store) Write(ctx context.Context, r leaderboard.Record) (leaderboard.Record, error) {
	if err := leaderboard.Validate(r); err != nil {
		return leaderboard.Record{}, err
	}
	c := rs.client.WithContext(ctx)
	r.ID = leaderboard.NewID()
	r.CreatedAt = rs.now(c)

	_, err := c.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.HMSet(recordPrefix+r.ID, map[string]interface{}{
			"id":         r.ID,
			"name":       r.Name,
			"score":      r.Score,
			"created_at": r.CreatedAt.Format(time.RFC3339Nano),
		})
		pipe.ZAdd(rankKey, redis.Z{
			Score:  float64(r.Score),
			Member: rankMember(r),
		})
		pipe.Publish(changeChannel, r.ID)
		return nil
	})
	if err != nil {
		return leaderboard.Record{}, errors.Wrap(err, "unable to write score")
	}
	return r, nil
}

// Top returns the highest scores.
func (rs *Store) Top(ctx context.Context, limit int) ([]leaderboard.Record, error) {
	if limit <= 0 {
		return []leaderboard.Record{}, nil
	}
	c := rs.client.WithContext(ctx)
	members, err := c.ZRevRange(rankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read ranking")
	}

	pipe := c.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HGetAll(recordPrefix + memberID(m))
	}
	if len(members) > 0 {
		if _, err := pipe.Exec(); err != nil {
			return nil, errors.Wrap(err, "unable to read records")
		}
	}

	records := make([]leaderboard.Record, 0, len(members))
	for i, cmd := range cmds {
		r, err := decodeRecord(cmd.Val())
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt record %s", members[i])
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(fields map[string]string) (leaderboard.Record, error) {
	score, err := strconv.Atoi(fields["score"])
	if err != nil {
		return leaderboard.Record{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return leaderboard.Record{}, err
	}
	return leaderboard.Record{
		ID:        fields["id"],
		Name:      fields["name"],
		Score:     score,
		CreatedAt: createdAt,
	}, nil
}

// Subscribe streams the top records on every announced change.
func (rs *Store) Subscribe(ctx context.Context, limit int, onUpdate func([]leaderboard.Record)) (func(), error) {
	return rs.feed.Subscribe(ctx, limit, rs.Top, onUpdate)
}

// Close ends all subscriptions and closes the redis connections. Calls after
// the first do nothing.
func (rs *Store) Close() error {
	var err error
	rs.once.Do(func() {
		close(rs.done)
		rs.feed.Close()
		if pErr := rs.pubsub.Close(); pErr != nil {
			log.WithError(pErr).Warn("unable to close redis subscription")
		}
		err = rs.client.Close()
	})
	return err
}
