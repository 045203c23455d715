package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Configuration variables. These aren't user facing but useful for tuning the
// game loop and the leaderboard backends.
var (
	TickInterval  = getEnvDuration("TICK_INTERVAL_MS", 200)
	BonusLifetime = getEnvDuration("BONUS_LIFETIME_MS", 6000)
	SubmitTimeout = getEnvDuration("SUBMIT_TIMEOUT_MS", 3000)
	SubmitRate    = rate.Limit(getEnvInt("SUBMIT_RPS", 5))
	SubmitBurst   = getEnvInt("SUBMIT_BURST", 10)
	MaxOpenConns  = getEnvInt("MAX_OPEN_CONNS", 20)
	MaxIdleConns  = getEnvInt("MAX_IDLE_CONNS", 20)
)

func getEnvInt(varName string, defaults int) int {
	val := os.Getenv(varName)
	if val == "" {
		return defaults
	}
	intVal, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return defaults
	}
	return int(intVal)
}

func getEnvDuration(varName string, defaultMS int) time.Duration {
	ms := getEnvInt(varName, defaultMS)
	if ms <= 0 {
		ms = defaultMS
	}
	return time.Duration(ms) * time.Millisecond
}

// NewSubmitLimiter returns a limiter for score submissions.
func NewSubmitLimiter() *rate.Limiter {
	return rate.NewLimiter(SubmitRate, SubmitBurst)
}
