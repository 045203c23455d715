package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "ticks_total",
			Help:      "Game ticks that changed state.",
		},
	)
	gamesOver = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "games_over_total",
			Help:      "Finished games by cause of death.",
		},
		[]string{"cause"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently running.",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionTicks, gamesOver, activeSessions)
}
