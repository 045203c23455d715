package leaderboard

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentStore wraps all store methods to instrument the underlying calls.
func InstrumentStore(s Store) Store { return &metrics{s} }

var (
	storeCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arcade",
			Subsystem: "leaderboard",
			Name:      "calls",
			Help:      "Calls processed by the store.",
		},
		[]string{"method"},
	)
	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "leaderboard",
			Name:      "errors_total",
			Help:      "Store calls that returned an error.",
		},
		[]string{"method"},
	)
)

func instrument(method string) func() {
	t := prometheus.NewTimer(storeCalls.WithLabelValues(method))
	return func() { t.ObserveDuration() }
}

func countError(method string, err error) {
	if err != nil {
		storeErrors.WithLabelValues(method).Inc()
	}
}

func init() {
	prometheus.MustRegister(storeCalls, storeErrors)
}

type metrics struct{ s Store }

func (m *metrics) Write(c context.Context, r Record) (Record, error) {
	defer instrument("Write")()
	stored, err := m.s.Write(c, r)
	countError("Write", err)
	return stored, err
}

func (m *metrics) Top(c context.Context, limit int) ([]Record, error) {
	defer instrument("Top")()
	records, err := m.s.Top(c, limit)
	countError("Top", err)
	return records, err
}

func (m *metrics) Subscribe(c context.Context, limit int, onUpdate func([]Record)) (func(), error) {
	defer instrument("Subscribe")()
	unsubscribe, err := m.s.Subscribe(c, limit, onUpdate)
	countError("Subscribe", err)
	return unsubscribe, err
}

// Close closes the wrapped store if it can be closed.
func (m *metrics) Close() error {
	if c, ok := m.s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
