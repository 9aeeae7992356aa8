// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/timeclock-engine/timeclock"
)

// Metrics implements timeclock.Observer on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	clockActions     *prometheus.CounterVec
	holidayRefreshes *prometheus.CounterVec
}

var _ timeclock.Observer = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	clock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeclock_clock_actions_total",
		Help: "Clock actions by event type and outcome.",
	}, []string{"action", "outcome"})
	refresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeclock_holiday_refreshes_total",
		Help: "Holiday cache refresh attempts by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(clock, refresh)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		clockActions:     clock,
		holidayRefreshes: refresh,
	}
}

func (m *Metrics) ClockAction(action timeclock.EventType, outcome string) {
	m.clockActions.WithLabelValues(string(action), outcome).Inc()
}

func (m *Metrics) HolidayRefresh(outcome string) {
	m.holidayRefreshes.WithLabelValues(outcome).Inc()
}

// Handler serves /metrics. A nil receiver answers 503.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
