package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/metrics"
	"github.com/warp/timeclock-engine/timeclock"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()
	m.ClockAction(timeclock.EventIn, timeclock.OutcomeAccepted)
	m.ClockAction(timeclock.EventIn, timeclock.OutcomeAccepted)
	m.ClockAction(timeclock.EventOut, string(timeclock.ReasonClockInRequired))
	m.HolidayRefresh(timeclock.RefreshFailed)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	series := map[string]int{}
	for _, mf := range families {
		series[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 2, series["timeclock_clock_actions_total"], "one series per label pair")
	assert.Equal(t, 1, series["timeclock_holiday_refreshes_total"])

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `timeclock_clock_actions_total{action="IN",outcome="accepted"} 2`)
	assert.Contains(t, string(body), `timeclock_holiday_refreshes_total{outcome="source_error"} 1`)
}

func TestMetrics_NilHandler(t *testing.T) {
	var m *metrics.Metrics
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
