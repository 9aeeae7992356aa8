/*
handlers_test.go - HTTP tests for the timeclock API

Tests for:
- Clock actions and rejection status codes
- Records, export and summaries over a period query
- Event and day edits with the audit trail
- Leave filing and decisions
- Settings patches, holidays, users and health
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/holiday"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var jst = time.FixedZone("JST", 9*3600)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testServer struct {
	t       *testing.T
	h       *Handler
	handler http.Handler
	mem     *store.Memory
	clock   *testClock
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	mem := store.NewMemory()
	clock := &testClock{now: time.Date(2025, time.March, 3, 9, 0, 0, 0, jst)}

	engine := timeclock.New(mem,
		timeclock.WithLocation(jst),
		timeclock.WithClock(clock.Now),
		timeclock.WithHolidaySource(&holiday.Static{Dates: []timeclock.Holiday{
			{Date: timeclock.NewDate(2025, time.March, 20), Name: "Vernal Equinox Day"},
		}}),
	)
	require.NoError(t, engine.Init(context.Background()))

	h := NewHandler(engine, nil)
	h.Store = pinger{}
	return &testServer{t: t, h: h, handler: NewRouter(h, opts), mem: mem, clock: clock}
}

func (s *testServer) do(method, path string, body any, actor string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) at(hhmm string) {
	s.t.Helper()
	c := timeclock.MustParseClock(hhmm)
	s.clock.Set(time.Date(2025, time.March, 3, int(c)/60, int(c)%60, 0, 0, jst))
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}

// =============================================================================
// PUNCHING
// =============================================================================

func TestClock(t *testing.T) {
	// GIVEN: a user who has not punched today
	// WHEN: they clock in twice
	// THEN: the first is created, the second conflicts with a reason code

	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodPost, "/api/users/u1/clock/clock-in", map[string]string{"note": "train delay"}, "")
	requireStatus(t, rec, http.StatusCreated)
	ev := decodeAs[EventDTO](t, rec)
	assert.Equal(t, "IN", ev.Type)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "train delay", ev.Note)
	assert.NotEmpty(t, ev.ID)

	rec = s.do(http.MethodPost, "/api/users/u1/clock/clock-in", nil, "")
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "already_clocked_in", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPost, "/api/users/u1/clock/return", nil, "")
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "outing_required", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPost, "/api/users/u1/clock/nap", nil, "")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_event_type", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPost, "/api/users/u1/clock/out", `{"note":`, "")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "bad_request", decodeAs[ErrorResponse](t, rec).Reason)

	// A client time that is not RFC 3339 is rejected, not dropped.
	for _, bad := range []string{"03/03/2025 18:00", "2025-03-03 18:00:00", "yesterday"} {
		rec = s.do(http.MethodPost, "/api/users/u1/clock/out", ClockRequest{ClientTime: bad}, "")
		requireStatus(t, rec, http.StatusBadRequest)
		assert.Equal(t, "bad_request", decodeAs[ErrorResponse](t, rec).Reason, bad)
	}

	s.at("18:00")
	rec = s.do(http.MethodPost, "/api/users/u1/clock/out", ClockRequest{ClientTime: "2025-03-03T17:59:30+09:00"}, "")
	requireStatus(t, rec, http.StatusCreated)
	assert.NotEmpty(t, decodeAs[EventDTO](t, rec).ClientTime)
}

func TestGetState(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("12:00")
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/outing", nil, ""), http.StatusCreated)

	rec := s.do(http.MethodGet, "/api/users/u1/state", nil, "")
	requireStatus(t, rec, http.StatusOK)
	state := decodeAs[StateDTO](t, rec)
	assert.Equal(t, "OUTING", state.State)
	assert.Equal(t, "2025-03-03", state.Date)
	assert.Equal(t, "09:00", state.ClockIn)
	assert.Equal(t, "12:00", state.Outing)
	assert.Equal(t, "clock-out", state.Primary.Action)
	assert.Equal(t, "return", state.Secondary.Action)
	assert.Len(t, state.Events, 2)
}

func TestGetEvents(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("18:00")
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/out", nil, ""), http.StatusCreated)

	rec := s.do(http.MethodGet, "/api/users/u1/events?limit=1", nil, "")
	requireStatus(t, rec, http.StatusOK)
	events := decodeAs[[]EventDTO](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "OUT", events[0].Type)

	requireStatus(t, s.do(http.MethodGet, "/api/users/u1/events?limit=zero", nil, ""), http.StatusBadRequest)
}

func TestClock_RateLimited(t *testing.T) {
	s := newTestServer(t, RouterOptions{RateLimitPerMinute: 2})

	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusConflict)
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusTooManyRequests)

	// Another user has their own budget.
	requireStatus(t, s.do(http.MethodPost, "/api/users/u2/clock/in", nil, ""), http.StatusCreated)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestGetRecords(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("18:30")
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/out", nil, ""), http.StatusCreated)

	rec := s.do(http.MethodGet, "/api/users/u1/records?from=2025-03-03&to=2025-03-04", nil, "")
	requireStatus(t, rec, http.StatusOK)
	out := decodeAs[RecordsDTO](t, rec)

	assert.Equal(t, PeriodDTO{Start: "2025-03-03", End: "2025-03-04", Days: 2}, out.Period)
	require.Len(t, out.Days, 2)
	assert.Equal(t, "WORK", out.Days[0].Classification)
	assert.Equal(t, 510, out.Days[0].WorkedMinutes)
	assert.Equal(t, 30, out.Days[0].OvertimeMinutes)
	assert.Equal(t, "Mon", out.Days[0].Weekday)
	assert.Equal(t, 1, out.Summary.WorkDays)
	assert.Equal(t, 1, out.Summary.OvertimeDays)
	assert.Equal(t, 0, out.Summary.AbsenceCount, "tomorrow is not an absence yet")

	// Default period is the one containing today.
	rec = s.do(http.MethodGet, "/api/users/u1/records", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, PeriodDTO{Start: "2025-02-21", End: "2025-03-20", Days: 28}, decodeAs[RecordsDTO](t, rec).Period)

	rec = s.do(http.MethodGet, "/api/users/u1/records?month=2025-04", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "2025-03-21", decodeAs[RecordsDTO](t, rec).Period.Start)

	// 366 days is the longest explicit range.
	rec = s.do(http.MethodGet, "/api/users/u1/records?from=2025-01-01&to=2026-01-01", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, 366, decodeAs[RecordsDTO](t, rec).Period.Days)

	for _, q := range []string{
		"month=2025-4x",
		"from=2025-03-05&to=2025-03-01",
		"date=yesterday",
		"from=2025-01-01&to=2026-01-02",
		"from=2000-01-01&to=2099-12-31",
	} {
		rec = s.do(http.MethodGet, "/api/users/u1/records?"+q, nil, "")
		requireStatus(t, rec, http.StatusBadRequest)
		assert.Equal(t, "invalid_date", decodeAs[ErrorResponse](t, rec).Reason, q)
	}
}

func TestGetTimeline(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("21:00")

	rec := s.do(http.MethodGet, "/api/users/u1/timeline", nil, "")
	requireStatus(t, rec, http.StatusOK)
	tl := decodeAs[TimelineDTO](t, rec)
	assert.Equal(t, "WORKING", tl.State)
	assert.Equal(t, 720, tl.WorkedMinutes)
	assert.Equal(t, 240, tl.OvertimeMinutes)
	require.NotEmpty(t, tl.Segments)
	assert.Equal(t, "09:00", tl.Segments[0].Start)
	assert.Equal(t, "work", tl.Segments[0].Kind)
}

func TestGetExportAndSummary(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodPost, "/api/users", map[string]any{"id": "u1", "name": "Hanako"}, "admin")
	requireStatus(t, rec, http.StatusOK)
	assert.True(t, decodeAs[UserDTO](t, rec).Active)

	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("18:00")
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/out", nil, ""), http.StatusCreated)

	rec = s.do(http.MethodGet, "/api/users/u1/export?from=2025-03-03&to=2025-03-03", nil, "")
	requireStatus(t, rec, http.StatusOK)
	rows := decodeAs[[]map[string]any](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hanako", rows[0]["user_name"])
	assert.Equal(t, "09:00", rows[0]["clock_in"])
	assert.Equal(t, "8", rows[0]["worked_hours"])

	requireStatus(t, s.do(http.MethodGet, "/api/users/ghost/export", nil, ""), http.StatusNotFound)

	rec = s.do(http.MethodGet, "/api/summary?from=2025-03-03&to=2025-03-03", nil, "")
	requireStatus(t, rec, http.StatusOK)
	sums := decodeAs[[]UserSummaryDTO](t, rec)
	require.Len(t, sums, 1)
	assert.Equal(t, "Hanako", sums[0].UserName)
	assert.Equal(t, 480, sums[0].Summary.WorkMinutes)

	rec = s.do(http.MethodGet, "/api/users/u1/summaries?kind=daily", nil, "")
	requireStatus(t, rec, http.StatusOK)
	daily := decodeAs[[]DailySummaryDTO](t, rec)
	require.Len(t, daily, 1)
	assert.Equal(t, 480, daily[0].WorkMinutes)

	rec = s.do(http.MethodGet, "/api/users/u1/summaries?kind=monthly", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeAs[[]MonthlySummaryDTO](t, rec), 1)

	requireStatus(t, s.do(http.MethodGet, "/api/users/u1/summaries?kind=yearly", nil, ""), http.StatusBadRequest)

	rec = s.do(http.MethodGet, "/api/users", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeAs[[]UserDTO](t, rec), 1)

	requireStatus(t, s.do(http.MethodPost, "/api/users", map[string]any{"name": "no id"}, "admin"), http.StatusBadRequest)
}

// =============================================================================
// EDITS
// =============================================================================

func TestEditEvent(t *testing.T) {
	// GIVEN: an OUT punch at 17:00
	// WHEN: an admin moves it to 18:00
	// THEN: a new edited event is created and the audit trail shows both

	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)
	s.at("17:00")
	out := decodeAs[EventDTO](t, s.do(http.MethodPost, "/api/users/u1/clock/out", nil, ""))
	s.at("19:00")

	rec := s.do(http.MethodPost, "/api/events/"+out.ID+"/edit", EditEventRequest{
		EventType: "OUT",
		EventTime: "2025-03-03T18:00:00+09:00",
		Note:      "meeting ran late",
	}, "admin")
	requireStatus(t, rec, http.StatusCreated)
	edited := decodeAs[EventDTO](t, rec)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, out.ID, edited.EditedFromID)
	assert.Equal(t, "admin", edited.EditedBy)

	rec = s.do(http.MethodGet, "/api/users/u1/edits", nil, "")
	requireStatus(t, rec, http.StatusOK)
	edits := decodeAs[[]AuditDTO](t, rec)
	require.Len(t, edits, 1)
	assert.Equal(t, out.ID, edits[0].EventID)
	assert.Equal(t, "meeting ran late", edits[0].Reason)
	require.NotNil(t, edits[0].Before)

	rec = s.do(http.MethodPost, "/api/events/missing/edit", EditEventRequest{
		EventType: "OUT", EventTime: "2025-03-03T18:00:00+09:00",
	}, "admin")
	requireStatus(t, rec, http.StatusNotFound)

	rec = s.do(http.MethodPost, "/api/events/"+out.ID+"/edit", map[string]string{"event_type": "OUT"}, "admin")
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestEditDay(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)

	rec := s.do(http.MethodPut, "/api/users/u1/days/2025-03-03", EditDayRequest{
		Outing:   "12:00",
		Return:   "13:00",
		ClockOut: "18:00",
		Note:     "forgot",
	}, "admin")
	requireStatus(t, rec, http.StatusOK)
	timeline := decodeAs[[]EventDTO](t, rec)
	require.Len(t, timeline, 4)
	assert.Equal(t, "OUT", timeline[3].Type)

	rec = s.do(http.MethodPut, "/api/users/u1/days/2025-03-03", EditDayRequest{ClockIn: "19:00"}, "admin")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "clock_out_before_clock_in", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPut, "/api/users/u1/days/2025-03-03", EditDayRequest{ClockIn: "9h"}, "admin")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "bad_request", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPut, "/api/users/u1/days/03-03-2025", EditDayRequest{ClockIn: "09:00"}, "admin")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_date", decodeAs[ErrorResponse](t, rec).Reason)
}

// =============================================================================
// LEAVE
// =============================================================================

func TestLeave(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodPost, "/api/users/u1/leave", CreateLeaveRequest{Date: "2025-03-05", Type: "paid"}, "")
	requireStatus(t, rec, http.StatusCreated)
	lr := decodeAs[LeaveDTO](t, rec)
	assert.Equal(t, "PENDING", lr.Status)
	assert.Equal(t, "PAID", lr.Type)

	rec = s.do(http.MethodGet, "/api/leave?status=pending", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeAs[[]LeaveDTO](t, rec), 1)

	rec = s.do(http.MethodPost, "/api/leave/"+lr.ID+"/approve", nil, "boss")
	requireStatus(t, rec, http.StatusOK)
	decided := decodeAs[LeaveDTO](t, rec)
	assert.Equal(t, "APPROVED", decided.Status)
	assert.Equal(t, "boss", decided.DecidedBy)

	rec = s.do(http.MethodGet, "/api/leave?status=pending", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeAs[[]LeaveDTO](t, rec))

	rec = s.do(http.MethodGet, "/api/users/u1/records?from=2025-03-05&to=2025-03-05", nil, "")
	requireStatus(t, rec, http.StatusOK)
	day := decodeAs[RecordsDTO](t, rec).Days[0]
	assert.Equal(t, "LEAVE_PAID", day.Classification)
	assert.Equal(t, lr.ID, day.LeaveID)

	requireStatus(t, s.do(http.MethodPost, "/api/leave/missing/reject", nil, "boss"), http.StatusNotFound)

	rec = s.do(http.MethodPost, "/api/users/u1/leave", CreateLeaveRequest{Date: "2025-03-05", Type: "sabbatical"}, "")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_leave_type", decodeAs[ErrorResponse](t, rec).Reason)
}

// =============================================================================
// SETTINGS, HOLIDAYS, HEALTH
// =============================================================================

func TestSettings(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodGet, "/api/settings", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, float64(20), decodeAs[map[string]any](t, rec)["closing_day"])

	rec = s.do(http.MethodPut, "/api/settings", map[string]any{"closing_day": 25, "allow_multiple_clock_in": true}, "admin")
	requireStatus(t, rec, http.StatusOK)
	updated := decodeAs[map[string]any](t, rec)
	assert.Equal(t, float64(25), updated["closing_day"])
	assert.Equal(t, true, updated["allow_multiple_clock_in"])
	assert.Equal(t, "admin", updated["updated_by"])

	rec = s.do(http.MethodGet, "/api/payroll-period?date=2025-03-03", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, PeriodDTO{Start: "2025-02-26", End: "2025-03-25", Days: 28}, decodeAs[PeriodDTO](t, rec))

	rec = s.do(http.MethodPut, "/api/settings", map[string]any{"closing_day": 40}, "admin")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_settings", decodeAs[ErrorResponse](t, rec).Reason)
}

func TestHolidays(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodPost, "/api/holidays/refresh", nil, "admin")
	requireStatus(t, rec, http.StatusOK)
	assert.NotEmpty(t, decodeAs[map[string]string](t, rec)["holiday_cache_updated_at"])

	rec = s.do(http.MethodGet, "/api/holidays?from=2025-03-01&to=2025-03-31", nil, "")
	requireStatus(t, rec, http.StatusOK)
	hs := decodeAs[[]HolidayDTO](t, rec)
	require.Len(t, hs, 1)
	assert.Equal(t, "2025-03-20", hs[0].Date)
	assert.Equal(t, "PUBLIC", hs[0].Kind)
}

func TestStorageFailure(t *testing.T) {
	// GIVEN: a store that is down
	// THEN: requests answer 503 without leaking the storage error

	s := newTestServer(t, RouterOptions{})
	s.mem.FailWith(errors.New("disk on fire"))

	rec := s.do(http.MethodPost, "/api/users/u1/clock/in", nil, "")
	requireStatus(t, rec, http.StatusServiceUnavailable)
	resp := decodeAs[ErrorResponse](t, rec)
	assert.Empty(t, resp.Details)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterOptions{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})})

	requireStatus(t, s.do(http.MethodGet, "/healthz", nil, ""), http.StatusOK)
	requireStatus(t, s.do(http.MethodGet, "/metrics", nil, ""), http.StatusTeapot)

	engine := timeclock.New(store.NewMemory())
	h := NewHandler(engine, nil)
	h.Store = pinger{err: errors.New("down")}
	rec := httptest.NewRecorder()
	NewRouter(h, RouterOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestHolidayScheduler(t *testing.T) {
	mem := store.NewMemory()
	engine := timeclock.New(mem,
		timeclock.WithLocation(jst),
		timeclock.WithHolidaySource(&holiday.Static{Dates: []timeclock.Holiday{
			{Date: timeclock.NewDate(time.Now().In(jst).Year(), time.January, 1), Name: "New Year's Day"},
		}}),
	)
	require.NoError(t, engine.Init(context.Background()))

	sched := NewHolidayScheduler(engine, nil)
	sched.CheckInterval = time.Hour
	sched.Start()
	sched.Start() // second start is a no-op
	defer sched.Stop()

	assert.Eventually(t, func() bool {
		s, err := engine.Settings(context.Background())
		return err == nil && !s.HolidayCacheUpdatedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	sched.Stop()
	sched.Stop()

	disabled := NewHolidayScheduler(engine, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}
