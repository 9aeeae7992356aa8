/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- The store is reset before loading
	- Users and settings are created
	- Back-filled days classify as described
	- Leave requests land in the right status

Today is Monday 2025-03-03 in every test, so "last week" is 02-24..02-28.
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/factory"
	"github.com/warp/timeclock-engine/store/sqlite"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/store"
)

// memBackend makes the memory store pingable and resettable.
type memBackend struct{ *store.Memory }

func (memBackend) Ping(context.Context) error { return nil }

func newScenarioServer(t *testing.T) *testServer {
	t.Helper()
	s := newTestServer(t, RouterOptions{})
	s.h.Store = memBackend{s.mem}
	return s
}

func (s *testServer) loadScenario(id string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id}, "")
	requireStatus(s.t, rec, http.StatusOK)
}

func (s *testServer) lastWeek(user string) []DayRowDTO {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/api/users/"+user+"/records?from=2025-02-24&to=2025-02-28", nil, "")
	requireStatus(s.t, rec, http.StatusOK)
	days := decodeAs[RecordsDTO](s.t, rec).Days
	require.Len(s.t, days, 5)
	return days
}

func TestListScenarios(t *testing.T) {
	s := newScenarioServer(t)

	rec := s.do(http.MethodGet, "/api/scenarios", nil, "")
	requireStatus(t, rec, http.StatusOK)
	list := decodeAs[[]ScenarioDTO](t, rec)

	ids := make([]string, 0, len(list))
	for _, sc := range list {
		ids = append(ids, sc.ID)
		assert.NotEmpty(t, sc.Description, sc.ID)
	}
	assert.Equal(t, []string{"regular-week", "night-shift", "leave-and-holidays", "closing-day"}, ids)

	// Every listed scenario has a loader.
	loaders := s.h.scenarioLoaders()
	for _, id := range ids {
		assert.Contains(t, loaders, id)
	}

	rec = s.do(http.MethodGet, "/api/scenarios/current", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestLoadScenario_RegularWeek(t *testing.T) {
	// GIVEN: a store with an unrelated punch
	// WHEN: the regular-week scenario is loaded
	// THEN: the punch is gone and last week classifies with late, early and overtime days

	s := newScenarioServer(t)
	requireStatus(t, s.do(http.MethodPost, "/api/users/u1/clock/in", nil, ""), http.StatusCreated)

	s.loadScenario("regular-week")

	rec := s.do(http.MethodGet, "/api/users/u1/events", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeAs[[]EventDTO](t, rec), "reset drops earlier events")

	days := s.lastWeek("emp-001")
	for _, d := range days {
		assert.Equal(t, "WORK", d.Classification, d.Date)
		assert.True(t, d.IsEdited, d.Date)
	}
	assert.False(t, days[0].Late)
	assert.True(t, days[1].Late)
	assert.Equal(t, "train delay", days[1].Note)
	assert.True(t, days[2].EarlyLeave)
	assert.Equal(t, "14:00", days[3].Outing)
	assert.Equal(t, "15:00", days[3].Return)
	assert.Equal(t, 635, days[4].WorkedMinutes)
	assert.Equal(t, 155, days[4].OvertimeMinutes)

	rec = s.do(http.MethodGet, "/api/users/emp-001/edits", nil, "")
	requireStatus(t, rec, http.StatusOK)
	for _, a := range decodeAs[[]AuditDTO](t, rec) {
		assert.Equal(t, string(scenarioActor), a.EditedBy)
	}

	rec = s.do(http.MethodGet, "/api/scenarios/current", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "regular-week", decodeAs[ScenarioDTO](t, rec).ID)
}

func TestLoadScenario_NightShift(t *testing.T) {
	s := newScenarioServer(t)
	s.loadScenario("night-shift")

	rec := s.do(http.MethodGet, "/api/settings", nil, "")
	requireStatus(t, rec, http.StatusOK)
	settings := decodeAs[factory.SettingsJSON](t, rec)
	assert.Equal(t, "14:00", settings.ScheduledStartTime)
	assert.Equal(t, "23:00", settings.ScheduledEndTime)
	assert.Equal(t, "tiered", settings.BreakPolicy.Type)
	assert.Equal(t, string(scenarioActor), settings.UpdatedBy)

	days := s.lastWeek("emp-002")
	assert.Equal(t, "WORK", days[1].Classification)
	assert.Equal(t, 60, days[1].BreakMinutes)
	assert.False(t, days[0].Late)
	assert.True(t, days[4].EarlyLeave)
}

func TestLoadScenario_LeaveAndHolidays(t *testing.T) {
	s := newScenarioServer(t)
	s.loadScenario("leave-and-holidays")

	days := s.lastWeek("emp-003")
	assert.Equal(t, "LEAVE_PAID", days[0].Classification)
	assert.Equal(t, "MISSING", days[1].Classification, "pending leave does not count")
	assert.Equal(t, "HOLIDAY_OFF", days[2].Classification)
	assert.Equal(t, "MISSING", days[3].Classification)
	assert.Contains(t, days[3].Flags, "incomplete")
	assert.Equal(t, "MISSING", days[4].Classification)

	rec := s.do(http.MethodGet, "/api/leave?status=pending", nil, "")
	requireStatus(t, rec, http.StatusOK)
	pending := decodeAs[[]LeaveDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, "SPECIAL", pending[0].Type)
	assert.Equal(t, "bereavement", pending[0].Name)
}

func TestLoadScenario_ClosingDay(t *testing.T) {
	s := newScenarioServer(t)
	s.loadScenario("closing-day")

	rec := s.do(http.MethodGet, "/api/users/emp-004/records?date=2025-02-24", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, PeriodDTO{Start: "2025-01-26", End: "2025-02-25", Days: 31}, decodeAs[RecordsDTO](t, rec).Period)

	rec = s.do(http.MethodGet, "/api/users/emp-005/records?date=2025-02-24", nil, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, PeriodDTO{Start: "2025-02-01", End: "2025-02-28", Days: 28}, decodeAs[RecordsDTO](t, rec).Period)
}

func TestLoadScenario_Rejections(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "regular-week"}, "")
	requireStatus(t, rec, http.StatusNotImplemented)

	s.h.Store = memBackend{s.mem}
	rec = s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "year-end"}, "")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "bad_request", decodeAs[ErrorResponse](t, rec).Reason)

	rec = s.do(http.MethodPost, "/api/scenarios/load", `{}`, "")
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestLoadScenario_SQLite(t *testing.T) {
	// GIVEN: the handler over a sqlite store
	// WHEN: two scenarios are loaded one after the other
	// THEN: only the second one's rows remain

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := newTestServer(t, RouterOptions{})
	engine := timeclock.New(db, timeclock.WithLocation(jst), timeclock.WithClock(s.clock.Now))
	require.NoError(t, engine.Init(context.Background()))
	s.h.Engine = engine
	s.h.Store = db

	s.loadScenario("regular-week")
	s.loadScenario("leave-and-holidays")

	counts, err := db.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[timeclock.TableUsers])
	assert.Equal(t, 2, counts[timeclock.TableLeaveRequests])
	assert.Equal(t, 1, counts[timeclock.TableEvents])
}
