/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	attendance data for demos. Each scenario creates users, adjusts company
	settings and back-fills punches and leave through the engine, so every
	row carries the same audit trail a real admin edit would.

AVAILABLE SCENARIOS:

	regular-week:       Office week with a late arrival, an early leave and overtime
	night-shift:        Evening shifts reaching into the night window, tiered breaks
	leave-and-holidays: Paid and special leave, a company holiday, missing punches
	closing-day:        Per-user closing day overriding the company one

HOW SCENARIOS WORK:
 1. Reset the store (clear all tables)
 2. Re-seed default settings (Engine.Init)
 3. Patch settings via the settings factory
 4. Create users
 5. Back-fill last week's punches with admin day edits
 6. Optionally file and decide leave requests

Dates are relative to today: "last week" is the Monday to Friday before
the current week, so records always show classified past days.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "regular-week"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add it to the scenarioLoaders map

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler.Store
  - factory/settings.go: Settings JSON patches
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/timeclock"
)

// Resetter is implemented by stores that can drop all their data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// scenarioActor is recorded as the editor of every back-filled punch.
const scenarioActor timeclock.UserID = "scenario-loader"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "regular-week",
		Name:        "Regular Week",
		Description: "Office week with a late arrival, an early leave, an outing and overtime",
		Category:    "attendance",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "Afternoon-to-night shifts with tiered breaks and night minutes",
		Category:    "attendance",
	},
	{
		ID:          "leave-and-holidays",
		Name:        "Leave and Holidays",
		Description: "Approved paid leave, pending special leave, a company holiday and missing punches",
		Category:    "leave",
	},
	{
		ID:          "closing-day",
		Name:        "Per-User Closing Day",
		Description: "Company closes on the 25th, one user closes at month end",
		Category:    "payroll",
	},
}

func (h *Handler) scenarioLoaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"regular-week":       h.loadRegularWeekScenario,
		"night-shift":        h.loadNightShiftScenario,
		"leave-and-holidays": h.loadLeaveAndHolidaysScenario,
		"closing-day":        h.loadClosingDayScenario,
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := h.scenarioLoaders()[req.ScenarioID]
	if !ok {
		h.writeError(w, r, badRequest("unknown scenario "+req.ScenarioID))
		return
	}
	resetter, ok := h.Store.(Resetter)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{
			Error:   http.StatusText(http.StatusNotImplemented),
			Details: "store cannot be reset",
		})
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := resetter.Reset(ctx); err != nil {
		h.writeError(w, r, &timeclock.StorageError{Op: "reset", Err: err})
		return
	}
	if err := h.Engine.Init(ctx); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := load(ctx); err != nil {
		h.writeError(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadRegularWeekScenario(ctx context.Context) error {
	if err := h.addUser(ctx, timeclock.User{ID: "emp-001", Name: "Hanako Sato", Email: "hanako@example.com"}); err != nil {
		return err
	}
	mon := h.lastMonday()
	days := []shift{
		{date: mon, in: "09:00", out: "18:00"},
		{date: mon.AddDays(1), in: "09:20", out: "18:00", note: "train delay"},
		{date: mon.AddDays(2), in: "08:50", out: "17:30", note: "dentist"},
		{date: mon.AddDays(3), in: "08:55", out: "18:00", outing: "14:00", back: "15:00"},
		{date: mon.AddDays(4), in: "08:55", out: "20:30"},
	}
	return h.punchShifts(ctx, "emp-001", days)
}

func (h *Handler) loadNightShiftScenario(ctx context.Context) error {
	err := h.patchSettings(ctx, `{
		"scheduled_start_time": "14:00",
		"scheduled_end_time": "23:00",
		"break_policy": {"type": "tiered", "tiers": [
			{"min_work_minutes": 360, "break_minutes": 45},
			{"min_work_minutes": 480, "break_minutes": 60}
		]}
	}`)
	if err != nil {
		return err
	}
	if err := h.addUser(ctx, timeclock.User{ID: "emp-002", Name: "Kenji Ito", Email: "kenji@example.com"}); err != nil {
		return err
	}
	mon := h.lastMonday()
	days := []shift{
		{date: mon, in: "14:00", out: "23:00"},
		{date: mon.AddDays(1), in: "14:00", out: "23:45"},
		{date: mon.AddDays(2), in: "16:00", out: "22:00"},
		{date: mon.AddDays(3), in: "13:55", out: "23:30", outing: "18:00", back: "18:30"},
		{date: mon.AddDays(4), in: "14:00", out: "20:00"},
	}
	return h.punchShifts(ctx, "emp-002", days)
}

func (h *Handler) loadLeaveAndHolidaysScenario(ctx context.Context) error {
	mon := h.lastMonday()
	err := h.patchSettings(ctx, fmt.Sprintf(`{"company_holidays": [%q]}`, mon.AddDays(2).String()))
	if err != nil {
		return err
	}
	if err := h.addUser(ctx, timeclock.User{ID: "emp-003", Name: "Yui Tanaka", Email: "yui@example.com"}); err != nil {
		return err
	}

	paid, err := h.Engine.CreateLeave(ctx, timeclock.LeaveInput{
		UserID: "emp-003", Date: mon, Type: timeclock.LeavePaid, Note: "family trip",
	})
	if err != nil {
		return err
	}
	if _, err := h.Engine.DecideLeave(ctx, paid.ID, "admin", true); err != nil {
		return err
	}
	_, err = h.Engine.CreateLeave(ctx, timeclock.LeaveInput{
		UserID: "emp-003", Date: mon.AddDays(1), Type: timeclock.LeaveSpecial, Name: "bereavement",
	})
	if err != nil {
		return err
	}

	// Thursday has no clock-out, Friday has nothing at all.
	days := []shift{
		{date: mon.AddDays(3), in: "09:00"},
	}
	return h.punchShifts(ctx, "emp-003", days)
}

func (h *Handler) loadClosingDayScenario(ctx context.Context) error {
	if err := h.patchSettings(ctx, `{"closing_day": 25}`); err != nil {
		return err
	}
	users := []timeclock.User{
		{ID: "emp-004", Name: "Daiki Mori", Email: "daiki@example.com"},
		{ID: "emp-005", Name: "Aoi Kato", Email: "aoi@example.com", ClosingDay: 31},
	}
	mon := h.lastMonday()
	for _, u := range users {
		if err := h.addUser(ctx, u); err != nil {
			return err
		}
		days := []shift{
			{date: mon, in: "09:00", out: "18:00"},
			{date: mon.AddDays(1), in: "09:00", out: "18:00"},
		}
		if err := h.punchShifts(ctx, u.ID, days); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// shift is one back-filled day. Empty clock strings are left unpunched.
type shift struct {
	date   timeclock.Date
	in     string
	out    string
	outing string
	back   string
	note   string
}

func (h *Handler) punchShifts(ctx context.Context, user timeclock.UserID, days []shift) error {
	loc := h.Engine.Location()
	for _, s := range days {
		req := timeclock.EditDayRequest{Actor: scenarioActor, UserID: user, Date: s.date, Note: s.note}
		var err error
		if req.In, err = clockOn(s.date, s.in, loc); err != nil {
			return err
		}
		if req.Out, err = clockOn(s.date, s.out, loc); err != nil {
			return err
		}
		if req.Outing, err = clockOn(s.date, s.outing, loc); err != nil {
			return err
		}
		if req.Return, err = clockOn(s.date, s.back, loc); err != nil {
			return err
		}
		if _, err := h.Engine.EditDay(ctx, req); err != nil {
			return fmt.Errorf("punch %s on %s: %w", user, s.date, err)
		}
	}
	return nil
}

func (h *Handler) addUser(ctx context.Context, u timeclock.User) error {
	u.Active = true
	_, err := h.Engine.UpsertUser(ctx, u)
	return err
}

func (h *Handler) patchSettings(ctx context.Context, body string) error {
	patch, err := h.SettingsFactory.ParsePatch([]byte(body))
	if err != nil {
		return err
	}
	_, err = h.Engine.UpdateSettings(ctx, scenarioActor, patch.Apply)
	return err
}

// lastMonday returns the Monday of the week before the current one.
func (h *Handler) lastMonday() timeclock.Date {
	today := h.Engine.Today()
	sinceMonday := (int(today.Weekday()) + 6) % 7
	return today.AddDays(-sinceMonday - 7)
}

func clockOn(d timeclock.Date, hhmm string, loc *time.Location) (*time.Time, error) {
	if hhmm == "" {
		return nil, nil
	}
	c, err := timeclock.ParseClock(hhmm)
	if err != nil {
		return nil, fmt.Errorf("scenario clock %s: %w", hhmm, err)
	}
	t := d.At(c, loc)
	return &t, nil
}
