/*
handlers.go - HTTP API handlers for the timeclock engine

PURPOSE:
  Exposes the timeclock engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to timeclock.Engine.

ENDPOINTS:
  Punching:
    POST   /api/users/{id}/clock/{action}  Clock in / out / outing / return
    GET    /api/users/{id}/state           Today's state and next actions
    GET    /api/users/{id}/events          Recent events, newest first

  Records:
    GET    /api/users/{id}/records         Classified days + summary
    GET    /api/users/{id}/timeline        Visual split of one day
    GET    /api/users/{id}/export          Payroll export rows
    GET    /api/users/{id}/summaries       Cached daily / monthly totals
    GET    /api/summary                    Period summary for all users

  Edits (admin):
    PUT    /api/users/{id}/days/{date}     Patch one day's punches
    POST   /api/events/{id}/edit           Replace one event
    GET    /api/users/{id}/edits           Edit audit trail

  Leave:
    POST   /api/users/{id}/leave           File a leave request
    GET    /api/leave                      List requests (?user=)
    POST   /api/leave/{id}/approve|reject  Decide a request

  Admin:
    GET|PUT  /api/settings                 Company settings
    GET      /api/holidays                 Holidays of a period
    POST     /api/holidays/refresh         Force a holiday refresh
    GET|POST /api/users                    User directory
    GET      /api/payroll-period           Period lookup

  Scenarios (demo):
    GET    /api/scenarios                  Available scenarios
    GET    /api/scenarios/current          Last loaded scenario
    POST   /api/scenarios/load             Reset the store and load one

PERIOD SELECTION:
  Period endpoints accept ?month=YYYY-MM (period ending in that month),
  ?from=&to= (explicit range, at most 366 days) or ?date= (period
  containing the date).
  With none of these the period containing today is used.

ACTOR:
  The acting user for edits, decisions and settings comes from the
  X-Actor-ID header. Authentication is out of scope.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Event, leave request or user not found
  - 409: Illegal clock transition (reason code in "reason")
  - 503: Storage failure
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/factory"
	"github.com/warp/timeclock-engine/timeclock"
)

// ActorHeader names the acting user.
const ActorHeader = "X-Actor-ID"

const (
	defaultEventLimit = 20
	maxEventLimit     = 200

	// maxRangeDays bounds explicit ?from=&to= ranges.
	maxRangeDays = 366
)

// Pinger is implemented by gateways that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine          *timeclock.Engine
	SettingsFactory *factory.SettingsFactory
	Logger          *zap.Logger

	// Store is pinged by /healthz when set. Scenario loading also needs it
	// to implement Resetter.
	Store Pinger

	validate *validator.Validate

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around an engine.
func NewHandler(engine *timeclock.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := factory.NewSettingsFactory()
	return &Handler{
		Engine:          engine,
		SettingsFactory: f,
		Logger:          logger,
		validate:        f.Validator(),
	}
}

// =============================================================================
// PUNCHING
// =============================================================================

// Clock records a clock action for the user.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(chi.URLParam(r, "id"))
	action, err := timeclock.ParseEventType(chi.URLParam(r, "action"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req ClockRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}
	var clientAt time.Time
	if req.ClientTime != "" {
		t, err := time.Parse(time.RFC3339, req.ClientTime)
		if err != nil {
			h.writeError(w, r, badRequest("client_time: "+err.Error()))
			return
		}
		clientAt = t
	}

	ev, err := h.Engine.ClockAction(r.Context(), timeclock.ClockRequest{
		UserID:    user,
		Action:    action,
		Note:      req.Note,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		ClientAt:  clientAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// GetState returns today's attendance view.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	view, err := h.Engine.AttendanceState(r.Context(), timeclock.UserID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(view, h.Engine.Location()))
}

// GetEvents returns the user's most recent events.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(w, r, badRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxEventLimit)
	}
	events, err := h.Engine.RecentEvents(r.Context(), timeclock.UserID(chi.URLParam(r, "id")), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// RECORDS
// =============================================================================

// GetRecords returns the classified days of a period.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(chi.URLParam(r, "id"))
	p, err := h.periodFromQuery(r, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, summary, err := h.Engine.DailyRecords(r.Context(), user, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	loc := h.Engine.Location()
	days := make([]DayRowDTO, 0, len(rows))
	for _, row := range rows {
		days = append(days, toDayRowDTO(row, loc))
	}
	writeJSON(w, http.StatusOK, RecordsDTO{
		UserID:  string(user),
		Period:  toPeriodDTO(p),
		Days:    days,
		Summary: summary,
	})
}

// GetTimeline returns the visual split of one day (?date=, default today).
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	d, err := h.dateParam(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tl, err := h.Engine.DayTimeline(r.Context(), timeclock.UserID(chi.URLParam(r, "id")), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTO(tl))
}

// GetExport returns payroll export rows for a period.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(chi.URLParam(r, "id"))
	p, err := h.periodFromQuery(r, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, err := h.Engine.ExportRows(r.Context(), user, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]ExportRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toExportRowDTO(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSummaries returns the cached summary rows (?kind=daily|monthly).
func (h *Handler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(chi.URLParam(r, "id"))
	loc := h.Engine.Location()

	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "daily":
		rows, err := h.Engine.DailySummaries(r.Context(), user)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out := make([]DailySummaryDTO, 0, len(rows))
		for _, s := range rows {
			out = append(out, DailySummaryDTO{
				Date:            s.Date.String(),
				ClockIn:         formatHHMM(s.ClockIn, loc),
				ClockOut:        formatHHMM(s.ClockOut, loc),
				BreakMinutes:    s.BreakMinutes,
				WorkMinutes:     s.WorkMinutes,
				OvertimeMinutes: s.OvertimeMinutes,
				Incomplete:      s.Incomplete,
			})
		}
		writeJSON(w, http.StatusOK, out)
	case "monthly":
		rows, err := h.Engine.MonthlySummaries(r.Context(), user)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out := make([]MonthlySummaryDTO, 0, len(rows))
		for _, s := range rows {
			out = append(out, MonthlySummaryDTO{
				Period:          toPeriodDTO(s.Period),
				WorkMinutes:     s.WorkMinutes,
				OvertimeMinutes: s.OvertimeMinutes,
			})
		}
		writeJSON(w, http.StatusOK, out)
	default:
		h.writeError(w, r, badRequest("kind must be daily or monthly"))
	}
}

// GetSummary returns period totals for every active user, or for ?user=.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(r.URL.Query().Get("user"))
	p, err := h.periodFromQuery(r, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sums, err := h.Engine.SummaryForPeriod(r.Context(), user, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]UserSummaryDTO, 0, len(sums))
	for _, s := range sums {
		out = append(out, UserSummaryDTO{
			UserID:   string(s.User.ID),
			UserName: s.User.DisplayName(),
			Period:   toPeriodDTO(s.Period),
			Summary:  s.Summary,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPayrollPeriod resolves a period (?user=, ?date= or ?month=).
func (h *Handler) GetPayrollPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.periodFromQuery(r, timeclock.UserID(r.URL.Query().Get("user")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// =============================================================================
// EDITS
// =============================================================================

// EditEvent replaces one event with an admin-authored one.
func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	var req EditEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	typ, err := timeclock.ParseEventType(req.EventType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	at, err := time.Parse(time.RFC3339, req.EventTime)
	if err != nil {
		h.writeError(w, r, badRequest("event_time must be RFC 3339"))
		return
	}

	ev, err := h.Engine.EditEvent(r.Context(), timeclock.EditEventRequest{
		Actor:     actor(r),
		EventID:   timeclock.EventID(chi.URLParam(r, "id")),
		Type:      typ,
		At:        at,
		Note:      req.Note,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// EditDay patches one day's punches.
func (h *Handler) EditDay(w http.ResponseWriter, r *http.Request) {
	user := timeclock.UserID(chi.URLParam(r, "id"))
	d, err := timeclock.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, r, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: err.Error()})
		return
	}
	var req EditDayRequest
	if !h.decode(w, r, &req) {
		return
	}

	loc := h.Engine.Location()
	at := func(s string) *time.Time {
		if s == "" {
			return nil
		}
		t := d.At(timeclock.MustParseClock(s), loc)
		return &t
	}
	rec, err := h.Engine.EditDay(r.Context(), timeclock.EditDayRequest{
		Actor:  actor(r),
		UserID: user,
		Date:   d,
		In:     at(req.ClockIn),
		Out:    at(req.ClockOut),
		Outing: at(req.Outing),
		Return: at(req.Return),
		Note:   req.Note,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(rec.Timeline()))
}

// GetEdits returns the user's edit audit trail.
func (h *Handler) GetEdits(w http.ResponseWriter, r *http.Request) {
	edits, err := h.Engine.Edits(r.Context(), timeclock.UserID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]AuditDTO, 0, len(edits))
	for _, a := range edits {
		out = append(out, toAuditDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// LEAVE
// =============================================================================

// CreateLeave files a leave request for the user in the path.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	typ, err := timeclock.ParseLeaveType(req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := timeclock.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, r, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: err.Error()})
		return
	}

	lr, err := h.Engine.CreateLeave(r.Context(), timeclock.LeaveInput{
		UserID: timeclock.UserID(chi.URLParam(r, "id")),
		Date:   d,
		Type:   typ,
		Name:   req.Name,
		Note:   req.Note,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(lr))
}

// ListLeaves lists leave requests, optionally for ?user=.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Engine.ListLeaves(r.Context(), timeclock.UserID(r.URL.Query().Get("user")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := timeclock.LeaveStatus(strings.ToUpper(r.URL.Query().Get("status")))
	out := make([]LeaveDTO, 0, len(reqs))
	for _, lr := range reqs {
		if status != "" && lr.Status != status {
			continue
		}
		out = append(out, toLeaveDTO(lr))
	}
	writeJSON(w, http.StatusOK, out)
}

// ApproveLeave approves a request.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, true)
}

// RejectLeave rejects a request.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, false)
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request, approve bool) {
	lr, err := h.Engine.DecideLeave(r.Context(), timeclock.LeaveID(chi.URLParam(r, "id")), actor(r), approve)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(lr))
}

// =============================================================================
// SETTINGS & HOLIDAYS
// =============================================================================

// GetSettings returns the company settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Engine.Settings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(s))
}

// UpdateSettings applies a partial settings patch.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, badRequest(err.Error()))
		return
	}
	patch, err := h.SettingsFactory.ParsePatch(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.Engine.UpdateSettings(r.Context(), actor(r), patch.Apply)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(s))
}

// ListHolidays returns the holidays of a period.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	p, err := h.periodFromQuery(r, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hs, err := h.Engine.Holidays(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]HolidayDTO, 0, len(hs))
	for _, hd := range hs {
		out = append(out, toHolidayDTO(hd))
	}
	writeJSON(w, http.StatusOK, out)
}

// RefreshHolidays forces a holiday cache refresh.
func (h *Handler) RefreshHolidays(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RefreshHolidays(r.Context(), true); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.Engine.Settings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"holiday_cache_updated_at": formatTime(s.HolidayCacheUpdatedAt),
	})
}

// =============================================================================
// USERS
// =============================================================================

// ListUsers returns the user directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Engine.Users(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpsertUser creates or replaces a user.
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req UpsertUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	u, err := h.Engine.UpsertUser(r.Context(), timeclock.User{
		ID:         timeclock.UserID(req.ID),
		Name:       req.Name,
		Email:      req.Email,
		ClosingDay: req.ClosingDay,
		Active:     active,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable", Details: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// periodFromQuery resolves ?month=, ?from=&to= or ?date= into a period.
func (h *Handler) periodFromQuery(r *http.Request, user timeclock.UserID) (timeclock.Period, error) {
	q := r.URL.Query()
	if m := q.Get("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			return timeclock.Period{}, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: "month must be YYYY-MM"}
		}
		return h.Engine.PayrollPeriodForMonth(r.Context(), user, t.Year(), t.Month())
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := timeclock.ParseDate(q.Get("from"))
		if err != nil {
			return timeclock.Period{}, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: "from: " + err.Error()}
		}
		to, err := timeclock.ParseDate(q.Get("to"))
		if err != nil {
			return timeclock.Period{}, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: "to: " + err.Error()}
		}
		if to.Before(from) {
			return timeclock.Period{}, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: "to is before from"}
		}
		if timeclock.DaysBetween(from, to)+1 > maxRangeDays {
			return timeclock.Period{}, &timeclock.ValidationError{
				Reason: timeclock.ReasonInvalidDate,
				Detail: fmt.Sprintf("range longer than %d days", maxRangeDays),
			}
		}
		return timeclock.Period{Start: from, End: to}, nil
	}
	anchor, err := h.dateParam(r, "date")
	if err != nil {
		return timeclock.Period{}, err
	}
	return h.Engine.PayrollPeriod(r.Context(), user, anchor)
}

// dateParam parses a YYYY-MM-DD query parameter, defaulting to today.
func (h *Handler) dateParam(r *http.Request, name string) (timeclock.Date, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return h.Engine.Today(), nil
	}
	d, err := timeclock.ParseDate(s)
	if err != nil {
		return timeclock.Date{}, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidDate, Detail: name + ": " + err.Error()}
	}
	return d, nil
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, badRequest("invalid request body: "+err.Error()))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, badRequest(err.Error()))
		return false
	}
	return true
}

func readBody(r *http.Request) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return raw, nil
}

func badRequest(detail string) error {
	return &timeclock.ValidationError{Reason: "bad_request", Detail: detail}
}

func actor(r *http.Request) timeclock.UserID {
	return timeclock.UserID(strings.TrimSpace(r.Header.Get(ActorHeader)))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, timeclock.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, timeclock.ErrValidation):
		return http.StatusBadRequest
	case timeclock.IsNotFound(err):
		return http.StatusNotFound
	case timeclock.IsStorageError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: http.StatusText(status), Details: err.Error()}
	if reason, ok := timeclock.ReasonOf(err); ok {
		resp.Reason = string(reason)
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		// Storage internals stay in the log.
		resp.Details = ""
	}
	writeJSON(w, status, resp)
}
