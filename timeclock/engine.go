/*
engine.go - The timeclock engine and its lock discipline

PURPOSE:
  Engine is the produced interface: punches, edits, leave decisions, settings
  and all derived views. It owns the row gateway, the event log, the holiday
  source and one sync.RWMutex.

LOCKING:
  The gateway has no row-level transactions, only whole-table replace, so
  every read-modify-write runs under the write lock:
    ClockAction, EditEvent, EditDay, CreateLeave, DecideLeave,
    UpdateSettings, UpsertUser, and the holiday table swap.
  ClockAction re-reads the day's events under the same lock it appends with,
  so two concurrent clock-ins cannot both observe NOT_STARTED.
  Read paths take the read lock and never block each other.
  Methods named ...Locked expect the caller to hold e.mu.

USAGE:
  eng := timeclock.New(gw,
      timeclock.WithLocation(loc),
      timeclock.WithHolidaySource(src),
      timeclock.WithLogger(logger),
  )
  if err := eng.Init(ctx); err != nil { ... }
  ev, err := eng.ClockAction(ctx, timeclock.ClockRequest{UserID: "u1", Action: timeclock.EventIn})
*/
package timeclock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Observer receives engine outcomes, typically for metrics.
type Observer interface {
	ClockAction(action EventType, outcome string)
	HolidayRefresh(outcome string)
}

type nopObserver struct{}

func (nopObserver) ClockAction(EventType, string) {}
func (nopObserver) HolidayRefresh(string)         {}

// Clock action outcomes besides reason codes.
const (
	OutcomeAccepted = "accepted"
	OutcomeError    = "error"
)

type Engine struct {
	mu       sync.RWMutex
	rows     rows
	events   *EventLog
	loc      *time.Location
	source   HolidaySource
	refresh  singleflight.Group
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
	newID    func() string

	failMu          sync.Mutex
	holidayFailedAt time.Time
	holidayBackoff  time.Duration
}

type Option func(*Engine)

// WithLocation sets the fixed zone every event time is stored in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithHolidaySource(src HolidaySource) Option {
	return func(e *Engine) { e.source = src }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithHolidayRetryBackoff overrides HolidayRetryBackoff.
func WithHolidayRetryBackoff(d time.Duration) Option {
	return func(e *Engine) { e.holidayBackoff = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces uuid generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// DefaultLocation is Asia/Tokyo, or a fixed +09:00 zone when the tz database
// is unavailable.
func DefaultLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

func New(gw Gateway, opts ...Option) *Engine {
	e := &Engine{
		rows:     rows{gw: gw},
		loc:      DefaultLocation(),
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,

		holidayBackoff: HolidayRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.events = &EventLog{rows: e.rows, loc: e.loc, newID: e.newID}
	return e
}

// Location returns the engine's fixed zone.
func (e *Engine) Location() *time.Location { return e.loc }

// Today returns the current date in the engine's zone.
func (e *Engine) Today() Date { return DateIn(e.now(), e.loc) }

// Init seeds the Settings table with defaults when it is empty.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, err := e.rows.read(ctx, TableSettings)
	if err != nil {
		return err
	}
	if len(rs) > 0 {
		return nil
	}
	e.logger.Info("seeding default settings")
	return e.rows.append(ctx, TableSettings, encodeSettings(DefaultSettings(), e.loc))
}

// =============================================================================
// PUNCHES
// =============================================================================

// ClockRequest is one punch from an employee.
type ClockRequest struct {
	UserID    UserID
	Action    EventType
	Note      string
	IP        string
	UserAgent string
	ClientAt  time.Time
}

// ClockAction validates the punch against today's state and appends it.
// Rejections are *TransitionError with one of the Reason codes.
func (e *Engine) ClockAction(ctx context.Context, req ClockRequest) (ClockEvent, error) {
	if req.UserID == "" {
		return ClockEvent{}, &ValidationError{Reason: ReasonInvalidUser, Detail: "user required"}
	}
	if !req.Action.Valid() {
		e.observer.ClockAction(req.Action, string(ReasonInvalidAction))
		return ClockEvent{}, &TransitionError{Reason: ReasonInvalidAction, Action: req.Action}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().In(e.loc)
	today := DateOf(now)

	settings, err := e.settingsLocked(ctx)
	if err != nil {
		e.observer.ClockAction(req.Action, OutcomeError)
		return ClockEvent{}, err
	}
	dayEvents, err := e.events.Day(ctx, req.UserID, today)
	if err != nil {
		e.observer.ClockAction(req.Action, OutcomeError)
		return ClockEvent{}, err
	}
	state := StateOf(dayEvents)
	if _, err := Transition(state, req.Action, settings.AllowMultipleClockIn); err != nil {
		reason, _ := ReasonOf(err)
		e.observer.ClockAction(req.Action, string(reason))
		e.logger.Debug("clock action rejected",
			zap.String("user_id", string(req.UserID)),
			zap.String("action", string(req.Action)),
			zap.String("state", string(state)),
			zap.String("reason", string(reason)))
		return ClockEvent{}, err
	}

	clientAt := req.ClientAt
	if clientAt.IsZero() {
		clientAt = now
	}
	ev, err := e.events.Append(ctx, ClockEvent{
		UserID:    req.UserID,
		Type:      req.Action,
		At:        now,
		ClientAt:  clientAt,
		Note:      req.Note,
		Source:    SourceWeb,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	})
	if err != nil {
		e.observer.ClockAction(req.Action, OutcomeError)
		return ClockEvent{}, err
	}
	e.observer.ClockAction(req.Action, OutcomeAccepted)
	e.logger.Info("clock action",
		zap.String("user_id", string(req.UserID)),
		zap.String("action", string(req.Action)),
		zap.String("event_id", string(ev.ID)))

	e.syncSummariesLocked(ctx, req.UserID, today)
	return ev, nil
}

// AttendanceState returns today's state for the user and the actions a punch
// screen should offer next.
func (e *Engine) AttendanceState(ctx context.Context, user UserID) (AttendanceView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	today := e.Today()
	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return AttendanceView{}, err
	}
	events, err := e.events.Day(ctx, user, today)
	if err != nil {
		return AttendanceView{}, err
	}
	return NewAttendanceView(BuildDayRecord(user, today, events), settings.AllowMultipleClockIn), nil
}

// RecentEvents returns the user's newest events, newest first.
func (e *Engine) RecentEvents(ctx context.Context, user UserID, limit int) ([]ClockEvent, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.events.Recent(ctx, user, limit)
}

// DayRecord returns the latest-wins view of one day.
func (e *Engine) DayRecord(ctx context.Context, user UserID, d Date) (DayRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	events, err := e.events.Day(ctx, user, d)
	if err != nil {
		return DayRecord{}, err
	}
	return BuildDayRecord(user, d, events), nil
}

// =============================================================================
// EDITS
// =============================================================================

type EditEventRequest struct {
	Actor     UserID
	EventID   EventID
	Type      EventType
	At        time.Time
	Note      string
	IP        string
	UserAgent string
}

// EditEvent supersedes one event with a new one carrying the edited type and
// time. The original stays in the log; an audit row records before/after.
func (e *Engine) EditEvent(ctx context.Context, req EditEventRequest) (ClockEvent, error) {
	if !req.Type.Valid() {
		return ClockEvent{}, &ValidationError{Reason: ReasonInvalidEventType, Detail: string(req.Type)}
	}
	if req.At.IsZero() {
		return ClockEvent{}, &ValidationError{Reason: ReasonInvalidDate, Detail: "event time required"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	orig, err := e.events.ByID(ctx, req.EventID)
	if err != nil {
		return ClockEvent{}, err
	}
	now := e.now().In(e.loc)
	at := req.At.In(e.loc)
	day := DateOf(at)

	dayEvents, err := e.events.Day(ctx, orig.UserID, day)
	if err != nil {
		return ClockEvent{}, err
	}
	edited := ClockEvent{
		UserID:       orig.UserID,
		Type:         req.Type,
		At:           at,
		ClientAt:     at,
		Note:         req.Note,
		Source:       SourceAdmin,
		IP:           req.IP,
		UserAgent:    req.UserAgent,
		IsEdited:     true,
		EditedFromID: orig.ID,
		EditedBy:     req.Actor,
		EditedAt:     now,
	}
	if err := validateOrdering(LatestPerType(append(slices.Clone(dayEvents), edited))); err != nil {
		return ClockEvent{}, err
	}

	stored, err := e.events.Append(ctx, edited)
	if err != nil {
		return ClockEvent{}, err
	}
	before := snapshotOf(orig)
	if err := e.appendAuditLocked(ctx, AuditEntry{
		EventID:  orig.ID,
		UserID:   orig.UserID,
		EditedBy: req.Actor,
		EditedAt: now,
		Before:   &before,
		After:    snapshotOf(stored),
		Reason:   req.Note,
	}); err != nil {
		return ClockEvent{}, err
	}

	e.logger.Info("event edited",
		zap.String("event_id", string(orig.ID)),
		zap.String("new_event_id", string(stored.ID)),
		zap.String("edited_by", string(req.Actor)))

	e.syncSummariesLocked(ctx, orig.UserID, day)
	if origDay := DateIn(orig.At, e.loc); origDay != day {
		e.syncSummariesLocked(ctx, orig.UserID, origDay)
	}
	return stored, nil
}

// EditDayRequest patches one day's punches. Nil fields are left alone.
type EditDayRequest struct {
	Actor  UserID
	UserID UserID
	Date   Date
	In     *time.Time
	Out    *time.Time
	Outing *time.Time
	Return *time.Time
	Note   string
}

// EditDay appends an edited event for every punch whose value changes. A
// note with no punch change is attached by re-issuing the day's latest punch
// with the note. The resulting day record is returned.
func (e *Engine) EditDay(ctx context.Context, req EditDayRequest) (DayRecord, error) {
	if req.UserID == "" {
		return DayRecord{}, &ValidationError{Reason: ReasonInvalidUser, Detail: "user required"}
	}
	if req.Date.IsZero() {
		return DayRecord{}, &ValidationError{Reason: ReasonInvalidDate, Detail: "date required"}
	}
	if err := ValidateDayPatch(req.In, req.Out, req.Outing, req.Return); err != nil {
		return DayRecord{}, err
	}
	patch := []struct {
		typ EventType
		at  *time.Time
	}{
		{EventIn, req.In},
		{EventOut, req.Out},
		{EventOuting, req.Outing},
		{EventReturn, req.Return},
	}
	for _, p := range patch {
		if p.at != nil && DateIn(*p.at, e.loc) != req.Date {
			return DayRecord{}, &ValidationError{
				Reason: ReasonInvalidDate,
				Detail: string(p.typ) + " is not on " + req.Date.String(),
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().In(e.loc)
	events, err := e.events.Day(ctx, req.UserID, req.Date)
	if err != nil {
		return DayRecord{}, err
	}
	latest := LatestPerType(events)

	var pending []ClockEvent
	for _, p := range patch {
		if p.at == nil {
			continue
		}
		old, had := latest[p.typ]
		if had && old.At.Equal(*p.at) {
			continue
		}
		pending = append(pending, ClockEvent{
			UserID:       req.UserID,
			Type:         p.typ,
			At:           p.at.In(e.loc),
			ClientAt:     p.at.In(e.loc),
			Note:         req.Note,
			Source:       SourceAdmin,
			IsEdited:     true,
			EditedFromID: old.ID,
			EditedBy:     req.Actor,
			EditedAt:     now,
		})
	}

	if len(pending) == 0 && req.Note != "" && len(latest) > 0 {
		timeline := BuildDayRecord(req.UserID, req.Date, events).Timeline()
		last := timeline[len(timeline)-1]
		pending = append(pending, ClockEvent{
			UserID:       req.UserID,
			Type:         last.Type,
			At:           last.At,
			ClientAt:     last.At,
			Note:         req.Note,
			Source:       SourceAdmin,
			IsEdited:     true,
			EditedFromID: last.ID,
			EditedBy:     req.Actor,
			EditedAt:     now,
		})
	}
	if len(pending) == 0 {
		return BuildDayRecord(req.UserID, req.Date, events), nil
	}

	if err := validateOrdering(LatestPerType(append(slices.Clone(events), pending...))); err != nil {
		return DayRecord{}, err
	}

	for _, ev := range pending {
		stored, err := e.events.Append(ctx, ev)
		if err != nil {
			return DayRecord{}, err
		}
		events = append(events, stored)

		entry := AuditEntry{
			EventID:  stored.EditedFromID,
			UserID:   req.UserID,
			EditedBy: req.Actor,
			EditedAt: now,
			After:    snapshotOf(stored),
			Reason:   req.Note,
		}
		if old, ok := latest[stored.Type]; ok && old.ID == stored.EditedFromID {
			before := snapshotOf(old)
			entry.Before = &before
		}
		// Events already appended stay. Their rows still carry the edit
		// lineage, so the log names the ones without an audit row.
		if err := e.appendAuditLocked(ctx, entry); err != nil {
			e.logger.Error("edited event has no audit row",
				zap.String("event_id", string(stored.ID)),
				zap.String("user_id", string(req.UserID)),
				zap.Stringer("date", req.Date),
				zap.Error(err))
			return DayRecord{}, err
		}
	}

	e.logger.Info("day edited",
		zap.String("user_id", string(req.UserID)),
		zap.Stringer("date", req.Date),
		zap.Int("events", len(pending)),
		zap.String("edited_by", string(req.Actor)))

	e.syncSummariesLocked(ctx, req.UserID, req.Date)
	return BuildDayRecord(req.UserID, req.Date, events), nil
}

func (e *Engine) appendAuditLocked(ctx context.Context, a AuditEntry) error {
	a.ID = e.newID()
	return e.rows.append(ctx, TableEdits, encodeAudit(a, e.loc))
}

// Edits returns the audit trail for the user's timeline, oldest first.
func (e *Engine) Edits(ctx context.Context, user UserID) ([]AuditEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rs, err := e.rows.read(ctx, TableEdits)
	if err != nil {
		return nil, err
	}
	var out []AuditEntry
	for _, r := range rs {
		a := decodeAudit(r, e.loc)
		if user == "" || a.UserID == user {
			out = append(out, a)
		}
	}
	return out, nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// DailyRecords classifies every day of p for the user. The holiday cache is
// refreshed first if stale.
func (e *Engine) DailyRecords(ctx context.Context, user UserID, p Period) ([]DayRow, Summary, error) {
	if err := e.RefreshHolidays(ctx, false); err != nil {
		return nil, Summary{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dailyRecordsLocked(ctx, user, p)
}

func (e *Engine) dailyRecordsLocked(ctx context.Context, user UserID, p Period) ([]DayRow, Summary, error) {
	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	holidays, err := e.holidaysLocked(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	leaves, err := e.leavesLocked(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	events, err := e.events.Range(ctx, user, p.Start, p.End)
	if err != nil {
		return nil, Summary{}, err
	}
	rows, summary := Classify(ClassifyInput{
		UserID:   user,
		Period:   p,
		Events:   events,
		Leaves:   ApprovedLeaveMap(leaves, user, p),
		Holidays: HolidayMap(holidays, p),
		Settings: settings,
		Today:    e.Today(),
		Location: e.loc,
	})
	return rows, summary, nil
}

// DayTimeline splits one day into display segments. An open day is extended
// to now.
func (e *Engine) DayTimeline(ctx context.Context, user UserID, d Date) (DayTimeline, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return DayTimeline{}, err
	}
	events, err := e.events.Day(ctx, user, d)
	if err != nil {
		return DayTimeline{}, err
	}
	tl := SplitDay(SplitInput{
		Date:                d,
		Events:              events,
		Now:                 e.now(),
		Location:            e.loc,
		RequiredWorkMinutes: settings.RequiredWorkMinutes,
		Night:               settings.NightWindow(),
	})
	tl.UserID = user
	return tl, nil
}

// PayrollPeriod returns the period containing anchor for the user's closing
// day. A zero anchor means today; an empty or unknown user uses the company
// closing day.
func (e *Engine) PayrollPeriod(ctx context.Context, user UserID, anchor Date) (Period, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	closing, err := e.closingDayLocked(ctx, user)
	if err != nil {
		return Period{}, err
	}
	if anchor.IsZero() {
		anchor = e.Today()
	}
	return PeriodFor(anchor, closing), nil
}

// PayrollPeriodForMonth returns the period ending in the given month.
func (e *Engine) PayrollPeriodForMonth(ctx context.Context, user UserID, year int, month time.Month) (Period, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	closing, err := e.closingDayLocked(ctx, user)
	if err != nil {
		return Period{}, err
	}
	return PeriodForMonth(year, month, closing), nil
}

func (e *Engine) closingDayLocked(ctx context.Context, user UserID) (int, error) {
	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return 0, err
	}
	if user == "" {
		return settings.ClosingDay, nil
	}
	users, err := e.usersLocked(ctx)
	if err != nil {
		return 0, err
	}
	u, _ := findUser(users, user)
	return u.ClosingDayFor(settings), nil
}

// UserSummary is one user's period summary.
type UserSummary struct {
	User    User
	Period  Period
	Summary Summary
}

// SummaryForPeriod summarizes p for every active user, or only for user when
// it is set.
func (e *Engine) SummaryForPeriod(ctx context.Context, user UserID, p Period) ([]UserSummary, error) {
	if err := e.RefreshHolidays(ctx, false); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	users, err := e.usersLocked(ctx)
	if err != nil {
		return nil, err
	}
	var out []UserSummary
	for _, u := range users {
		if !u.Active || (user != "" && u.ID != user) {
			continue
		}
		_, summary, err := e.dailyRecordsLocked(ctx, u.ID, p)
		if err != nil {
			return nil, err
		}
		out = append(out, UserSummary{User: u, Period: p, Summary: summary})
	}
	return out, nil
}

// =============================================================================
// LEAVE
// =============================================================================

// CreateLeave files a leave request. Under auto approval it is approved
// immediately.
func (e *Engine) CreateLeave(ctx context.Context, in LeaveInput) (LeaveRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	req, err := newLeaveRequest(LeaveID(e.newID()), in, settings.LeaveApproval, e.now().In(e.loc))
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := e.rows.append(ctx, TableLeaveRequests, encodeLeave(req, e.loc)); err != nil {
		return LeaveRequest{}, err
	}
	e.logger.Info("leave requested",
		zap.String("leave_id", string(req.ID)),
		zap.String("user_id", string(req.UserID)),
		zap.Stringer("date", req.Date),
		zap.String("type", string(req.Type)),
		zap.String("status", string(req.Status)))

	if req.Status == LeaveApproved {
		e.syncSummariesLocked(ctx, req.UserID, req.Date)
	}
	return req, nil
}

// DecideLeave approves or rejects a request. Deciding an already decided
// request is allowed and overwrites the previous decision.
func (e *Engine) DecideLeave(ctx context.Context, id LeaveID, approver UserID, approve bool) (LeaveRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, err := e.rows.read(ctx, TableLeaveRequests)
	if err != nil {
		return LeaveRequest{}, err
	}
	decided, err := decide(e.decodeLeaves(rs), id, approver, approve, e.now().In(e.loc))
	if err != nil {
		return LeaveRequest{}, err
	}
	rs = patchRow(rs, "leave_id", string(id), encodeDecision(decided, e.loc))
	if err := e.rows.replace(ctx, TableLeaveRequests, rs); err != nil {
		return LeaveRequest{}, err
	}
	e.logger.Info("leave decided",
		zap.String("leave_id", string(id)),
		zap.String("status", string(decided.Status)),
		zap.String("decided_by", string(approver)))

	e.syncSummariesLocked(ctx, decided.UserID, decided.Date)
	return decided, nil
}

// ListLeaves returns requests ordered by leave date, for one user or all.
func (e *Engine) ListLeaves(ctx context.Context, user UserID) ([]LeaveRequest, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	leaves, err := e.leavesLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := leaves[:0]
	for _, l := range leaves {
		if user == "" || l.UserID == user {
			out = append(out, l)
		}
	}
	SortLeaves(out)
	return out, nil
}

func (e *Engine) leavesLocked(ctx context.Context) ([]LeaveRequest, error) {
	rs, err := e.rows.read(ctx, TableLeaveRequests)
	if err != nil {
		return nil, err
	}
	return e.decodeLeaves(rs), nil
}

// decodeLeaves skips rows without a readable leave date.
func (e *Engine) decodeLeaves(rs []Row) []LeaveRequest {
	out := make([]LeaveRequest, 0, len(rs))
	for _, r := range rs {
		if l, ok := decodeLeave(r, e.loc); ok {
			out = append(out, l)
		}
	}
	return out
}

// =============================================================================
// SETTINGS
// =============================================================================

func (e *Engine) Settings(ctx context.Context) (Settings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settingsLocked(ctx)
}

// UpdateSettings applies fn to the current settings under the write lock and
// stores the normalized result. Changing company holidays marks the holiday
// cache stale.
func (e *Engine) UpdateSettings(ctx context.Context, actor UserID, fn func(Settings) (Settings, error)) (Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.settingsLocked(ctx)
	if err != nil {
		return Settings{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return Settings{}, err
	}
	next = next.Normalize()
	if !slices.Equal(cur.CompanyHolidays, next.CompanyHolidays) {
		next.HolidayCacheUpdatedAt = time.Time{}
		e.setHolidayFailure(time.Time{})
	}
	next.UpdatedBy = actor
	next.UpdatedAt = e.now().In(e.loc)
	if err := e.saveSettingsLocked(ctx, next); err != nil {
		return Settings{}, err
	}
	e.logger.Info("settings updated", zap.String("updated_by", string(actor)))
	return next, nil
}

func (e *Engine) settingsLocked(ctx context.Context) (Settings, error) {
	rs, err := e.rows.read(ctx, TableSettings)
	if err != nil {
		return Settings{}, err
	}
	for _, r := range rs {
		if id := r["settings_id"]; id == "" || id == SettingsID {
			return decodeSettings(r, e.loc), nil
		}
	}
	return DefaultSettings(), nil
}

// saveSettingsLocked rewrites the settings row's known columns and keeps any
// other columns and rows in the table.
func (e *Engine) saveSettingsLocked(ctx context.Context, s Settings) error {
	rs, err := e.rows.read(ctx, TableSettings)
	if err != nil {
		return err
	}
	row := encodeSettings(s, e.loc)
	for i, r := range rs {
		if id := r["settings_id"]; id == "" || id == SettingsID {
			patched := r.Clone()
			for k, v := range row {
				patched[k] = v
			}
			rs[i] = patched
			return e.rows.replace(ctx, TableSettings, rs)
		}
	}
	return e.rows.replace(ctx, TableSettings, append(rs, row))
}

// =============================================================================
// USERS
// =============================================================================

func (e *Engine) Users(ctx context.Context) ([]User, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.usersLocked(ctx)
}

func (e *Engine) User(ctx context.Context, id UserID) (User, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	users, err := e.usersLocked(ctx)
	if err != nil {
		return User{}, err
	}
	u, ok := findUser(users, id)
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// UpsertUser creates or replaces a user by id.
func (e *Engine) UpsertUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		return User{}, &ValidationError{Reason: ReasonInvalidUser, Detail: "user id required"}
	}
	if u.ClosingDay != 0 {
		u.ClosingDay = NormalizeClosingDay(u.ClosingDay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rs, err := e.rows.read(ctx, TableUsers)
	if err != nil {
		return User{}, err
	}
	_, saved := upsertUser(e.decodeUsers(rs), u, e.now().In(e.loc))
	rs = patchRow(rs, "user_id", string(saved.ID), encodeUser(saved, e.loc))
	if err := e.rows.replace(ctx, TableUsers, rs); err != nil {
		return User{}, err
	}
	return saved, nil
}

func (e *Engine) usersLocked(ctx context.Context) ([]User, error) {
	rs, err := e.rows.read(ctx, TableUsers)
	if err != nil {
		return nil, err
	}
	return e.decodeUsers(rs), nil
}

func (e *Engine) decodeUsers(rs []Row) []User {
	out := make([]User, 0, len(rs))
	for _, r := range rs {
		if u, ok := decodeUser(r, e.loc); ok {
			out = append(out, u)
		}
	}
	return out
}
