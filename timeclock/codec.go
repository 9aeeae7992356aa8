package timeclock

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ROW CODEC - The only place typed values become strings and back
// =============================================================================
//
// Decoding is lenient: a missing or malformed column falls back to its zero
// value (or the settings default). Rows whose key column cannot be parsed are
// skipped by the decoders that return ok=false.

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func parseTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.In(loc)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseClock(s string, def Clock) Clock {
	c, err := ParseClock(s)
	if err != nil {
		return def
	}
	return c
}

func formatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (Date, bool) {
	if strings.TrimSpace(s) == "" {
		return Date{}, false
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// fromJSON decodes s into v, leaving v untouched when s is empty or invalid.
func fromJSON(s string, v any) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return json.Unmarshal([]byte(s), v) == nil
}

// =============================================================================
// EVENTS
// =============================================================================

func encodeEvent(ev ClockEvent, loc *time.Location) Row {
	return Row{
		"event_id":             string(ev.ID),
		"user_id":              string(ev.UserID),
		"event_type":           string(ev.Type),
		"event_time":           formatTime(ev.At, loc),
		"client_time":          formatTime(ev.ClientAt, loc),
		"source":               ev.Source,
		"ip":                   ev.IP,
		"user_agent":           ev.UserAgent,
		"note":                 ev.Note,
		"is_edited":            formatBool(ev.IsEdited),
		"edited_from_event_id": string(ev.EditedFromID),
		"edited_by_user_id":    string(ev.EditedBy),
		"edited_at":            formatTime(ev.EditedAt, loc),
	}
}

// decodeEvent skips rows without a parseable event time.
func decodeEvent(r Row, loc *time.Location) (ClockEvent, bool) {
	at := parseTime(r["event_time"], loc)
	if at.IsZero() {
		return ClockEvent{}, false
	}
	source := r["source"]
	if source == "" {
		source = SourceWeb
	}
	return ClockEvent{
		ID:           EventID(r["event_id"]),
		UserID:       UserID(r["user_id"]),
		Type:         EventType(strings.ToUpper(strings.TrimSpace(r["event_type"]))),
		At:           at,
		ClientAt:     parseTime(r["client_time"], loc),
		Note:         r["note"],
		Source:       source,
		IP:           r["ip"],
		UserAgent:    r["user_agent"],
		IsEdited:     parseBool(r["is_edited"]),
		EditedFromID: EventID(r["edited_from_event_id"]),
		EditedBy:     UserID(r["edited_by_user_id"]),
		EditedAt:     parseTime(r["edited_at"], loc),
	}, true
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func encodeLeave(l LeaveRequest, loc *time.Location) Row {
	return Row{
		"leave_id":           string(l.ID),
		"user_id":            string(l.UserID),
		"leave_date":         formatDate(l.Date),
		"leave_type":         string(l.Type),
		"leave_name":         l.Name,
		"note":               l.Note,
		"status":             string(l.Status),
		"requested_at":       formatTime(l.RequestedAt, loc),
		"decided_at":         formatTime(l.DecidedAt, loc),
		"decided_by_user_id": string(l.DecidedBy),
	}
}

// encodeDecision holds the columns a leave decision changes.
func encodeDecision(l LeaveRequest, loc *time.Location) Row {
	return Row{
		"status":             string(l.Status),
		"decided_at":         formatTime(l.DecidedAt, loc),
		"decided_by_user_id": string(l.DecidedBy),
	}
}

// decodeLeave treats an unknown status as PENDING.
func decodeLeave(r Row, loc *time.Location) (LeaveRequest, bool) {
	d, ok := parseDate(r["leave_date"])
	if !ok {
		return LeaveRequest{}, false
	}
	status := LeaveStatus(strings.ToUpper(strings.TrimSpace(r["status"])))
	switch status {
	case LeavePending, LeaveApproved, LeaveRejected:
	default:
		status = LeavePending
	}
	return LeaveRequest{
		ID:          LeaveID(r["leave_id"]),
		UserID:      UserID(r["user_id"]),
		Date:        d,
		Type:        LeaveType(strings.ToUpper(strings.TrimSpace(r["leave_type"]))),
		Name:        r["leave_name"],
		Note:        r["note"],
		Status:      status,
		RequestedAt: parseTime(r["requested_at"], loc),
		DecidedAt:   parseTime(r["decided_at"], loc),
		DecidedBy:   UserID(r["decided_by_user_id"]),
	}, true
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func encodeHoliday(h Holiday, loc *time.Location) Row {
	return Row{
		"date":       formatDate(h.Date),
		"name":       h.Name,
		"kind":       string(h.Kind),
		"source":     h.Source,
		"year":       strconv.Itoa(h.Date.Year),
		"fetched_at": formatTime(h.FetchedAt, loc),
	}
}

func decodeHoliday(r Row, loc *time.Location) (Holiday, bool) {
	d, ok := parseDate(r["date"])
	if !ok {
		return Holiday{}, false
	}
	kind := HolidayKind(r["kind"])
	if kind == "" {
		kind = HolidayPublic
	}
	return Holiday{
		Date:      d,
		Name:      r["name"],
		Kind:      kind,
		Source:    r["source"],
		FetchedAt: parseTime(r["fetched_at"], loc),
	}, true
}

// =============================================================================
// SETTINGS
// =============================================================================

func encodeSettings(s Settings, loc *time.Location) Row {
	weekdays := make([]int, 0, len(s.WorkingWeekdays))
	for _, wd := range s.WorkingWeekdays {
		weekdays = append(weekdays, int(wd))
	}
	tiers := s.Break.Tiers
	if tiers == nil {
		tiers = []BreakTier{}
	}
	return Row{
		"settings_id":              SettingsID,
		"payroll_cutoff_day":       strconv.Itoa(s.ClosingDay),
		"scheduled_start_time":     s.ScheduledStart.String(),
		"scheduled_end_time":       s.ScheduledEnd.String(),
		"scheduled_work_minutes":   strconv.Itoa(s.ScheduledWorkMinutes),
		"grace_minutes":            strconv.Itoa(s.GraceMinutes),
		"break_policy_type":        string(s.Break.Kind),
		"break_fixed_minutes":      strconv.Itoa(s.Break.FixedMinutes),
		"break_tier_json":          toJSON(tiers),
		"working_weekdays_json":    toJSON(weekdays),
		"paid_leave_approval_mode": string(s.LeaveApproval),
		"special_leave_types_json": toJSON(nonNil(s.SpecialLeaveNames)),
		"company_designated_paid_leave_dates_json": toJSON(nonNil(s.CompanyDesignatedDates)),
		"company_custom_holidays_json":             toJSON(nonNil(s.CompanyHolidays)),
		"holiday_source":                           s.HolidaySource,
		"holiday_cache_updated_at":                 formatTime(s.HolidayCacheUpdatedAt, loc),
		"required_work_minutes":                    strconv.Itoa(s.RequiredWorkMinutes),
		"night_start":                              s.NightStart.String(),
		"night_end":                                s.NightEnd.String(),
		"allow_multiple_clock_in":                  formatBool(s.AllowMultipleClockIn),
		"updated_by_user_id":                       string(s.UpdatedBy),
		"updated_at":                               formatTime(s.UpdatedAt, loc),
	}
}

// decodeSettings overlays whatever the row carries on top of the defaults.
func decodeSettings(r Row, loc *time.Location) Settings {
	s := DefaultSettings()
	s.ClosingDay = parseInt(r["payroll_cutoff_day"], s.ClosingDay)
	s.ScheduledStart = parseClock(r["scheduled_start_time"], s.ScheduledStart)
	s.ScheduledEnd = parseClock(r["scheduled_end_time"], s.ScheduledEnd)
	s.ScheduledWorkMinutes = parseInt(r["scheduled_work_minutes"], s.ScheduledWorkMinutes)
	s.GraceMinutes = parseInt(r["grace_minutes"], s.GraceMinutes)
	if k := r["break_policy_type"]; k != "" {
		s.Break.Kind = BreakPolicyKind(strings.ToLower(k))
	}
	s.Break.FixedMinutes = parseInt(r["break_fixed_minutes"], s.Break.FixedMinutes)

	var tiers []BreakTier
	if fromJSON(r["break_tier_json"], &tiers) {
		s.Break.Tiers = tiers
	}
	var weekdays []int
	if fromJSON(r["working_weekdays_json"], &weekdays) {
		s.WorkingWeekdays = make([]time.Weekday, 0, len(weekdays))
		for _, wd := range weekdays {
			s.WorkingWeekdays = append(s.WorkingWeekdays, time.Weekday(wd))
		}
	}
	if m := r["paid_leave_approval_mode"]; m != "" {
		s.LeaveApproval = ApprovalMode(m)
	}
	var names []string
	if fromJSON(r["special_leave_types_json"], &names) {
		s.SpecialLeaveNames = names
	}
	var designated []Date
	if fromJSON(r["company_designated_paid_leave_dates_json"], &designated) {
		s.CompanyDesignatedDates = designated
	}
	var custom []Date
	if fromJSON(r["company_custom_holidays_json"], &custom) {
		s.CompanyHolidays = custom
	}
	if src := r["holiday_source"]; src != "" {
		s.HolidaySource = src
	}
	s.HolidayCacheUpdatedAt = parseTime(r["holiday_cache_updated_at"], loc)
	s.RequiredWorkMinutes = parseInt(r["required_work_minutes"], s.RequiredWorkMinutes)
	s.NightStart = parseClock(r["night_start"], s.NightStart)
	s.NightEnd = parseClock(r["night_end"], s.NightEnd)
	if v, ok := r["allow_multiple_clock_in"]; ok {
		s.AllowMultipleClockIn = parseBool(v)
	}
	s.UpdatedBy = UserID(r["updated_by_user_id"])
	s.UpdatedAt = parseTime(r["updated_at"], loc)
	return s.Normalize()
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// =============================================================================
// USERS
// =============================================================================

func encodeUser(u User, loc *time.Location) Row {
	closing := ""
	if u.ClosingDay > 0 {
		closing = strconv.Itoa(u.ClosingDay)
	}
	return Row{
		"user_id":     string(u.ID),
		"email":       u.Email,
		"name":        u.Name,
		"closing_day": closing,
		"is_active":   formatBool(u.Active),
		"created_at":  formatTime(u.CreatedAt, loc),
		"updated_at":  formatTime(u.UpdatedAt, loc),
	}
}

func decodeUser(r Row, loc *time.Location) (User, bool) {
	id := strings.TrimSpace(r["user_id"])
	if id == "" {
		return User{}, false
	}
	return User{
		ID:         UserID(id),
		Name:       r["name"],
		Email:      r["email"],
		ClosingDay: parseInt(r["closing_day"], 0),
		Active:     parseBool(r["is_active"]),
		CreatedAt:  parseTime(r["created_at"], loc),
		UpdatedAt:  parseTime(r["updated_at"], loc),
	}, true
}

// =============================================================================
// AUDIT
// =============================================================================

func encodeAudit(a AuditEntry, loc *time.Location) Row {
	before := ""
	if a.Before != nil {
		before = toJSON(a.Before)
	}
	return Row{
		"edit_id":     a.ID,
		"event_id":    string(a.EventID),
		"user_id":     string(a.UserID),
		"edited_at":   formatTime(a.EditedAt, loc),
		"edited_by":   string(a.EditedBy),
		"before_json": before,
		"after_json":  toJSON(a.After),
		"reason":      a.Reason,
	}
}

func decodeAudit(r Row, loc *time.Location) AuditEntry {
	a := AuditEntry{
		ID:       r["edit_id"],
		EventID:  EventID(r["event_id"]),
		UserID:   UserID(r["user_id"]),
		EditedBy: UserID(r["edited_by"]),
		EditedAt: parseTime(r["edited_at"], loc),
		Reason:   r["reason"],
	}
	var before EventSnapshot
	if fromJSON(r["before_json"], &before) {
		a.Before = &before
	}
	fromJSON(r["after_json"], &a.After)
	return a
}
