/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain types from the external API contract: times are
  rendered as RFC 3339 in the company zone, dates as YYYY-MM-DD and clock
  values as HH:MM.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags, checked by decode()
  in handlers.go with the validator shared with the settings factory.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/settings.go: SettingsJSON / SettingsPatch
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ClockRequest is the optional body of a clock action.
type ClockRequest struct {
	Note       string `json:"note" validate:"max=500"`
	ClientTime string `json:"client_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// EditEventRequest replaces one event.
type EditEventRequest struct {
	EventType string `json:"event_type" validate:"required"`
	EventTime string `json:"event_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Note      string `json:"note" validate:"max=500"`
}

// EditDayRequest patches one day. Times are HH:MM on the day in the path;
// omitted fields are left alone.
type EditDayRequest struct {
	ClockIn  string `json:"clock_in" validate:"omitempty,hhmm"`
	ClockOut string `json:"clock_out" validate:"omitempty,hhmm"`
	Outing   string `json:"outing" validate:"omitempty,hhmm"`
	Return   string `json:"return" validate:"omitempty,hhmm"`
	Note     string `json:"note" validate:"max=500"`
}

// CreateLeaveRequest files a leave request for the user in the path.
type CreateLeaveRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Type string `json:"type" validate:"required"`
	Name string `json:"name" validate:"max=100"`
	Note string `json:"note" validate:"max=500"`
}

// UpsertUserRequest creates or replaces a user.
type UpsertUserRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Name       string `json:"name" validate:"max=200"`
	Email      string `json:"email" validate:"omitempty,email"`
	ClosingDay int    `json:"closing_day" validate:"min=0,max=31"`
	Active     *bool  `json:"active"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EventDTO represents a clock event.
type EventDTO struct {
	ID           string `json:"event_id"`
	UserID       string `json:"user_id"`
	Type         string `json:"event_type"`
	Time         string `json:"event_time"`
	ClientTime   string `json:"client_time,omitempty"`
	Source       string `json:"source"`
	Note         string `json:"note,omitempty"`
	IsEdited     bool   `json:"is_edited"`
	EditedFromID string `json:"edited_from_event_id,omitempty"`
	EditedBy     string `json:"edited_by_user_id,omitempty"`
	EditedAt     string `json:"edited_at,omitempty"`
}

// ActionDTO is one button of the punch screen.
type ActionDTO struct {
	Action   string `json:"action"`
	Disabled bool   `json:"disabled"`
}

// StateDTO is the punch screen for today.
type StateDTO struct {
	UserID    string     `json:"user_id"`
	Date      string     `json:"date"`
	State     string     `json:"state"`
	ClockIn   string     `json:"clock_in,omitempty"`
	Outing    string     `json:"outing,omitempty"`
	Return    string     `json:"return,omitempty"`
	ClockOut  string     `json:"clock_out,omitempty"`
	Primary   ActionDTO  `json:"primary"`
	Secondary ActionDTO  `json:"secondary"`
	Events    []EventDTO `json:"events"`
}

// DayRowDTO is one classified day.
type DayRowDTO struct {
	Date            string   `json:"date"`
	Weekday         string   `json:"weekday"`
	ClockIn         string   `json:"clock_in,omitempty"`
	Outing          string   `json:"outing,omitempty"`
	Return          string   `json:"return,omitempty"`
	ClockOut        string   `json:"clock_out,omitempty"`
	BreakMinutes    int      `json:"break_minutes"`
	WorkedMinutes   int      `json:"worked_minutes"`
	OvertimeMinutes int      `json:"overtime_minutes"`
	Late            bool     `json:"late"`
	EarlyLeave      bool     `json:"early_leave"`
	Classification  string   `json:"classification"`
	Flags           []string `json:"flags"`
	Note            string   `json:"note,omitempty"`
	IsEdited        bool     `json:"is_edited"`
	LeaveID         string   `json:"leave_id,omitempty"`
	HolidayName     string   `json:"holiday_name,omitempty"`
}

// PeriodDTO is a payroll period.
type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// RecordsDTO is a period's classified days and totals.
type RecordsDTO struct {
	UserID  string            `json:"user_id"`
	Period  PeriodDTO         `json:"period"`
	Days    []DayRowDTO       `json:"days"`
	Summary timeclock.Summary `json:"summary"`
}

// SegmentDTO is one visual segment of a day.
type SegmentDTO struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Kind     string          `json:"kind"`
	StartPct decimal.Decimal `json:"start_pct"`
	WidthPct decimal.Decimal `json:"width_pct"`
}

// TimelineDTO is the split of one day.
type TimelineDTO struct {
	UserID          string       `json:"user_id"`
	Date            string       `json:"date"`
	State           string       `json:"state"`
	Segments        []SegmentDTO `json:"segments"`
	WorkedMinutes   int          `json:"worked_minutes"`
	OvertimeMinutes int          `json:"overtime_minutes"`
	BreakMinutes    int          `json:"break_minutes"`
}

// ExportRowDTO is one line of a payroll export.
type ExportRowDTO struct {
	UserName       string          `json:"user_name"`
	Date           string          `json:"date"`
	Weekday        string          `json:"weekday"`
	ClockIn        string          `json:"clock_in"`
	Outing         string          `json:"outing"`
	Return         string          `json:"return"`
	ClockOut       string          `json:"clock_out"`
	WorkedHours    decimal.Decimal `json:"worked_hours"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	Classification string          `json:"classification"`
	Note           string          `json:"note"`
	Edited         bool            `json:"edited"`
}

// LeaveDTO represents a leave request.
type LeaveDTO struct {
	ID          string `json:"request_id"`
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Note        string `json:"note,omitempty"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
	DecidedAt   string `json:"decided_at,omitempty"`
	DecidedBy   string `json:"decided_by,omitempty"`
}

// HolidayDTO represents a holiday.
type HolidayDTO struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// UserDTO represents a user.
type UserDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ClosingDay int    `json:"closing_day,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// UserSummaryDTO is one user's totals for a period.
type UserSummaryDTO struct {
	UserID   string            `json:"user_id"`
	UserName string            `json:"user_name"`
	Period   PeriodDTO         `json:"period"`
	Summary  timeclock.Summary `json:"summary"`
}

// AuditDTO is one edit audit entry.
type AuditDTO struct {
	ID       string                   `json:"edit_id"`
	EventID  string                   `json:"event_id,omitempty"`
	UserID   string                   `json:"user_id"`
	EditedBy string                   `json:"edited_by"`
	EditedAt string                   `json:"edited_at"`
	Before   *timeclock.EventSnapshot `json:"before,omitempty"`
	After    timeclock.EventSnapshot  `json:"after"`
	Reason   string                   `json:"reason,omitempty"`
}

// DailySummaryDTO is a cached per-day total.
type DailySummaryDTO struct {
	Date            string `json:"date"`
	ClockIn         string `json:"clock_in,omitempty"`
	ClockOut        string `json:"clock_out,omitempty"`
	BreakMinutes    int    `json:"break_minutes"`
	WorkMinutes     int    `json:"work_minutes"`
	OvertimeMinutes int    `json:"overtime_minutes"`
	Incomplete      bool   `json:"incomplete"`
}

// MonthlySummaryDTO is a cached per-period total.
type MonthlySummaryDTO struct {
	Period          PeriodDTO `json:"period"`
	WorkMinutes     int       `json:"work_minutes"`
	OvertimeMinutes int       `json:"overtime_minutes"`
}

// LoadScenarioRequest picks a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // attendance, leave or payroll
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatHHMM(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return timeclock.ClockOf(t, loc).String()
}

func toEventDTO(ev timeclock.ClockEvent) EventDTO {
	return EventDTO{
		ID:           string(ev.ID),
		UserID:       string(ev.UserID),
		Type:         string(ev.Type),
		Time:         formatTime(ev.At),
		ClientTime:   formatTime(ev.ClientAt),
		Source:       ev.Source,
		Note:         ev.Note,
		IsEdited:     ev.IsEdited,
		EditedFromID: string(ev.EditedFromID),
		EditedBy:     string(ev.EditedBy),
		EditedAt:     formatTime(ev.EditedAt),
	}
}

func toEventDTOs(events []timeclock.ClockEvent) []EventDTO {
	out := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev))
	}
	return out
}

func toStateDTO(v timeclock.AttendanceView, loc *time.Location) StateDTO {
	punch := func(t timeclock.EventType) string {
		at, _ := v.Record.Punch(t)
		return formatHHMM(at, loc)
	}
	return StateDTO{
		UserID:    string(v.UserID),
		Date:      v.Date.String(),
		State:     string(v.State),
		ClockIn:   punch(timeclock.EventIn),
		Outing:    punch(timeclock.EventOuting),
		Return:    punch(timeclock.EventReturn),
		ClockOut:  punch(timeclock.EventOut),
		Primary:   ActionDTO{Action: string(v.Primary.Action), Disabled: v.Primary.Disabled},
		Secondary: ActionDTO{Action: string(v.Secondary.Action), Disabled: v.Secondary.Disabled},
		Events:    toEventDTOs(v.Record.Timeline()),
	}
}

func toPeriodDTO(p timeclock.Period) PeriodDTO {
	return PeriodDTO{Start: p.Start.String(), End: p.End.String(), Days: p.Len()}
}

func toDayRowDTO(r timeclock.DayRow, loc *time.Location) DayRowDTO {
	dto := DayRowDTO{
		Date:            r.Date.String(),
		Weekday:         r.Weekday.String()[:3],
		ClockIn:         formatHHMM(r.ClockIn, loc),
		Outing:          formatHHMM(r.Outing, loc),
		Return:          formatHHMM(r.Return, loc),
		ClockOut:        formatHHMM(r.ClockOut, loc),
		BreakMinutes:    r.BreakMinutes,
		WorkedMinutes:   r.WorkedMinutes,
		OvertimeMinutes: r.OvertimeMinutes,
		Late:            r.Late,
		EarlyLeave:      r.EarlyLeave,
		Classification:  string(r.Classification),
		Flags:           make([]string, 0, len(r.Flags)),
		Note:            r.Note,
		IsEdited:        r.IsEdited,
	}
	for _, f := range r.Flags {
		dto.Flags = append(dto.Flags, string(f))
	}
	if r.Leave != nil {
		dto.LeaveID = string(r.Leave.ID)
	}
	if r.Holiday != nil {
		dto.HolidayName = r.Holiday.Name
	}
	return dto
}

func toTimelineDTO(t timeclock.DayTimeline) TimelineDTO {
	dto := TimelineDTO{
		UserID:          string(t.UserID),
		Date:            t.Date.String(),
		State:           string(t.State),
		Segments:        make([]SegmentDTO, 0, len(t.Segments)),
		WorkedMinutes:   t.WorkedMinutes,
		OvertimeMinutes: t.OvertimeMinutes,
		BreakMinutes:    t.BreakMinutes,
	}
	for _, s := range t.Segments {
		dto.Segments = append(dto.Segments, SegmentDTO{
			Start:    s.Start.String(),
			End:      s.End.String(),
			Kind:     string(s.Kind),
			StartPct: s.StartPct,
			WidthPct: s.WidthPct,
		})
	}
	return dto
}

func toExportRowDTO(r timeclock.ExportRow) ExportRowDTO {
	return ExportRowDTO{
		UserName:       r.UserName,
		Date:           r.Date.String(),
		Weekday:        r.Weekday,
		ClockIn:        r.ClockIn,
		Outing:         r.Outing,
		Return:         r.Return,
		ClockOut:       r.ClockOut,
		WorkedHours:    r.WorkedHours,
		OvertimeHours:  r.OvertimeHours,
		Classification: string(r.Classification),
		Note:           r.Note,
		Edited:         r.Edited,
	}
}

func toLeaveDTO(l timeclock.LeaveRequest) LeaveDTO {
	return LeaveDTO{
		ID:          string(l.ID),
		UserID:      string(l.UserID),
		Date:        l.Date.String(),
		Type:        string(l.Type),
		Name:        l.Name,
		Note:        l.Note,
		Status:      string(l.Status),
		RequestedAt: formatTime(l.RequestedAt),
		DecidedAt:   formatTime(l.DecidedAt),
		DecidedBy:   string(l.DecidedBy),
	}
}

func toHolidayDTO(h timeclock.Holiday) HolidayDTO {
	return HolidayDTO{Date: h.Date.String(), Name: h.Name, Kind: string(h.Kind), Source: h.Source}
}

func toUserDTO(u timeclock.User) UserDTO {
	return UserDTO{
		ID:         string(u.ID),
		Name:       u.Name,
		Email:      u.Email,
		ClosingDay: u.ClosingDay,
		Active:     u.Active,
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

func toAuditDTO(a timeclock.AuditEntry) AuditDTO {
	return AuditDTO{
		ID:       a.ID,
		EventID:  string(a.EventID),
		UserID:   string(a.UserID),
		EditedBy: string(a.EditedBy),
		EditedAt: formatTime(a.EditedAt),
		Before:   a.Before,
		After:    a.After,
		Reason:   a.Reason,
	}
}
