package timeclock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXPORT ROWS
// =============================================================================

// Notes written in place of the day's own note.
const (
	NotePaidLeave              = "Paid leave"
	NoteSpecialLeave           = "Special leave"
	NoteCompanyDesignatedLeave = "Company designated paid leave"
	NoteNotEntered             = "Not entered"
)

// ExportRow is one day of a payroll export. Formatting (CSV, spreadsheet)
// is left to the caller.
type ExportRow struct {
	UserName       string
	Date           Date
	Weekday        string
	ClockIn        string // HH:MM, empty when absent
	Outing         string
	Return         string
	ClockOut       string
	WorkedHours    decimal.Decimal
	OvertimeHours  decimal.Decimal
	Classification Classification
	Note           string
	Edited         bool
}

// ExportRows returns the user's classified days of p in export shape.
func (e *Engine) ExportRows(ctx context.Context, user UserID, p Period) ([]ExportRow, error) {
	if err := e.RefreshHolidays(ctx, false); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	users, err := e.usersLocked(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := findUser(users, user)
	if !ok {
		return nil, ErrUserNotFound
	}
	days, _, err := e.dailyRecordsLocked(ctx, user, p)
	if err != nil {
		return nil, err
	}

	out := make([]ExportRow, 0, len(days))
	for _, d := range days {
		out = append(out, ExportRow{
			UserName:       u.DisplayName(),
			Date:           d.Date,
			Weekday:        d.Weekday.String()[:3],
			ClockIn:        e.hhmm(d.ClockIn),
			Outing:         e.hhmm(d.Outing),
			Return:         e.hhmm(d.Return),
			ClockOut:       e.hhmm(d.ClockOut),
			WorkedHours:    Hours(d.WorkedMinutes),
			OvertimeHours:  Hours(d.OvertimeMinutes),
			Classification: d.Classification,
			Note:           exportNote(d),
			Edited:         d.IsEdited,
		})
	}
	return out, nil
}

func exportNote(d DayRow) string {
	if d.Leave != nil {
		switch d.Leave.Type {
		case LeavePaid:
			return NotePaidLeave
		case LeaveSpecial:
			if d.Leave.Name != "" {
				return d.Leave.Name
			}
			return NoteSpecialLeave
		case LeaveCompanyDesignated:
			return NoteCompanyDesignatedLeave
		}
		return d.Note
	}
	switch d.Classification {
	case ClassCompanyDesignatedPaid:
		return NoteCompanyDesignatedLeave
	case ClassMissing:
		return NoteNotEntered
	}
	return d.Note
}

func (e *Engine) hhmm(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return ClockOf(t, e.loc).String()
}

var sixty = decimal.NewFromInt(60)

// Hours converts minutes to hours rounded to 2 decimals.
func Hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2)
}
