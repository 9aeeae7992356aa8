package timeclock

import (
	"slices"
	"strings"
	"time"
)

// =============================================================================
// SETTINGS - Company-wide policy
// =============================================================================

type ApprovalMode string

const (
	ApprovalRequireAdmin ApprovalMode = "require_admin"
	ApprovalAuto         ApprovalMode = "auto_approve"
)

// SettingsID keys the single row of the Settings table.
const SettingsID = "default"

// Settings is the policy the classifier and splitter run against. It is
// loaded once per operation and passed down explicitly; nothing reads it
// from package state.
type Settings struct {
	ClosingDay int

	ScheduledStart       Clock
	ScheduledEnd         Clock
	ScheduledWorkMinutes int
	GraceMinutes         int

	Break           BreakPolicy
	WorkingWeekdays []time.Weekday

	LeaveApproval          ApprovalMode
	SpecialLeaveNames      []string
	CompanyDesignatedDates []Date
	CompanyHolidays        []Date

	HolidaySource         string
	HolidayCacheUpdatedAt time.Time

	// Timeline policy
	RequiredWorkMinutes  int
	NightStart           Clock
	NightEnd             Clock
	AllowMultipleClockIn bool

	UpdatedBy UserID
	UpdatedAt time.Time
}

// DefaultSettings returns the policy a fresh store is seeded with.
func DefaultSettings() Settings {
	return Settings{
		ClosingDay:           20,
		ScheduledStart:       NewClock(8, 55),
		ScheduledEnd:         NewClock(17, 55),
		ScheduledWorkMinutes: 480,
		GraceMinutes:         5,
		Break: BreakPolicy{
			Kind:         BreakFixed,
			FixedMinutes: 60,
			Tiers: []BreakTier{
				{MinWorkMinutes: 360, BreakMinutes: 45},
				{MinWorkMinutes: 480, BreakMinutes: 60},
			},
		},
		WorkingWeekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		LeaveApproval:       ApprovalRequireAdmin,
		SpecialLeaveNames:   []string{"bereavement", "special"},
		HolidaySource:       "ics",
		RequiredWorkMinutes: 480,
		NightStart:          NewClock(22, 0),
		NightEnd:            NewClock(5, 0),
	}
}

// Normalize clamps every field into its valid range. Unknown enum values
// fall back to the defaults.
func (s Settings) Normalize() Settings {
	s.ClosingDay = NormalizeClosingDay(s.ClosingDay)
	s.ScheduledStart = clampClock(s.ScheduledStart)
	s.ScheduledEnd = clampClock(s.ScheduledEnd)
	s.ScheduledWorkMinutes = max(0, s.ScheduledWorkMinutes)
	s.GraceMinutes = max(0, s.GraceMinutes)
	s.Break = s.Break.normalize()
	s.RequiredWorkMinutes = max(0, s.RequiredWorkMinutes)
	s.NightStart = clampClock(s.NightStart)
	s.NightEnd = clampClock(s.NightEnd)

	if s.LeaveApproval != ApprovalAuto {
		s.LeaveApproval = ApprovalRequireAdmin
	}

	days := make([]time.Weekday, 0, len(s.WorkingWeekdays))
	for _, wd := range s.WorkingWeekdays {
		if wd >= time.Sunday && wd <= time.Saturday && !slices.Contains(days, wd) {
			days = append(days, wd)
		}
	}
	slices.Sort(days)
	s.WorkingWeekdays = days

	names := make([]string, 0, len(s.SpecialLeaveNames))
	for _, n := range s.SpecialLeaveNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	s.SpecialLeaveNames = names

	s.CompanyDesignatedDates = uniqueDates(s.CompanyDesignatedDates)
	s.CompanyHolidays = uniqueDates(s.CompanyHolidays)
	return s
}

func (s Settings) IsWorkingWeekday(wd time.Weekday) bool {
	return slices.Contains(s.WorkingWeekdays, wd)
}

func (s Settings) IsCompanyDesignated(d Date) bool {
	return slices.Contains(s.CompanyDesignatedDates, d)
}

func (s Settings) NightWindow() NightWindow {
	return NightWindow{Start: s.NightStart, End: s.NightEnd}
}

func (s Settings) Calendar() PayrollCalendar {
	return PayrollCalendar{ClosingDay: s.ClosingDay}
}

func clampClock(c Clock) Clock {
	if c < 0 {
		return 0
	}
	if c > MinutesPerDay {
		return MinutesPerDay
	}
	return c
}

func uniqueDates(in []Date) []Date {
	out := make([]Date, 0, len(in))
	for _, d := range in {
		if !d.IsZero() && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Date) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		}
		return 0
	})
	return out
}
