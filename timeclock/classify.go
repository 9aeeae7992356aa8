/*
classify.go - Day classification and period summary

PURPOSE:
  Turns a period of raw punches into one DayRow per date plus a Summary of
  payroll counters. Everything here is a pure function of ClassifyInput:
  no storage, no clock, no package state. Calling Classify twice with the
  same input yields the same output, and the Summary does not depend on the
  order days are visited.

PRECEDENCE (first match wins):
  1. Approved leave                            -> LEAVE_<type>
  2. Company-designated paid day, no punch     -> COMPANY_DESIGNATED_PAID
  3. Company-designated paid day, with punch   -> HOLIDAY_WORK
  4. Public or company holiday                 -> HOLIDAY_WORK | HOLIDAY_OFF
  5. Non-working weekday                       -> HOLIDAY_WORK | WEEKEND_OFF
  6. No punch, or only one of IN/OUT           -> MISSING
  7. Otherwise                                 -> WORK

SEE ALSO:
  - breaks.go: Break deduction
  - intervals.go: Per-day segments for display
*/
package timeclock

import "time"

type Classification string

const (
	ClassWork                  Classification = "WORK"
	ClassHolidayWork           Classification = "HOLIDAY_WORK"
	ClassHolidayOff            Classification = "HOLIDAY_OFF"
	ClassWeekendOff            Classification = "WEEKEND_OFF"
	ClassMissing               Classification = "MISSING"
	ClassCompanyDesignatedPaid Classification = "COMPANY_DESIGNATED_PAID"
)

// LeaveClassification returns LEAVE_<type>.
func LeaveClassification(t LeaveType) Classification {
	return Classification("LEAVE_" + string(t))
}

type Flag string

const (
	FlagEdited            Flag = "edited"
	FlagIncomplete        Flag = "incomplete"
	FlagHoliday           Flag = "holiday"
	FlagWeekend           Flag = "weekend"
	FlagCompanyDesignated Flag = "company_designated"
	FlagMissing           Flag = "missing"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// ClassifyInput is everything classification depends on.
type ClassifyInput struct {
	UserID   UserID
	Period   Period
	Events   []ClockEvent // the user's events within Period, insertion order
	Leaves   map[Date]LeaveRequest
	Holidays map[Date]Holiday
	Settings Settings
	Today    Date // MISSING days after Today are not counted as absences
	Location *time.Location
}

// DayRow is one classified day. Zero times mean the punch is absent.
type DayRow struct {
	Date    Date
	Weekday time.Weekday

	ClockIn  time.Time
	ClockOut time.Time
	Outing   time.Time
	Return   time.Time

	BreakMinutes    int
	WorkedMinutes   int
	OvertimeMinutes int
	Late            bool
	EarlyLeave      bool

	Note           string
	Classification Classification
	Flags          []Flag
	IsEdited       bool
	Leave          *LeaveRequest
	Holiday        *Holiday
}

func (r DayRow) HasFlag(f Flag) bool {
	for _, x := range r.Flags {
		if x == f {
			return true
		}
	}
	return false
}

func (r DayRow) HasPunch() bool { return !r.ClockIn.IsZero() || !r.ClockOut.IsZero() }

// Summary accumulates payroll counters over a period.
type Summary struct {
	WorkDays           int `json:"work_days"`
	WorkMinutes        int `json:"work_minutes"`
	OvertimeDays       int `json:"overtime_days"`
	OvertimeMinutes    int `json:"overtime_minutes"`
	HolidayWorkDays    int `json:"holiday_work_days"`
	HolidayWorkMinutes int `json:"holiday_work_minutes"`
	LatenessCount      int `json:"lateness_count"`
	EarlyLeaveCount    int `json:"early_leave_count"`
	MissingCount       int `json:"missing_count"`
	// AbsenceCount is the subset of MissingCount dated on or before today.
	AbsenceCount int `json:"absence_count"`

	PaidLeaveCount                  int `json:"paid_leave_count"`
	SpecialLeaveCount               int `json:"special_leave_count"`
	CompanyDesignatedPaidLeaveCount int `json:"company_designated_paid_leave_count"`
	OtherLeaveCount                 int `json:"other_count"`
}

// =============================================================================
// CLASSIFY
// =============================================================================

// Classify produces one row per date of the period, in date order, and the
// period summary.
func Classify(in ClassifyInput) ([]DayRow, Summary) {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	byDay := GroupByDay(in.Events, loc)

	var (
		rows    = make([]DayRow, 0, in.Period.Len())
		summary Summary
	)
	for _, d := range in.Period.Days() {
		row := ClassifyDay(d, BuildDayRecord(in.UserID, d, byDay[d]), in, loc)
		summary.Add(row, in.Today)
		rows = append(rows, row)
	}
	return rows, summary
}

// ClassifyDay classifies a single date.
func ClassifyDay(d Date, rec DayRecord, in ClassifyInput, loc *time.Location) DayRow {
	s := in.Settings
	row := DayRow{
		Date:     d,
		Weekday:  d.Weekday(),
		Note:     rec.Note,
		IsEdited: rec.IsEdited,
	}
	row.ClockIn, _ = rec.Punch(EventIn)
	row.ClockOut, _ = rec.Punch(EventOut)
	row.Outing, _ = rec.Punch(EventOuting)
	row.Return, _ = rec.Punch(EventReturn)

	hasPunch := row.HasPunch()
	incomplete := row.ClockIn.IsZero() != row.ClockOut.IsZero()

	if !row.ClockIn.IsZero() && !row.ClockOut.IsZero() && !row.ClockOut.Before(row.ClockIn) {
		row.WorkedMinutes, row.BreakMinutes = s.Break.WorkedMinutes(row.ClockIn, row.ClockOut)
		row.OvertimeMinutes = max(0, row.WorkedMinutes-s.ScheduledWorkMinutes)

		inMin := ClockOf(row.ClockIn, loc)
		outMin := ClockOf(row.ClockOut, loc)
		row.Late = inMin > s.ScheduledStart+Clock(s.GraceMinutes)
		row.EarlyLeave = outMin < s.ScheduledEnd-Clock(s.GraceMinutes)
	}

	holiday, isHoliday := in.Holidays[d]
	designated := s.IsCompanyDesignated(d)
	workingDay := s.IsWorkingWeekday(d.Weekday())

	if rec.IsEdited {
		row.Flags = append(row.Flags, FlagEdited)
	}
	if incomplete {
		row.Flags = append(row.Flags, FlagIncomplete)
	}

	leave, onLeave := in.Leaves[d]
	switch {
	case onLeave:
		row.Classification = LeaveClassification(leave.Type)
		row.Leave = &leave
	case designated && !hasPunch:
		row.Classification = ClassCompanyDesignatedPaid
	case designated:
		row.Classification = ClassHolidayWork
	case isHoliday:
		row.Classification = punched(hasPunch, ClassHolidayWork, ClassHolidayOff)
	case !workingDay:
		row.Classification = punched(hasPunch, ClassHolidayWork, ClassWeekendOff)
	case !hasPunch || incomplete:
		row.Classification = ClassMissing
	default:
		row.Classification = ClassWork
	}

	if isHoliday {
		row.Holiday = &holiday
		row.Flags = append(row.Flags, FlagHoliday)
	} else if !workingDay {
		row.Flags = append(row.Flags, FlagWeekend)
	}
	if designated {
		row.Flags = append(row.Flags, FlagCompanyDesignated)
	}
	if row.Classification == ClassMissing {
		row.Flags = append(row.Flags, FlagMissing)
	}
	return row
}

func punched(has bool, yes, no Classification) Classification {
	if has {
		return yes
	}
	return no
}

// Add folds one day into the summary.
func (s *Summary) Add(row DayRow, today Date) {
	if row.Leave != nil {
		switch row.Leave.Type {
		case LeavePaid:
			s.PaidLeaveCount++
		case LeaveSpecial:
			s.SpecialLeaveCount++
		case LeaveCompanyDesignated:
			s.CompanyDesignatedPaidLeaveCount++
		default:
			s.OtherLeaveCount++
		}
	}

	switch row.Classification {
	case ClassCompanyDesignatedPaid:
		s.CompanyDesignatedPaidLeaveCount++
	case ClassMissing:
		s.MissingCount++
		if row.Date.BeforeOrEqual(today) {
			s.AbsenceCount++
		}
	}

	if !row.HasPunch() {
		return
	}
	if row.Classification == ClassWork || row.Classification == ClassHolidayWork {
		s.WorkDays++
		s.WorkMinutes += row.WorkedMinutes
		if row.OvertimeMinutes > 0 {
			s.OvertimeDays++
			s.OvertimeMinutes += row.OvertimeMinutes
		}
		if row.Late {
			s.LatenessCount++
		}
		if row.EarlyLeave {
			s.EarlyLeaveCount++
		}
	}
	if row.Classification == ClassHolidayWork {
		s.HolidayWorkDays++
		s.HolidayWorkMinutes += row.WorkedMinutes
	}
}
