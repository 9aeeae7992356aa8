package timeclock

import "time"

// =============================================================================
// PERIOD - Payroll period, inclusive on both ends
// =============================================================================

// Period is a payroll period [Start, End]. Daily records and summaries are
// always computed for a period.
//
// Examples (closing day 20):
//   - 2025-03-10 -> [2025-02-21, 2025-03-20]
//   - 2025-03-25 -> [2025-03-21, 2025-04-20]
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day of the period in order. Empty when End < Start.
func (p Period) Days() []Date {
	var days []Date
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD ANCHOR - Which period a date falls into
// =============================================================================

// PayrollCalendar computes payroll periods for one closing day.
type PayrollCalendar struct {
	ClosingDay int
}

// NormalizeClosingDay clamps c into [1, 31].
func NormalizeClosingDay(c int) int {
	if c < 1 {
		return 1
	}
	if c > 31 {
		return 31
	}
	return c
}

// PeriodFor returns the period containing d for closing day c.
//
// The period ends on the closing day of d's month when d.Day <= c, otherwise on
// the closing day of the following month. The closing day is clamped down to
// the last day of short months (c=31 in February ends on the 28th/29th), and
// the period starts the day after the previous period's clamped end, so
// consecutive periods tile without gaps or overlaps.
func PeriodFor(d Date, c int) Period {
	c = NormalizeClosingDay(c)
	year, month := d.Year, d.Month
	if d.Day > c {
		year, month = shiftMonth(year, month, 1)
	}
	return periodEndingIn(year, month, c)
}

// PeriodForMonth returns the period that ends in the given month.
func PeriodForMonth(year int, month time.Month, c int) Period {
	return periodEndingIn(year, month, NormalizeClosingDay(c))
}

func periodEndingIn(year int, month time.Month, c int) Period {
	end := clampDay(year, month, c)
	py, pm := shiftMonth(year, month, -1)
	start := clampDay(py, pm, c).AddDays(1)
	return Period{Start: start, End: end}
}

func (pc PayrollCalendar) PeriodFor(d Date) Period { return PeriodFor(d, pc.ClosingDay) }

func (pc PayrollCalendar) PeriodForMonth(year int, month time.Month) Period {
	return PeriodForMonth(year, month, pc.ClosingDay)
}

// Next returns the period following p.
func (pc PayrollCalendar) Next(p Period) Period { return pc.PeriodFor(p.End.AddDays(1)) }

// Previous returns the period before p.
func (pc PayrollCalendar) Previous(p Period) Period { return pc.PeriodFor(p.Start.AddDays(-1)) }
