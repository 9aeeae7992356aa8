package timeclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Civil calendar day (no time, no zone)
// =============================================================================

// Date is a calendar day. Classification and period arithmetic work on Dates;
// only ClockEvent carries a zoned instant.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateIn returns the calendar day of t as observed in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	return DateOf(t.In(loc))
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Date{}, err
		}
		return DateOf(t), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) utc() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// At returns the instant of hh:mm on this day in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Add(time.Duration(c) * time.Minute)
}

func (d Date) AddDays(n int) Date           { return DateOf(d.utc().AddDate(0, 0, n)) }
func (d Date) Before(o Date) bool           { return d.utc().Before(o.utc()) }
func (d Date) After(o Date) bool            { return d.utc().After(o.utc()) }
func (d Date) Equal(o Date) bool            { return d == o }
func (d Date) BeforeOrEqual(o Date) bool    { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool     { return !d.Before(o) }
func (d Date) Weekday() time.Weekday        { return d.utc().Weekday() }
func (d Date) IsZero() bool                 { return d == Date{} }
func (d Date) String() string               { return d.utc().Format(dateLayout) }
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	p, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int { return int(to.utc().Sub(from.utc()).Hours() / 24) }

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// clampDay returns (year, month, day) with day clamped into the month.
// Never rolls into the following month.
func clampDay(year int, month time.Month, day int) Date {
	if day < 1 {
		day = 1
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

func shiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	m := int(month) - 1 + delta
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return year, time.Month(m + 1)
}

// =============================================================================
// CLOCK - Minute of day on a 0..1440 scale
// =============================================================================

type Clock int

const MinutesPerDay = 24 * 60

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ClockOf returns the minute-of-day of t in loc (seconds truncated).
func ClockOf(t time.Time, loc *time.Location) Clock {
	t = t.In(loc)
	return Clock(t.Hour()*60 + t.Minute())
}

// ParseClock parses "HH:MM". "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	c := Clock(hh*60 + mm)
	if hh < 0 || mm < 0 || mm > 59 || c > MinutesPerDay {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return c, nil
}

func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	m := int(c)
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	p, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = p
	return nil
}

// FormatMinutes renders a duration in minutes as HH:MM (negative floors to 00:00).
func FormatMinutes(minutes int) string { return Clock(minutes).String() }
