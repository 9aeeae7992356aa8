package holiday

import (
	"context"
	"slices"
	"time"

	"github.com/warp/timeclock-engine/timeclock"
)

// Annual is a holiday on the same month/day every year.
type Annual struct {
	Month time.Month
	Day   int
	Name  string
}

// Static serves holidays from an in-process table. It is the source used
// when no feed is configured, and the one tests use.
type Static struct {
	Annual []Annual
	Dates  []timeclock.Holiday
	Err    error // returned by Holidays when set
}

func (s *Static) Name() string { return "static" }

func (s *Static) Holidays(_ context.Context, years []int) ([]timeclock.Holiday, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []timeclock.Holiday
	for _, y := range years {
		for _, a := range s.Annual {
			out = append(out, timeclock.Holiday{
				Date:   timeclock.NewDate(y, a.Month, a.Day),
				Name:   a.Name,
				Kind:   timeclock.HolidayPublic,
				Source: "static",
			})
		}
	}
	for _, h := range s.Dates {
		if slices.Contains(years, h.Date.Year) {
			if h.Kind == "" {
				h.Kind = timeclock.HolidayPublic
			}
			if h.Source == "" {
				h.Source = "static"
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// JapanFixed lists the Japanese public holidays that fall on a fixed date.
// Moving holidays (equinoxes, Happy Monday days) need a feed.
func JapanFixed() *Static {
	return &Static{Annual: []Annual{
		{time.January, 1, "New Year's Day"},
		{time.February, 11, "National Foundation Day"},
		{time.February, 23, "Emperor's Birthday"},
		{time.April, 29, "Showa Day"},
		{time.May, 3, "Constitution Memorial Day"},
		{time.May, 4, "Greenery Day"},
		{time.May, 5, "Children's Day"},
		{time.August, 11, "Mountain Day"},
		{time.November, 3, "Culture Day"},
		{time.November, 23, "Labour Thanksgiving Day"},
	}}
}
