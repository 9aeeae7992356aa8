package timeclock_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/timeclock-engine/timeclock"
)

func night() timeclock.NightWindow {
	return timeclock.NightWindow{Start: timeclock.MustParseClock("22:00"), End: timeclock.MustParseClock("05:00")}
}

func seg(start, end string) timeclock.Interval {
	return timeclock.Interval{Start: timeclock.MustParseClock(start), End: timeclock.MustParseClock(end)}
}

func spans(segs []timeclock.Segment) []timeclock.Interval {
	out := make([]timeclock.Interval, 0, len(segs))
	for _, s := range segs {
		out = append(out, timeclock.Interval{Start: s.Start, End: s.End})
	}
	return out
}

func kinds(segs []timeclock.Segment) []timeclock.SegmentKind {
	out := make([]timeclock.SegmentKind, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Kind)
	}
	return out
}

func TestSplitDay_RegularDayWithOuting(t *testing.T) {
	// GIVEN: IN 09:00, OUTING 12:00, RETURN 13:00, OUT 18:00, required 480
	// THEN: 480 worked, no overtime, one break, no night

	d := date(2025, time.March, 3)
	tl := timeclock.SplitDay(timeclock.SplitInput{
		Date: d,
		Events: []timeclock.ClockEvent{
			punch("1", timeclock.EventIn, at(d, "09:00")),
			punch("2", timeclock.EventOuting, at(d, "12:00")),
			punch("3", timeclock.EventReturn, at(d, "13:00")),
			punch("4", timeclock.EventOut, at(d, "18:00")),
		},
		Location:            tokyo,
		RequiredWorkMinutes: 480,
		Night:               night(),
	})

	assert.Equal(t, 480, tl.WorkedMinutes)
	assert.Equal(t, 0, tl.OvertimeMinutes)
	assert.Equal(t, 60, tl.BreakMinutes)
	assert.Equal(t, timeclock.StateDone, tl.State)
	assert.Equal(t, []timeclock.Interval{
		seg("09:00", "12:00"),
		seg("12:00", "13:00"),
		seg("13:00", "18:00"),
	}, spans(tl.Segments))
	assert.Equal(t, []timeclock.SegmentKind{
		timeclock.SegmentWork, timeclock.SegmentBreak, timeclock.SegmentWork,
	}, kinds(tl.Segments))

	first := tl.Segments[0]
	assert.True(t, decimal.NewFromFloat(37.5).Equal(first.StartPct), first.StartPct.String())
	assert.True(t, decimal.NewFromFloat(12.5).Equal(first.WidthPct), first.WidthPct.String())
}

func TestSplitDay_NightWrap(t *testing.T) {
	// GIVEN: a shift [21:00, 23:30) and night [22:00, 05:00)
	// THEN: the shift is cut at 22:00 into work and night

	d := date(2025, time.March, 3)
	tl := timeclock.SplitDay(timeclock.SplitInput{
		Date: d,
		Events: []timeclock.ClockEvent{
			punch("1", timeclock.EventIn, at(d, "21:00")),
			punch("2", timeclock.EventOut, at(d, "23:30")),
		},
		Location:            tokyo,
		RequiredWorkMinutes: 480,
		Night:               night(),
	})

	assert.Equal(t, 150, tl.WorkedMinutes)
	assert.Equal(t, []timeclock.Interval{
		seg("21:00", "22:00"),
		seg("22:00", "23:30"),
	}, spans(tl.Segments))
	assert.Equal(t, []timeclock.SegmentKind{timeclock.SegmentWork, timeclock.SegmentNight}, kinds(tl.Segments))
}

func TestSplitDay_OvertimeIntoNight(t *testing.T) {
	// GIVEN: IN 12:00, OUT 23:00, required 480
	// THEN: regular until 20:00, overtime until 22:00, night overtime after

	d := date(2025, time.March, 3)
	tl := timeclock.SplitDay(timeclock.SplitInput{
		Date: d,
		Events: []timeclock.ClockEvent{
			punch("1", timeclock.EventIn, at(d, "12:00")),
			punch("2", timeclock.EventOut, at(d, "23:00")),
		},
		Location:            tokyo,
		RequiredWorkMinutes: 480,
		Night:               night(),
	})

	assert.Equal(t, 660, tl.WorkedMinutes)
	assert.Equal(t, 180, tl.OvertimeMinutes)
	assert.Equal(t, []timeclock.SegmentKind{
		timeclock.SegmentWork, timeclock.SegmentOvertime, timeclock.SegmentNightOvertime,
	}, kinds(tl.Segments))
	assert.Equal(t, []timeclock.Interval{
		seg("12:00", "20:00"),
		seg("20:00", "22:00"),
		seg("22:00", "23:00"),
	}, spans(tl.Segments))
}

func TestSplitDay_OpenDayExtendsToNow(t *testing.T) {
	d := date(2025, time.March, 3)
	in := timeclock.SplitInput{
		Date:                d,
		Events:              []timeclock.ClockEvent{punch("1", timeclock.EventIn, at(d, "09:00"))},
		Now:                 at(d, "11:30"),
		Location:            tokyo,
		RequiredWorkMinutes: 480,
		Night:               night(),
	}

	tl := timeclock.SplitDay(in)
	assert.Equal(t, timeclock.StateWorking, tl.State)
	assert.Equal(t, 150, tl.WorkedMinutes)

	// "now" on another day does not extend the interval.
	in.Now = at(d.AddDays(1), "08:00")
	tl = timeclock.SplitDay(in)
	assert.Equal(t, 0, tl.WorkedMinutes)
	assert.Empty(t, tl.Segments)
}

func TestSplitDay_NoZeroLengthSegments(t *testing.T) {
	d := date(2025, time.March, 3)
	tl := timeclock.SplitDay(timeclock.SplitInput{
		Date: d,
		Events: []timeclock.ClockEvent{
			punch("1", timeclock.EventIn, at(d, "22:00")),
			punch("2", timeclock.EventOut, at(d, "22:00")),
		},
		Location:            tokyo,
		RequiredWorkMinutes: 480,
		Night:               night(),
	})
	assert.Empty(t, tl.Segments)
	assert.Equal(t, 0, tl.WorkedMinutes)
}

func TestNightWindow_Ranges(t *testing.T) {
	assert.Equal(t, []timeclock.Interval{
		{Start: 0, End: timeclock.MustParseClock("05:00")},
		{Start: timeclock.MustParseClock("22:00"), End: timeclock.MinutesPerDay},
	}, night().Ranges())

	day := timeclock.NightWindow{Start: timeclock.MustParseClock("01:00"), End: timeclock.MustParseClock("04:00")}
	assert.Len(t, day.Ranges(), 1)

	assert.Empty(t, timeclock.NightWindow{Start: 60, End: 60}.Ranges())
}

func TestPct(t *testing.T) {
	assert.Equal(t, "50", timeclock.Pct(720).String())
	assert.Equal(t, "0.0694", timeclock.Pct(1).String())
}
