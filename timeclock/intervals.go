/*
intervals.go - Split one day into labeled display segments

PURPOSE:
  Renders a day as a bar on a 0..1440 minute scale. Worked time is split into
  regular and overtime, each further split at the night window boundaries;
  outings become break segments.

ALGORITHM:
  1. Walk the day's latest-per-type punches in time order with the same state
     machine as StateOf, collecting worked and break intervals.
  2. If the day is still open and "now" is on that day, extend the open
     interval to now.
  3. Merge overlapping/adjacent intervals per list.
  4. Consume worked intervals up to RequiredWorkMinutes as regular time, the
     rest as overtime.
  5. Cut every piece at night boundaries; each sub-piece is night if its
     midpoint lies in a night range.

  Zero-length segments are never emitted.

EXAMPLE (required 480, night [22:00, 05:00)):
  IN 09:00, OUTING 12:00, RETURN 13:00, OUT 18:00
  -> work [09:00,12:00) break [12:00,13:00) work [13:00,18:00), worked 480
*/
package timeclock

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type SegmentKind string

const (
	SegmentWork          SegmentKind = "work"
	SegmentOvertime      SegmentKind = "overtime"
	SegmentNight         SegmentKind = "night"
	SegmentNightOvertime SegmentKind = "night_overtime"
	SegmentBreak         SegmentKind = "break"
)

// Interval is a half-open minute-of-day range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

func (iv Interval) Len() int { return max(0, int(iv.End-iv.Start)) }

// NightWindow is [Start, End) on the minute-of-day scale. Start > End wraps
// past midnight; Start == End means no night time.
type NightWindow struct {
	Start Clock
	End   Clock
}

// Ranges returns the window as non-wrapping intervals.
func (w NightWindow) Ranges() []Interval {
	switch {
	case w.Start == w.End:
		return nil
	case w.Start < w.End:
		return []Interval{{Start: w.Start, End: w.End}}
	default:
		var out []Interval
		if w.End > 0 {
			out = append(out, Interval{Start: 0, End: w.End})
		}
		if w.Start < MinutesPerDay {
			out = append(out, Interval{Start: w.Start, End: MinutesPerDay})
		}
		return out
	}
}

// contains reports whether minute m (fractional, to test midpoints) is night.
func (w NightWindow) contains(m float64) bool {
	for _, r := range w.Ranges() {
		if m >= float64(r.Start) && m < float64(r.End) {
			return true
		}
	}
	return false
}

type Segment struct {
	Start    Clock
	End      Clock
	Kind     SegmentKind
	StartPct decimal.Decimal
	WidthPct decimal.Decimal
}

// DayTimeline is the split of one day.
type DayTimeline struct {
	UserID          UserID
	Date            Date
	State           AttendanceState
	Segments        []Segment
	WorkedMinutes   int
	OvertimeMinutes int
	BreakMinutes    int
}

// SplitInput is everything SplitDay depends on.
type SplitInput struct {
	Date                Date
	Events              []ClockEvent // the day's events; only the latest per type is used
	Now                 time.Time    // zero when the day should not be extended
	Location            *time.Location
	RequiredWorkMinutes int
	Night               NightWindow
}

// =============================================================================
// SPLIT
// =============================================================================

func SplitDay(in SplitInput) DayTimeline {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	rec := BuildDayRecord("", in.Date, in.Events)
	timeline := rec.Timeline()

	var (
		work, brk      []Interval
		state          = StateNotStarted
		openAt   Clock = -1
	)
	closeAt := func(m Clock) {
		if openAt < 0 {
			return
		}
		iv := Interval{Start: openAt, End: m}
		if state == StateOuting {
			brk = append(brk, iv)
		} else {
			work = append(work, iv)
		}
		openAt = -1
	}

	for _, ev := range timeline {
		m := minuteOfDay(ev.At, in.Date, loc)
		switch ev.Type {
		case EventIn:
			if state != StateWorking {
				closeAt(m)
				openAt = m
			}
			state = StateWorking
		case EventOuting:
			if state == StateWorking {
				closeAt(m)
				state, openAt = StateOuting, m
			}
		case EventReturn:
			if state == StateOuting {
				closeAt(m)
				state, openAt = StateWorking, m
			}
		case EventOut:
			if state.Open() {
				closeAt(m)
				state = StateDone
			}
		}
	}
	if state.Open() && !in.Now.IsZero() && DateIn(in.Now, loc) == in.Date {
		closeAt(minuteOfDay(in.Now, in.Date, loc))
	}

	work = mergeIntervals(work)
	brk = mergeIntervals(brk)

	out := DayTimeline{Date: in.Date, State: state}
	remaining := max(0, in.RequiredWorkMinutes)
	for _, iv := range work {
		out.WorkedMinutes += iv.Len()
		regular := min(remaining, iv.Len())
		remaining -= regular

		cut := iv.Start + Clock(regular)
		out.Segments = append(out.Segments,
			splitNight(Interval{Start: iv.Start, End: cut}, in.Night, SegmentWork, SegmentNight)...)
		out.Segments = append(out.Segments,
			splitNight(Interval{Start: cut, End: iv.End}, in.Night, SegmentOvertime, SegmentNightOvertime)...)
		out.OvertimeMinutes += iv.Len() - regular
	}
	for _, iv := range brk {
		out.BreakMinutes += iv.Len()
		out.Segments = append(out.Segments, splitNight(iv, in.Night, SegmentBreak, SegmentBreak)...)
	}

	sort.SliceStable(out.Segments, func(i, j int) bool {
		return out.Segments[i].Start < out.Segments[j].Start
	})
	return out
}

// minuteOfDay places t on d's 0..1440 scale, clamping instants outside d.
func minuteOfDay(t time.Time, d Date, loc *time.Location) Clock {
	day := DateIn(t, loc)
	switch {
	case day.Before(d):
		return 0
	case day.After(d):
		return MinutesPerDay
	}
	return ClockOf(t, loc)
}

// mergeIntervals sorts by start and coalesces overlapping or touching
// intervals. Empty intervals are dropped.
func mergeIntervals(in []Interval) []Interval {
	ivs := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.Len() > 0 {
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

	var out []Interval
	for _, iv := range ivs {
		if n := len(out); n > 0 && iv.Start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// splitNight cuts iv at every night boundary inside it and labels each piece
// by whether its midpoint is night.
func splitNight(iv Interval, w NightWindow, day, night SegmentKind) []Segment {
	if iv.Len() == 0 {
		return nil
	}
	points := []Clock{iv.Start}
	for _, r := range w.Ranges() {
		for _, b := range []Clock{r.Start, r.End} {
			if b > iv.Start && b < iv.End {
				points = append(points, b)
			}
		}
	}
	points = append(points, iv.End)
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	var out []Segment
	for i := 0; i+1 < len(points); i++ {
		s, e := points[i], points[i+1]
		if e <= s {
			continue
		}
		kind := day
		if w.contains(float64(s+e) / 2) {
			kind = night
		}
		out = append(out, newSegment(s, e, kind))
	}
	return out
}

var (
	minutesPerDay = decimal.NewFromInt(MinutesPerDay)
	hundred       = decimal.NewFromInt(100)
)

// Pct converts minutes to a percentage of the day, rounded to 4 decimals.
func Pct(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerDay).Mul(hundred).Round(4)
}

func newSegment(s, e Clock, kind SegmentKind) Segment {
	return Segment{
		Start:    s,
		End:      e,
		Kind:     kind,
		StartPct: Pct(int(s)),
		WidthPct: Pct(int(e - s)),
	}
}
