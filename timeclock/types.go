/*
Package timeclock provides the attendance bookkeeping engine.

PURPOSE:
  Employees punch IN, OUT, OUTING and RETURN. The engine keeps those punches in
  an append-only event log and derives everything else from it: the current
  attendance state, each day's classification (work, holiday work, leave,
  missing punch), worked/overtime minutes, period summaries and the
  regular/overtime/night segments of a day.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClockEvent: An immutable punch; edits are new events pointing back
  - EventType: IN / OUT / OUTING / RETURN
  - DayRecord: The latest-wins fold of one user's events for one day

DESIGN PRINCIPLES:
  1. Immutability: Events are never modified, only superseded
  2. Latest wins: For each type, the event with the greatest time is authoritative
  3. Purity: Classification and interval splitting are functions of their inputs
  4. Typed core: Rows cross the storage boundary as strings only in codec.go

SEE ALSO:
  - eventlog.go: Append-only persistence over the row gateway
  - state.go: Clock state machine
  - classify.go: Day classification and period summary
  - intervals.go: Day timeline segments
  - engine.go: The produced interface and lock discipline
*/
package timeclock

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EventID string
type LeaveID string

// =============================================================================
// EVENT TYPE
// =============================================================================

type EventType string

const (
	EventIn     EventType = "IN"
	EventOut    EventType = "OUT"
	EventOuting EventType = "OUTING"
	EventReturn EventType = "RETURN"
)

// EventTypes lists all punch types in display order.
var EventTypes = []EventType{EventIn, EventOut, EventOuting, EventReturn}

func (t EventType) Valid() bool {
	switch t {
	case EventIn, EventOut, EventOuting, EventReturn:
		return true
	}
	return false
}

// ParseEventType accepts any casing and the aliases used by clock endpoints
// ("clock-in", "clock_out", ...).
func ParseEventType(s string) (EventType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_").Replace(norm)
	norm = strings.TrimPrefix(norm, "CLOCK_")
	t := EventType(norm)
	if !t.Valid() {
		return "", &ValidationError{Reason: ReasonInvalidEventType, Detail: s}
	}
	return t, nil
}

// =============================================================================
// CLOCK EVENT - One immutable punch
// =============================================================================

const (
	SourceWeb   = "web"
	SourceAdmin = "admin"
)

type ClockEvent struct {
	ID        EventID
	UserID    UserID
	Type      EventType
	At        time.Time // always in the engine's fixed zone
	ClientAt  time.Time
	Note      string
	Source    string
	IP        string
	UserAgent string

	// Edit lineage. An edit never mutates the original; it appends a new
	// event with IsEdited set and EditedFromID pointing at what it replaces.
	IsEdited     bool
	EditedFromID EventID
	EditedBy     UserID
	EditedAt     time.Time
}

// SortEvents orders events by time; ties keep insertion order.
func SortEvents(events []ClockEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
}

// LatestPerType keeps, for each type, the event with the greatest time.
// Equal times resolve to the later-inserted event.
func LatestPerType(events []ClockEvent) map[EventType]ClockEvent {
	latest := make(map[EventType]ClockEvent, len(EventTypes))
	for _, ev := range events {
		if !ev.Type.Valid() {
			continue
		}
		if cur, ok := latest[ev.Type]; ok && ev.At.Before(cur.At) {
			continue
		}
		latest[ev.Type] = ev
	}
	return latest
}

// GroupByDay buckets events by their calendar day in loc. Each bucket keeps
// the input order.
func GroupByDay(events []ClockEvent, loc *time.Location) map[Date][]ClockEvent {
	out := make(map[Date][]ClockEvent)
	for _, ev := range events {
		d := DateIn(ev.At, loc)
		out[d] = append(out[d], ev)
	}
	return out
}

// =============================================================================
// DAY RECORD - Latest-wins projection of one day
// =============================================================================

type DayRecord struct {
	UserID   UserID
	Date     Date
	Events   []ClockEvent // insertion order
	Latest   map[EventType]ClockEvent
	Note     string // last non-empty note of the day
	IsEdited bool   // any event that day was an edit
}

// BuildDayRecord folds one day's events. events must be in insertion order.
func BuildDayRecord(user UserID, date Date, events []ClockEvent) DayRecord {
	rec := DayRecord{
		UserID: user,
		Date:   date,
		Events: events,
		Latest: LatestPerType(events),
	}
	for i := len(events) - 1; i >= 0; i-- {
		if n := strings.TrimSpace(events[i].Note); n != "" {
			rec.Note = n
			break
		}
	}
	for _, ev := range events {
		if ev.IsEdited {
			rec.IsEdited = true
			break
		}
	}
	return rec
}

// Punch returns the authoritative time for t, if any.
func (r DayRecord) Punch(t EventType) (time.Time, bool) {
	ev, ok := r.Latest[t]
	if !ok {
		return time.Time{}, false
	}
	return ev.At, true
}

// Timeline returns the latest-per-type events in chronological order.
func (r DayRecord) Timeline() []ClockEvent {
	out := make([]ClockEvent, 0, len(r.Latest))
	for _, t := range EventTypes {
		if ev, ok := r.Latest[t]; ok {
			out = append(out, ev)
		}
	}
	SortEvents(out)
	return out
}
