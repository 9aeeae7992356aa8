package timeclock

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// EVENT LOG - Append-only clock events over the row gateway
// =============================================================================

// EventLog appends and reads clock events. It never rewrites a stored row.
// Callers hold the engine lock; EventLog itself does no locking.
type EventLog struct {
	rows  rows
	loc   *time.Location
	newID func() string
}

// Append stores ev with a fresh id and all timestamps normalized to the log's
// zone. The stored event is returned.
func (l *EventLog) Append(ctx context.Context, ev ClockEvent) (ClockEvent, error) {
	if !ev.Type.Valid() {
		return ClockEvent{}, &ValidationError{Reason: ReasonInvalidEventType, Detail: string(ev.Type)}
	}
	ev.ID = EventID(l.newID())
	ev.At = ev.At.In(l.loc)
	if !ev.ClientAt.IsZero() {
		ev.ClientAt = ev.ClientAt.In(l.loc)
	}
	if !ev.EditedAt.IsZero() {
		ev.EditedAt = ev.EditedAt.In(l.loc)
	}
	if ev.Source == "" {
		ev.Source = SourceWeb
	}
	if err := l.rows.append(ctx, TableEvents, encodeEvent(ev, l.loc)); err != nil {
		return ClockEvent{}, err
	}
	return ev, nil
}

// All returns every event in insertion order.
func (l *EventLog) All(ctx context.Context) ([]ClockEvent, error) {
	rs, err := l.rows.read(ctx, TableEvents)
	if err != nil {
		return nil, err
	}
	return l.decode(rs, ""), nil
}

// Range returns the user's events dated within [from, to], insertion order.
func (l *EventLog) Range(ctx context.Context, user UserID, from, to Date) ([]ClockEvent, error) {
	rs, err := l.rows.read(ctx, TableEvents)
	if err != nil {
		return nil, err
	}
	var out []ClockEvent
	for _, ev := range l.decode(rs, user) {
		d := DateIn(ev.At, l.loc)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Day returns the user's events for one date.
func (l *EventLog) Day(ctx context.Context, user UserID, d Date) ([]ClockEvent, error) {
	return l.Range(ctx, user, d, d)
}

// ByID scans the whole log. Only the edit path needs it.
func (l *EventLog) ByID(ctx context.Context, id EventID) (ClockEvent, error) {
	if id == "" {
		return ClockEvent{}, ErrEventNotFound
	}
	rs, err := l.rows.read(ctx, TableEvents)
	if err != nil {
		return ClockEvent{}, err
	}
	for _, r := range rs {
		if EventID(r["event_id"]) != id {
			continue
		}
		if ev, ok := decodeEvent(r, l.loc); ok {
			return ev, nil
		}
	}
	return ClockEvent{}, ErrEventNotFound
}

const (
	recentMinBatch = 80
	recentRounds   = 5
)

// Recent returns the user's newest events, newest first.
//
// Gateways that support tail reads are asked for a growing tail (doubling
// each round) until it holds enough of the user's events or covers the whole
// table. If that still comes up short the full table is scanned.
func (l *EventLog) Recent(ctx context.Context, user UserID, limit int) ([]ClockEvent, error) {
	limit = max(1, limit)
	batch := max(recentMinBatch, limit*8)

	for range recentRounds {
		rs, supported, err := l.rows.tail(ctx, TableEvents, batch)
		if err != nil {
			return nil, err
		}
		if !supported {
			break
		}
		got := newestFirst(l.decode(rs, user), limit)
		if len(got) >= limit {
			return got, nil
		}
		if len(rs) < batch {
			// The tail already covered the whole table.
			return got, nil
		}
		batch *= 2
	}

	all, err := l.rows.read(ctx, TableEvents)
	if err != nil {
		return nil, err
	}
	return newestFirst(l.decode(all, user), limit), nil
}

// decode parses rows, keeping only user's events when user is set.
func (l *EventLog) decode(rs []Row, user UserID) []ClockEvent {
	out := make([]ClockEvent, 0, len(rs))
	for _, r := range rs {
		if user != "" && UserID(r["user_id"]) != user {
			continue
		}
		if ev, ok := decodeEvent(r, l.loc); ok {
			out = append(out, ev)
		}
	}
	return out
}

func newestFirst(events []ClockEvent, limit int) []ClockEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events
}
