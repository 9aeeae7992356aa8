package timeclock

import "time"

// =============================================================================
// EDIT AUDIT
// =============================================================================

// EventSnapshot is the part of an event an edit can change.
type EventSnapshot struct {
	EventID EventID   `json:"event_id,omitempty"`
	UserID  UserID    `json:"user_id,omitempty"`
	Type    EventType `json:"event_type"`
	At      time.Time `json:"event_time"`
	Note    string    `json:"note"`
}

func snapshotOf(ev ClockEvent) EventSnapshot {
	return EventSnapshot{
		EventID: ev.ID,
		UserID:  ev.UserID,
		Type:    ev.Type,
		At:      ev.At,
		Note:    ev.Note,
	}
}

// AuditEntry records one administrative edit. One entry is written per
// superseded event; Before is empty when the edit filled a missing punch.
type AuditEntry struct {
	ID       string
	EventID  EventID // the superseded event, if any
	UserID   UserID  // whose timeline was edited
	EditedBy UserID
	EditedAt time.Time
	Before   *EventSnapshot
	After    EventSnapshot
	Reason   string
}
