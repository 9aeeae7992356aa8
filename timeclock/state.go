package timeclock

import (
	"slices"
	"time"
)

// =============================================================================
// ATTENDANCE STATE MACHINE
// =============================================================================
//
//	            IN              OUTING
//	NOT_STARTED ──► WORKING ◄──────────► OUTING
//	                   │       RETURN       │
//	                   └──── OUT ──► DONE ◄─┘ OUT
//
// DONE accepts IN again only when multiple clock-ins per day are allowed.

type AttendanceState string

const (
	StateNotStarted AttendanceState = "NOT_STARTED"
	StateWorking    AttendanceState = "WORKING"
	StateOuting     AttendanceState = "OUTING"
	StateDone       AttendanceState = "DONE"
)

// Open reports whether the day has an unfinished work interval.
func (s AttendanceState) Open() bool { return s == StateWorking || s == StateOuting }

// Transition validates action against state and returns the next state.
// Rejections are *TransitionError values carrying the reason code.
func Transition(state AttendanceState, action EventType, allowMultiple bool) (AttendanceState, error) {
	reject := func(r Reason) (AttendanceState, error) {
		return state, &TransitionError{Reason: r, State: state, Action: action}
	}

	switch action {
	case EventIn:
		switch state {
		case StateNotStarted:
			return StateWorking, nil
		case StateWorking, StateOuting:
			return reject(ReasonAlreadyClockedIn)
		case StateDone:
			if allowMultiple {
				return StateWorking, nil
			}
			return reject(ReasonAlreadyClockedOut)
		}
	case EventOut:
		switch state {
		case StateNotStarted:
			return reject(ReasonClockInRequired)
		case StateWorking, StateOuting:
			return StateDone, nil
		case StateDone:
			return reject(ReasonAlreadyClockedOut)
		}
	case EventOuting:
		switch state {
		case StateNotStarted:
			return reject(ReasonClockInRequired)
		case StateWorking:
			return StateOuting, nil
		case StateOuting:
			return reject(ReasonAlreadyOuting)
		case StateDone:
			return reject(ReasonAlreadyClockedOut)
		}
	case EventReturn:
		switch state {
		case StateNotStarted:
			return reject(ReasonClockInRequired)
		case StateWorking:
			return reject(ReasonOutingRequired)
		case StateOuting:
			return StateWorking, nil
		case StateDone:
			return reject(ReasonAlreadyClockedOut)
		}
	}
	return reject(ReasonInvalidAction)
}

// StateOf folds a day's events, in time order, into the current state.
// Events that would be illegal transitions are ignored, except IN, which
// always (re)opens the day.
func StateOf(events []ClockEvent) AttendanceState {
	timeline := slices.Clone(events)
	SortEvents(timeline)

	state := StateNotStarted
	for _, ev := range timeline {
		switch ev.Type {
		case EventIn:
			state = StateWorking
		case EventOuting:
			if state == StateWorking {
				state = StateOuting
			}
		case EventReturn:
			if state == StateOuting {
				state = StateWorking
			}
		case EventOut:
			if state.Open() {
				state = StateDone
			}
		}
	}
	return state
}

// =============================================================================
// ATTENDANCE VIEW - What a punch screen should offer next
// =============================================================================

type NextAction string

const (
	ActionClockIn  NextAction = "clock-in"
	ActionClockOut NextAction = "clock-out"
	ActionDone     NextAction = "done"
	ActionOuting   NextAction = "outing"
	ActionReturn   NextAction = "return"
	ActionDisabled NextAction = "disabled"
)

type ActionButton struct {
	Action   NextAction
	Disabled bool
}

type AttendanceView struct {
	UserID    UserID
	Date      Date
	State     AttendanceState
	Record    DayRecord
	Primary   ActionButton
	Secondary ActionButton
}

// NewAttendanceView derives the state and the next offered actions from a
// day record.
func NewAttendanceView(rec DayRecord, allowMultiple bool) AttendanceView {
	state := StateOf(rec.Events)
	v := AttendanceView{
		UserID:    rec.UserID,
		Date:      rec.Date,
		State:     state,
		Record:    rec,
		Primary:   ActionButton{Action: ActionClockIn},
		Secondary: ActionButton{Action: ActionDisabled, Disabled: true},
	}
	switch state {
	case StateWorking:
		v.Primary = ActionButton{Action: ActionClockOut}
		v.Secondary = ActionButton{Action: ActionOuting}
	case StateOuting:
		v.Primary = ActionButton{Action: ActionClockOut}
		v.Secondary = ActionButton{Action: ActionReturn}
	case StateDone:
		if !allowMultiple {
			v.Primary = ActionButton{Action: ActionDone, Disabled: true}
		}
	}
	return v
}

// =============================================================================
// EDIT ORDERING
// =============================================================================

// validateOrdering rejects a day whose authoritative punches are out of
// order. It runs on the day as it would look after an edit.
func validateOrdering(latest map[EventType]ClockEvent) error {
	if in, ok := latest[EventIn]; ok {
		if out, ok := latest[EventOut]; ok && out.At.Before(in.At) {
			return &ValidationError{Reason: ReasonClockOutBeforeClockIn}
		}
	}
	if outing, ok := latest[EventOuting]; ok {
		if ret, ok := latest[EventReturn]; ok && ret.At.Before(outing.At) {
			return &ValidationError{Reason: ReasonReturnBeforeOuting}
		}
	}
	return nil
}

// ValidateDayPatch checks the explicit values of a day edit before anything
// is written.
func ValidateDayPatch(in, out, outing, ret *time.Time) error {
	if in != nil && out != nil && out.Before(*in) {
		return &ValidationError{Reason: ReasonClockOutBeforeClockIn}
	}
	if outing != nil && ret != nil && ret.Before(*outing) {
		return &ValidationError{Reason: ReasonReturnBeforeOuting}
	}
	return nil
}
