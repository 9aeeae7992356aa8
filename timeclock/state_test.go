package timeclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/timeclock"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func at(d timeclock.Date, hhmm string) time.Time {
	return d.At(timeclock.MustParseClock(hhmm), tokyo)
}

func punch(id string, typ timeclock.EventType, t time.Time) timeclock.ClockEvent {
	return timeclock.ClockEvent{ID: timeclock.EventID(id), UserID: "u1", Type: typ, At: t}
}

// =============================================================================
// TRANSITION TABLE
// =============================================================================

func TestTransition_Table(t *testing.T) {
	const (
		ns  = timeclock.StateNotStarted
		wk  = timeclock.StateWorking
		out = timeclock.StateOuting
		dn  = timeclock.StateDone
	)
	tests := []struct {
		state  timeclock.AttendanceState
		action timeclock.EventType
		next   timeclock.AttendanceState
		reason timeclock.Reason
	}{
		{ns, timeclock.EventIn, wk, ""},
		{ns, timeclock.EventOut, ns, timeclock.ReasonClockInRequired},
		{ns, timeclock.EventOuting, ns, timeclock.ReasonClockInRequired},
		{ns, timeclock.EventReturn, ns, timeclock.ReasonClockInRequired},

		{wk, timeclock.EventIn, wk, timeclock.ReasonAlreadyClockedIn},
		{wk, timeclock.EventOut, dn, ""},
		{wk, timeclock.EventOuting, out, ""},
		{wk, timeclock.EventReturn, wk, timeclock.ReasonOutingRequired},

		{out, timeclock.EventIn, out, timeclock.ReasonAlreadyClockedIn},
		{out, timeclock.EventOut, dn, ""},
		{out, timeclock.EventOuting, out, timeclock.ReasonAlreadyOuting},
		{out, timeclock.EventReturn, wk, ""},

		{dn, timeclock.EventIn, dn, timeclock.ReasonAlreadyClockedOut},
		{dn, timeclock.EventOut, dn, timeclock.ReasonAlreadyClockedOut},
		{dn, timeclock.EventOuting, dn, timeclock.ReasonAlreadyClockedOut},
		{dn, timeclock.EventReturn, dn, timeclock.ReasonAlreadyClockedOut},
	}
	for _, tt := range tests {
		t.Run(string(tt.state)+"_"+string(tt.action), func(t *testing.T) {
			next, err := timeclock.Transition(tt.state, tt.action, false)
			assert.Equal(t, tt.next, next)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, timeclock.ErrIllegalTransition)
			var te *timeclock.TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.reason, te.Reason)
			assert.Equal(t, tt.state, te.State)
		})
	}
}

func TestTransition_MultipleClockIn(t *testing.T) {
	next, err := timeclock.Transition(timeclock.StateDone, timeclock.EventIn, true)
	require.NoError(t, err)
	assert.Equal(t, timeclock.StateWorking, next)
}

func TestTransition_UnknownAction(t *testing.T) {
	_, err := timeclock.Transition(timeclock.StateWorking, "LUNCH", false)
	reason, ok := timeclock.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, timeclock.ReasonInvalidAction, reason)
	assert.True(t, timeclock.IsClientError(err))
}

// =============================================================================
// STATE FOLD
// =============================================================================

func TestStateOf(t *testing.T) {
	d := date(2025, time.March, 3)

	assert.Equal(t, timeclock.StateNotStarted, timeclock.StateOf(nil))

	events := []timeclock.ClockEvent{
		punch("3", timeclock.EventReturn, at(d, "13:00")),
		punch("1", timeclock.EventIn, at(d, "09:00")),
		punch("2", timeclock.EventOuting, at(d, "12:00")),
	}
	assert.Equal(t, timeclock.StateWorking, timeclock.StateOf(events), "events are folded in time order")

	events = append(events, punch("4", timeclock.EventOut, at(d, "18:00")))
	assert.Equal(t, timeclock.StateDone, timeclock.StateOf(events))

	events = append(events, punch("5", timeclock.EventIn, at(d, "19:00")))
	assert.Equal(t, timeclock.StateWorking, timeclock.StateOf(events), "IN reopens a finished day")
}

func TestStateOf_IgnoresIllegalEvents(t *testing.T) {
	d := date(2025, time.March, 3)
	events := []timeclock.ClockEvent{
		punch("1", timeclock.EventReturn, at(d, "08:00")),
		punch("2", timeclock.EventOut, at(d, "08:30")),
		punch("3", timeclock.EventIn, at(d, "09:00")),
	}
	assert.Equal(t, timeclock.StateWorking, timeclock.StateOf(events))
}

// =============================================================================
// ATTENDANCE VIEW
// =============================================================================

func TestNewAttendanceView(t *testing.T) {
	d := date(2025, time.March, 3)
	in := punch("1", timeclock.EventIn, at(d, "09:00"))
	outing := punch("2", timeclock.EventOuting, at(d, "12:00"))
	out := punch("3", timeclock.EventOut, at(d, "18:00"))

	tests := []struct {
		name      string
		events    []timeclock.ClockEvent
		multiple  bool
		state     timeclock.AttendanceState
		primary   timeclock.NextAction
		secondary timeclock.NextAction
		disabled  bool
	}{
		{"not started", nil, false, timeclock.StateNotStarted, timeclock.ActionClockIn, timeclock.ActionDisabled, false},
		{"working", []timeclock.ClockEvent{in}, false, timeclock.StateWorking, timeclock.ActionClockOut, timeclock.ActionOuting, false},
		{"outing", []timeclock.ClockEvent{in, outing}, false, timeclock.StateOuting, timeclock.ActionClockOut, timeclock.ActionReturn, false},
		{"done", []timeclock.ClockEvent{in, out}, false, timeclock.StateDone, timeclock.ActionDone, timeclock.ActionDisabled, true},
		{"done, multiple allowed", []timeclock.ClockEvent{in, out}, true, timeclock.StateDone, timeclock.ActionClockIn, timeclock.ActionDisabled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := timeclock.NewAttendanceView(timeclock.BuildDayRecord("u1", d, tt.events), tt.multiple)
			assert.Equal(t, tt.state, v.State)
			assert.Equal(t, tt.primary, v.Primary.Action)
			assert.Equal(t, tt.disabled, v.Primary.Disabled)
			assert.Equal(t, tt.secondary, v.Secondary.Action)
		})
	}
}

func TestValidateDayPatch(t *testing.T) {
	d := date(2025, time.March, 3)
	nine, six := at(d, "09:00"), at(d, "18:00")
	noon, one := at(d, "12:00"), at(d, "13:00")

	assert.NoError(t, timeclock.ValidateDayPatch(&nine, &six, &noon, &one))
	assert.NoError(t, timeclock.ValidateDayPatch(nil, &six, nil, nil))

	reason, _ := timeclock.ReasonOf(timeclock.ValidateDayPatch(&six, &nine, nil, nil))
	assert.Equal(t, timeclock.ReasonClockOutBeforeClockIn, reason)

	reason, _ = timeclock.ReasonOf(timeclock.ValidateDayPatch(nil, nil, &one, &noon))
	assert.Equal(t, timeclock.ReasonReturnBeforeOuting, reason)
}
