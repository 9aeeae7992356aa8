/*
errors.go - Centralized error types for the timeclock engine

ERROR CATEGORIES:
  1. Illegal transitions - A punch the current state does not allow.
     Recoverable; the reason code is surfaced verbatim and never retried.
  2. Validation errors - Malformed or out-of-order input, rejected before
     anything is written.
  3. Storage errors - The row gateway failed. Always propagated.
  4. Not found - Unknown event / leave request / user.

Holiday source failures are not errors to callers; the cache logs them and
stays stale (see holiday.go).

USAGE:
  _, err := engine.ClockAction(ctx, req)
  var te *timeclock.TransitionError
  if errors.As(err, &te) {
      // te.Reason is one of the Reason* codes
  }
*/
package timeclock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIllegalTransition wraps every *TransitionError.
	ErrIllegalTransition = errors.New("illegal clock transition")

	// ErrValidation wraps every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrStorage wraps every *StorageError.
	ErrStorage = errors.New("storage unavailable")

	ErrEventNotFound = errors.New("event not found")
	ErrLeaveNotFound = errors.New("leave request not found")
	ErrUserNotFound  = errors.New("user not found")
)

// =============================================================================
// REASON CODES
// =============================================================================

// Reason is a stable, machine-readable rejection code.
type Reason string

const (
	ReasonAlreadyClockedIn  Reason = "already_clocked_in"
	ReasonAlreadyClockedOut Reason = "already_clocked_out"
	ReasonClockInRequired   Reason = "clock_in_required"
	ReasonAlreadyOuting     Reason = "already_outing"
	ReasonOutingRequired    Reason = "outing_required"
	ReasonInvalidAction     Reason = "invalid_action"

	ReasonClockOutBeforeClockIn Reason = "clock_out_before_clock_in"
	ReasonReturnBeforeOuting    Reason = "return_before_outing"
	ReasonInvalidEventType      Reason = "invalid_event_type"
	ReasonInvalidLeaveType      Reason = "invalid_leave_type"
	ReasonInvalidDate           Reason = "invalid_date"
	ReasonInvalidSettings       Reason = "invalid_settings"
	ReasonInvalidUser           Reason = "invalid_user"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports a punch rejected by the state machine.
type TransitionError struct {
	Reason Reason
	State  AttendanceState
	Action EventType
}

func (e *TransitionError) Error() string { return string(e.Reason) }

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// ValidationError reports input rejected before any write.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError reports a row gateway failure.
type StorageError struct {
	Op    string // read, append, replace, tail
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap exposes both the ErrStorage kind and the gateway's own error.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// ReasonOf extracts the reason code from transition and validation errors.
func ReasonOf(err error) (Reason, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Reason, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// IsClientError returns true if the error is due to the caller's input or
// the current attendance state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIllegalTransition) || errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrLeaveNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsStorageError returns true if the row gateway failed.
func IsStorageError(err error) bool { return errors.Is(err, ErrStorage) }
