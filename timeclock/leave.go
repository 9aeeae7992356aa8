package timeclock

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type LeaveType string

const (
	LeavePaid              LeaveType = "PAID"
	LeaveSpecial           LeaveType = "SPECIAL"
	LeaveCompanyDesignated LeaveType = "COMPANY_DESIGNATED"
	LeaveOther             LeaveType = "OTHER"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeavePaid, LeaveSpecial, LeaveCompanyDesignated, LeaveOther:
		return true
	}
	return false
}

// ParseLeaveType accepts any casing.
func ParseLeaveType(s string) (LeaveType, error) {
	t := LeaveType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Reason: ReasonInvalidLeaveType, Detail: s}
	}
	return t, nil
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

type LeaveRequest struct {
	ID          LeaveID
	UserID      UserID
	Date        Date
	Type        LeaveType
	Name        string // free-form label, used for special leave
	Note        string
	Status      LeaveStatus
	RequestedAt time.Time
	DecidedAt   time.Time
	DecidedBy   UserID
}

// LeaveInput is what an employee submits.
type LeaveInput struct {
	UserID UserID
	Date   Date
	Type   LeaveType
	Name   string
	Note   string
}

// newLeaveRequest opens a request. Under auto approval it is approved on the
// spot with the requester recorded as decider.
func newLeaveRequest(id LeaveID, in LeaveInput, mode ApprovalMode, now time.Time) (LeaveRequest, error) {
	if !in.Type.Valid() {
		return LeaveRequest{}, &ValidationError{Reason: ReasonInvalidLeaveType, Detail: string(in.Type)}
	}
	if in.Date.IsZero() {
		return LeaveRequest{}, &ValidationError{Reason: ReasonInvalidDate, Detail: "leave date required"}
	}
	if in.UserID == "" {
		return LeaveRequest{}, &ValidationError{Reason: ReasonInvalidUser, Detail: "user required"}
	}
	req := LeaveRequest{
		ID:          id,
		UserID:      in.UserID,
		Date:        in.Date,
		Type:        in.Type,
		Name:        strings.TrimSpace(in.Name),
		Note:        strings.TrimSpace(in.Note),
		Status:      LeavePending,
		RequestedAt: now,
	}
	if mode == ApprovalAuto {
		req.Status = LeaveApproved
		req.DecidedAt = now
		req.DecidedBy = in.UserID
	}
	return req, nil
}

// decide applies a decision to the request with the given id. A request
// that was already decided can be decided again.
func decide(reqs []LeaveRequest, id LeaveID, approver UserID, approve bool, now time.Time) (LeaveRequest, error) {
	for i := range reqs {
		if reqs[i].ID != id {
			continue
		}
		reqs[i].Status = LeaveRejected
		if approve {
			reqs[i].Status = LeaveApproved
		}
		reqs[i].DecidedAt = now
		reqs[i].DecidedBy = approver
		return reqs[i], nil
	}
	return LeaveRequest{}, ErrLeaveNotFound
}

// SortLeaves orders by leave date, then request time.
func SortLeaves(reqs []LeaveRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].Date.Equal(reqs[j].Date) {
			return reqs[i].Date.Before(reqs[j].Date)
		}
		return reqs[i].RequestedAt.Before(reqs[j].RequestedAt)
	})
}

// ApprovedLeaveMap returns the user's approved leave within p, by date.
// When several approved requests share a date, the last one wins.
func ApprovedLeaveMap(reqs []LeaveRequest, user UserID, p Period) map[Date]LeaveRequest {
	out := make(map[Date]LeaveRequest)
	for _, r := range reqs {
		if r.UserID != user || r.Status != LeaveApproved || !p.Contains(r.Date) {
			continue
		}
		out[r.Date] = r
	}
	return out
}
