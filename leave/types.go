// Package leave implements the leave-management core: employee registry,
// leave request lifecycle, and the balance ledger that records every
// balance-changing event as an immutable history entry.
package leave

import "time"

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveType identifies the kind of leave a request draws from.
type LeaveType string

const (
	TypeAnnual    LeaveType = "annual"
	TypeSick      LeaveType = "sick"
	TypeEmergency LeaveType = "emergency"
	TypeMaternity LeaveType = "maternity"
	TypePaternity LeaveType = "paternity"
)

// Types lists all recognized leave types.
var Types = []LeaveType{TypeAnnual, TypeSick, TypeEmergency, TypeMaternity, TypePaternity}

// Valid reports whether lt is one of the recognized leave types.
func (lt LeaveType) Valid() bool {
	for _, t := range Types {
		if lt == t {
			return true
		}
	}
	return false
}

// Deductible reports whether approvals of this type deduct from a balance.
// Emergency, maternity and paternity days are tracked but not balance-limited.
func (lt LeaveType) Deductible() bool {
	return lt == TypeAnnual || lt == TypeSick
}

// =============================================================================
// REQUEST STATUS
// =============================================================================

// RequestStatus is the lifecycle state of a leave request.
// Transitions: pending -> approved | rejected | cancelled, exactly once.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Valid reports whether s is a recognized request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Action is an approver's decision on a pending request.
type Action string

const (
	ActionApprove Action = "approved"
	ActionReject  Action = "rejected"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// DefaultAnnualBalance is the annual leave entitlement granted at registration.
	DefaultAnnualBalance = 21
	// DefaultSickBalance is the sick leave entitlement granted at registration.
	DefaultSickBalance = 10
	// MaxRequestWorkingDays caps the working days of a single request.
	MaxRequestWorkingDays = 30
	// MaxAdvanceDays caps how far ahead of today a request may start.
	MaxAdvanceDays = 365
)

// Ledger entry reasons. These are part of the audit contract: tests and
// downstream consumers match on them.
const (
	ReasonInitialBalance = "Initial balance"
	ReasonLeaveApproved  = "Leave approved"
)

// =============================================================================
// RECORDS
// =============================================================================

// Employee is the registry record. Balances are mutated only by the ledger
// during leave approval; employees are never hard-deleted (Active is a soft flag).
type Employee struct {
	ID            int64
	Name          string
	Email         string
	Department    string
	JoiningDate   Date
	AnnualBalance int
	SickBalance   int
	Active        bool
	CreatedAt     time.Time
}

// Balance returns the current balance for a deductible leave type.
// Non-deductible types always report zero.
func (e *Employee) Balance(lt LeaveType) int {
	switch lt {
	case TypeAnnual:
		return e.AnnualBalance
	case TypeSick:
		return e.SickBalance
	}
	return 0
}

// LeaveRequest references its requester and optional approver by id,
// never by embedding.
type LeaveRequest struct {
	ID            int64
	EmployeeID    int64
	Type          LeaveType
	StartDate     Date
	EndDate       Date
	DaysRequested int
	Reason        string
	Status        RequestStatus
	ApprovedBy    *int64
	ApprovedAt    *time.Time
	CreatedAt     time.Time

	// Display fields populated by list queries (joined, not stored).
	EmployeeName string
	Department   string
	ApproverName string
}

// BalanceHistoryEntry is an append-only audit fact: never mutated or deleted.
// Two entries are created at registration (initial balances) and one per
// approved deductible request.
type BalanceHistoryEntry struct {
	ID            int64
	EmployeeID    int64
	Type          LeaveType
	BalanceBefore int
	BalanceAfter  int
	ChangeAmount  int
	ChangeReason  string
	CreatedAt     time.Time
}
