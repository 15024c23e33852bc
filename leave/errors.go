/*
errors.go - Centralized error types for the leave core

PURPOSE:
  All business failures in one place. Every failure an operation can produce
  is a typed outcome; callers branch with errors.Is / errors.As and the HTTP
  layer maps them to status codes. Storage failures are wrapped with %w and
  surface as internal errors, never as business outcomes.

USAGE:
    if errors.Is(err, leave.ErrInsufficientBalance) { ... }

    var v *leave.ValidationError
    if errors.As(err, &v) { fmt.Println(v.Field, v.Message) }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all registration input failures.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned when registering an email that already
	// exists, compared case-insensitively.
	ErrDuplicateEmail = errors.New("employee with this email already exists")

	// ErrEmployeeNotFound is returned when an employee id does not resolve
	// to an active employee.
	ErrEmployeeNotFound = errors.New("employee not found or inactive")

	// ErrRequestNotFound is returned when a leave request id does not exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrApproverNotFound is returned when the deciding employee does not
	// resolve to an active employee.
	ErrApproverNotFound = errors.New("approver not found")

	// ErrInvalidLeaveType is returned for a leave type outside the five
	// recognized kinds.
	ErrInvalidLeaveType = errors.New("invalid leave type")

	// ErrInvalidDateFormat is returned when a date fails to parse as an
	// ISO calendar date (YYYY-MM-DD).
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")

	// ErrInvalidDateRange is returned when the start date is after the end date.
	ErrInvalidDateRange = errors.New("start date cannot be after end date")

	// ErrPastDate is returned when the leave starts before today.
	ErrPastDate = errors.New("cannot apply for leave on past dates")

	// ErrTooFarAhead is returned when the leave starts more than a year ahead.
	ErrTooFarAhead = errors.New("cannot apply for leave more than 1 year in advance")

	// ErrBeforeJoining is returned when the leave starts before the
	// employee's joining date.
	ErrBeforeJoining = errors.New("cannot apply for leave before joining date")

	// ErrNoWorkingDays is returned when the requested range contains no
	// working days (weekend-only ranges).
	ErrNoWorkingDays = errors.New("leave period contains no working days")

	// ErrInsufficientBalance is returned when the requested days exceed the
	// current balance for the leave type.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrOverlappingRequest is returned when the range shares a calendar day
	// with an existing pending or approved request.
	ErrOverlappingRequest = errors.New("overlapping leave request exists")

	// ErrExceedsMaxDuration is returned when the request covers more than
	// MaxRequestWorkingDays working days.
	ErrExceedsMaxDuration = errors.New("cannot apply for more than 30 working days")

	// ErrAlreadyDecided is returned when deciding or cancelling a request
	// that is no longer pending.
	ErrAlreadyDecided = errors.New("leave request already decided")

	// ErrInvalidStatus is returned for a status filter outside the four
	// recognized lifecycle states.
	ErrInvalidStatus = errors.New("invalid status")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which registration field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientBalanceError reports the shortage details.
type InsufficientBalanceError struct {
	EmployeeID int64
	Type       LeaveType
	Available  int
	Requested  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s leave balance: available %d, requested %d",
		e.Type, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// AlreadyDecidedError reports the status the request already reached.
type AlreadyDecidedError struct {
	RequestID int64
	Status    RequestStatus
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("leave request %d is already %s", e.RequestID, e.Status)
}

func (e *AlreadyDecidedError) Unwrap() error { return ErrAlreadyDecided }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error targets a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}

// IsClientError reports whether the error is a business-rule rejection of
// the caller's input, as opposed to an internal failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrDuplicateEmail, ErrApproverNotFound,
		ErrInvalidLeaveType, ErrInvalidDateFormat, ErrInvalidDateRange,
		ErrPastDate, ErrTooFarAhead, ErrBeforeJoining, ErrNoWorkingDays,
		ErrInsufficientBalance, ErrOverlappingRequest, ErrExceedsMaxDuration,
		ErrAlreadyDecided, ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return IsNotFound(err)
}
