/*
engine.go - Leave Request Engine

PURPOSE:
  Validates, creates, lists, and transitions leave requests. All business
  rules of the request lifecycle live here; persistence is behind Store.

SERIALIZATION:
  Every mutating operation runs inside WithTx. The store implementations hold
  their write lock for the duration of the closure, so check-then-write
  sequences (overlap check -> insert, balance check -> deduct -> status
  update) cannot interleave. Approval is the critical transaction: the
  ledger deduction and the status transition commit or roll back together.
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine drives the leave request lifecycle.
type Engine struct {
	store TxStore

	// Now is the clock used for "today" in date validation and decision
	// timestamps. Overridable in tests; nil means time.Now.
	Now func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(store TxStore) *Engine {
	return &Engine{store: store}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// =============================================================================
// APPLY
// =============================================================================

// ApplyInput is a leave application as submitted by the caller.
type ApplyInput struct {
	EmployeeID int64
	Type       LeaveType
	StartDate  string
	EndDate    string
	Reason     string
}

// ApplyResult reports the created request and its computed working days.
type ApplyResult struct {
	RequestID     int64
	DaysRequested int
}

// Apply validates a leave application and persists it as pending.
//
// Rules, in order: employee must be active; leave type recognized; date range
// valid (format, order, not past, not >1y ahead); start not before joining;
// range must contain working days; deductible types must fit the current
// balance (pending requests reserve nothing); no overlap with pending or
// approved requests; at most MaxRequestWorkingDays working days.
func (e *Engine) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	var result ApplyResult
	err := e.store.WithTx(ctx, func(s Store) error {
		emp, err := s.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return fmt.Errorf("get employee: %w", err)
		}
		if emp == nil {
			return ErrEmployeeNotFound
		}

		if !in.Type.Valid() {
			return ErrInvalidLeaveType
		}

		start, end, err := ValidateRange(in.StartDate, in.EndDate, DateOf(e.now()))
		if err != nil {
			return err
		}

		if start.Before(emp.JoiningDate) {
			return ErrBeforeJoining
		}

		days := WorkingDays(start, end)
		if days == 0 {
			return ErrNoWorkingDays
		}

		if in.Type.Deductible() && days > emp.Balance(in.Type) {
			return &InsufficientBalanceError{
				EmployeeID: emp.ID,
				Type:       in.Type,
				Available:  emp.Balance(in.Type),
				Requested:  days,
			}
		}

		overlap, err := s.HasOverlap(ctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("overlap check: %w", err)
		}
		if overlap {
			return ErrOverlappingRequest
		}

		if days > MaxRequestWorkingDays {
			return ErrExceedsMaxDuration
		}

		id, err := s.InsertRequest(ctx, LeaveRequest{
			EmployeeID:    emp.ID,
			Type:          in.Type,
			StartDate:     start,
			EndDate:       end,
			DaysRequested: days,
			Reason:        strings.TrimSpace(in.Reason),
			Status:        StatusPending,
			CreatedAt:     e.now(),
		})
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}

		result = ApplyResult{RequestID: id, DaysRequested: days}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// DECIDE
// =============================================================================

// Decide approves or rejects a pending request and returns the days processed.
//
// Approval deducts the request's working days from the matching balance (for
// deductible types) and flips the status in one transaction: if the balance
// has drifted short since application, the decision fails with
// ErrInsufficientBalance and the request stays pending.
func (e *Engine) Decide(ctx context.Context, requestID int64, action Action, approverID int64) (int, error) {
	if action != ActionApprove && action != ActionReject {
		return 0, fmt.Errorf("invalid action %q: use %q or %q", action, ActionApprove, ActionReject)
	}

	var days int
	err := e.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.Status != StatusPending {
			return &AlreadyDecidedError{RequestID: req.ID, Status: req.Status}
		}

		approver, err := s.GetEmployee(ctx, approverID)
		if err != nil {
			return fmt.Errorf("get approver: %w", err)
		}
		if approver == nil {
			return ErrApproverNotFound
		}

		if action == ActionApprove && req.Type.Deductible() {
			if _, err := NewLedger(s).Deduct(ctx, req.EmployeeID, req.Type, req.DaysRequested, ReasonLeaveApproved); err != nil {
				return err
			}
		}

		now := e.now()
		status := StatusRejected
		if action == ActionApprove {
			status = StatusApproved
		}
		if err := s.UpdateRequestStatus(ctx, req.ID, status, &approverID, &now); err != nil {
			return fmt.Errorf("update request status: %w", err)
		}

		days = req.DaysRequested
		return nil
	})
	if err != nil {
		return 0, err
	}
	return days, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel lets an employee withdraw their own pending request. Cancelled is
// terminal: the request no longer counts for overlap and never affects a
// balance. Requests of other employees are reported as not found.
func (e *Engine) Cancel(ctx context.Context, requestID, employeeID int64) error {
	return e.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if req == nil || req.EmployeeID != employeeID {
			return ErrRequestNotFound
		}
		if req.Status != StatusPending {
			return &AlreadyDecidedError{RequestID: req.ID, Status: req.Status}
		}
		if err := s.UpdateRequestStatus(ctx, req.ID, StatusCancelled, nil, nil); err != nil {
			return fmt.Errorf("update request status: %w", err)
		}
		return nil
	})
}

// =============================================================================
// QUERIES
// =============================================================================

// ListRequests returns requests matching the optional filters, newest first,
// joined with requester and approver display names.
// Failure kind: ErrInvalidStatus for an unrecognized status filter.
func (e *Engine) ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	return e.store.ListRequests(ctx, f)
}

const (
	historyDefaultLimit = 10
	historyMaxLimit     = 100
)

// NormalizePage applies the pagination defaults used by History:
// page defaults to 1, limit to 10 and is capped at 100.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	return page, limit
}

// History returns one page of an employee's leave requests, newest first,
// plus the total count. Pagination defaults follow NormalizePage.
// Failure kind: ErrEmployeeNotFound.
func (e *Engine) History(ctx context.Context, employeeID int64, page, limit int) ([]LeaveRequest, int, error) {
	emp, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, 0, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, 0, ErrEmployeeNotFound
	}

	page, limit = NormalizePage(page, limit)

	items, err := e.store.ListRequests(ctx, RequestFilter{
		EmployeeID: employeeID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	total, err := e.store.CountRequests(ctx, employeeID)
	if err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return items, total, nil
}
