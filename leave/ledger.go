/*
ledger.go - Balance Ledger

PURPOSE:
  The only component allowed to mutate balances. Every change is recorded as
  an immutable history entry (before, after, signed change, reason).

TRANSACTIONAL USE:
  Deduct performs a read-modify-write and is meant to run inside the engine's
  approval transaction: the engine constructs a ledger over the tx-scoped
  store so the deduction and the status update commit or roll back together.

    err := store.WithTx(ctx, func(s leave.Store) error {
        if _, err := leave.NewLedger(s).Deduct(...); err != nil {
            return err // rollback, request stays pending
        }
        return s.UpdateRequestStatus(...)
    })
*/
package leave

import (
	"context"
	"fmt"
	"time"
)

// Ledger tracks current balances and the append-only history behind them.
type Ledger struct {
	store Store

	// Now drives the "current calendar year" of the balance summary and
	// history timestamps. Overridable in tests; nil means time.Now.
	Now func() time.Time
}

// NewLedger creates a ledger over the given store. Pass a tx-scoped store
// to make deductions part of an enclosing transaction.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}

// Deduct subtracts amount from the employee's balance for the given type and
// appends the matching history entry. Returns the new balance.
// Failure kinds: ErrEmployeeNotFound, ErrInsufficientBalance.
func (l *Ledger) Deduct(ctx context.Context, employeeID int64, lt LeaveType, amount int, reason string) (int, error) {
	if !lt.Deductible() {
		return 0, fmt.Errorf("leave type %q has no balance to deduct", lt)
	}

	emp, err := l.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return 0, ErrEmployeeNotFound
	}

	current := emp.Balance(lt)
	if amount > current {
		return 0, &InsufficientBalanceError{
			EmployeeID: employeeID,
			Type:       lt,
			Available:  current,
			Requested:  amount,
		}
	}

	next := current - amount
	if err := l.store.UpdateBalance(ctx, employeeID, lt, next); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	if _, err := l.store.AppendHistory(ctx, BalanceHistoryEntry{
		EmployeeID:    employeeID,
		Type:          lt,
		BalanceBefore: current,
		BalanceAfter:  next,
		ChangeAmount:  -amount,
		ChangeReason:  reason,
		CreatedAt:     l.now(),
	}); err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	return next, nil
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// TypeBalance is the per-type view of an employee's balance.
type TypeBalance struct {
	Total     int // entitlement constant for the type
	Available int // current stored balance
	Used      int // approved days starting in the current calendar year
	Pending   int // pending days; reserve nothing against Available
}

// BalanceSummary aggregates an employee's balances across deductible types.
type BalanceSummary struct {
	Employee Employee
	Annual   TypeBalance
	Sick     TypeBalance
}

// Summary builds the balance summary for an employee.
// Failure kind: ErrEmployeeNotFound.
func (l *Ledger) Summary(ctx context.Context, employeeID int64) (*BalanceSummary, error) {
	emp, err := l.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}

	pending, err := l.store.DaysByType(ctx, employeeID, StatusPending, 0)
	if err != nil {
		return nil, fmt.Errorf("sum pending days: %w", err)
	}
	used, err := l.store.DaysByType(ctx, employeeID, StatusApproved, l.now().Year())
	if err != nil {
		return nil, fmt.Errorf("sum used days: %w", err)
	}

	return &BalanceSummary{
		Employee: *emp,
		Annual: TypeBalance{
			Total:     DefaultAnnualBalance,
			Available: emp.AnnualBalance,
			Used:      used[TypeAnnual],
			Pending:   pending[TypeAnnual],
		},
		Sick: TypeBalance{
			Total:     DefaultSickBalance,
			Available: emp.SickBalance,
			Used:      used[TypeSick],
			Pending:   pending[TypeSick],
		},
	}, nil
}

// History returns the employee's balance history entries, newest first.
// Failure kind: ErrEmployeeNotFound.
func (l *Ledger) History(ctx context.Context, employeeID int64) ([]BalanceHistoryEntry, error) {
	emp, err := l.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return l.store.ListHistory(ctx, employeeID)
}
