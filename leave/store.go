/*
store.go - Storage contract for the leave core

PURPOSE:
  Defines the persistence interfaces the domain services depend on.
  Implementations: store/sqlite (production), store/memory (tests/dev).

TRANSACTIONS:
  TxStore.WithTx runs a closure over a transaction-scoped Store. The closure's
  error triggers rollback; nil commits. All mutating operations of the core
  run inside WithTx so that check-then-write sequences are serialized (the
  implementations hold a write lock for the duration of the closure).

ROW MAPPING:
  Implementations map rows to the record types in types.go at the boundary
  only; no storage types leak into the domain.
*/
package leave

import (
	"context"
	"time"
)

// RequestFilter narrows ListRequests. Zero values mean "no filter".
type RequestFilter struct {
	EmployeeID int64
	Status     RequestStatus
	Limit      int
	Offset     int
}

// TypeCount is a per-leave-type tally used by aggregate queries.
type TypeCount struct {
	Type  LeaveType
	Count int
}

// DepartmentCounts is the raw per-department rollup produced by the store.
type DepartmentCounts struct {
	Department string
	Employees  int
	OnLeave    int
	Requests   int
	Approved   int
}

// StatsSnapshot is the raw dashboard rollup produced by the store.
// Derived figures (rates) are computed by the reports service.
type StatsSnapshot struct {
	TotalEmployees    int
	PendingRequests   int
	ApprovedThisMonth int
	TypeCounts        []TypeCount // requests created in the reference year
	Departments       []DepartmentCounts
}

// Store is the persistence surface of the leave core.
type Store interface {
	// Employees
	InsertEmployee(ctx context.Context, e Employee) (int64, error)
	// GetEmployee resolves an active employee; (nil, nil) when missing or inactive.
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	// GetEmployeeByEmail matches the stored (lowercased) email exactly,
	// active or not; (nil, nil) when absent.
	GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	// ListEmployees returns active employees ordered by name.
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateBalance(ctx context.Context, employeeID int64, lt LeaveType, balance int) error

	// Leave requests
	InsertRequest(ctx context.Context, r LeaveRequest) (int64, error)
	// GetRequest returns (nil, nil) when absent.
	GetRequest(ctx context.Context, id int64) (*LeaveRequest, error)
	// ListRequests returns requests ordered by creation time descending,
	// joined with requester and approver display names.
	ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error)
	CountRequests(ctx context.Context, employeeID int64) (int, error)
	// HasOverlap checks interval intersection against pending and approved
	// requests of the employee.
	HasOverlap(ctx context.Context, employeeID int64, start, end Date) (bool, error)
	UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus, decidedBy *int64, decidedAt *time.Time) error

	// Balance history (append-only)
	AppendHistory(ctx context.Context, entry BalanceHistoryEntry) (int64, error)
	ListHistory(ctx context.Context, employeeID int64) ([]BalanceHistoryEntry, error)

	// Aggregates
	// DaysByType sums days_requested per leave type for the employee's
	// requests in the given status. year > 0 restricts to requests whose
	// start date falls in that calendar year.
	DaysByType(ctx context.Context, employeeID int64, status RequestStatus, year int) (map[LeaveType]int, error)
	// Stats produces the dashboard rollup for the given reference month.
	Stats(ctx context.Context, year int, month time.Month) (*StatsSnapshot, error)
}

// TxStore is a Store that can run closures transactionally.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
