package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Reports serves the read-only dashboard aggregates. Pure derived queries,
// no new invariants.
type Reports struct {
	store Store

	// Now fixes the reference month/year of the rollup. Overridable in
	// tests; nil means time.Now.
	Now func() time.Time
}

// NewReports creates a reports service over the given store.
func NewReports(store Store) *Reports {
	return &Reports{store: store}
}

func (r *Reports) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// DepartmentStats is the per-department dashboard row.
type DepartmentStats struct {
	Department       string
	TotalEmployees   int
	EmployeesOnLeave int
	TotalRequests    int
	ApprovedRequests int
	// ApprovalRate is ApprovedRequests over TotalRequests as a percentage,
	// rounded to two decimals; zero when there are no requests.
	ApprovalRate float64
}

// DashboardStats is the aggregate dashboard view.
type DashboardStats struct {
	TotalEmployees    int
	PendingRequests   int
	ApprovedThisMonth int
	TypeDistribution  []TypeCount
	Departments       []DepartmentStats
}

// Dashboard builds the dashboard rollup for the current month.
func (r *Reports) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := r.now()
	snap, err := r.store.Stats(ctx, now.Year(), now.Month())
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	stats := &DashboardStats{
		TotalEmployees:    snap.TotalEmployees,
		PendingRequests:   snap.PendingRequests,
		ApprovedThisMonth: snap.ApprovedThisMonth,
		TypeDistribution:  snap.TypeCounts,
		Departments:       make([]DepartmentStats, 0, len(snap.Departments)),
	}

	for _, d := range snap.Departments {
		stats.Departments = append(stats.Departments, DepartmentStats{
			Department:       d.Department,
			TotalEmployees:   d.Employees,
			EmployeesOnLeave: d.OnLeave,
			TotalRequests:    d.Requests,
			ApprovedRequests: d.Approved,
			ApprovalRate:     approvalRate(d.Approved, d.Requests),
		})
	}
	return stats, nil
}

// approvalRate computes approved/total as a percentage with two decimals.
func approvalRate(approved, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(approved) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
	f, _ := rate.Float64()
	return f
}
