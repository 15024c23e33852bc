package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhr/leave-engine/leave"
)

func newTestReports(t *testing.T, env *testEnv) *leave.Reports {
	t.Helper()
	reports := leave.NewReports(env.store)
	reports.Now = fixedClock
	return reports
}

func TestReports_Dashboard_Empty(t *testing.T) {
	env := newTestEnv(t)
	reports := newTestReports(t, env)

	stats, err := reports.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEmployees)
	assert.Zero(t, stats.PendingRequests)
	assert.Zero(t, stats.ApprovedThisMonth)
	assert.Empty(t, stats.TypeDistribution)
	assert.Empty(t, stats.Departments)
}

func TestReports_Dashboard(t *testing.T) {
	// GIVEN: Two engineers and one salesperson; one approved annual request,
	//        one pending sick request, one rejected annual request
	// WHEN: Building the dashboard
	// THEN: Counts, distribution, and per-department approval rates line up

	env := newTestEnv(t)
	ctx := context.Background()
	reports := newTestReports(t, env)

	eng1 := env.addEmployee(t, "john doe", "john@example.com")
	eng2 := env.addEmployee(t, "jane doe", "jane@example.com")
	sales, err := env.registry.Register(ctx, leave.RegisterInput{
		Name:        "sam seller",
		Email:       "sam@example.com",
		Department:  "sales",
		JoiningDate: "2023-01-01",
	})
	require.NoError(t, err)

	approved := env.apply(t, eng1, leave.TypeAnnual, "2025-06-02", "2025-06-06")
	_, err = env.engine.Decide(ctx, approved.RequestID, leave.ActionApprove, eng2)
	require.NoError(t, err)

	env.apply(t, eng2, leave.TypeSick, "2025-06-09", "2025-06-10")

	rejected := env.apply(t, sales, leave.TypeAnnual, "2025-06-02", "2025-06-03")
	_, err = env.engine.Decide(ctx, rejected.RequestID, leave.ActionReject, eng2)
	require.NoError(t, err)

	stats, err := reports.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalEmployees)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, 1, stats.ApprovedThisMonth)

	distribution := map[leave.LeaveType]int{}
	for _, tc := range stats.TypeDistribution {
		distribution[tc.Type] = tc.Count
	}
	assert.Equal(t, 2, distribution[leave.TypeAnnual])
	assert.Equal(t, 1, distribution[leave.TypeSick])

	require.Len(t, stats.Departments, 2)
	byDept := map[string]leave.DepartmentStats{}
	for _, d := range stats.Departments {
		byDept[d.Department] = d
	}

	engineering := byDept["Engineering"]
	assert.Equal(t, 2, engineering.TotalEmployees)
	assert.Equal(t, 2, engineering.EmployeesOnLeave)
	assert.Equal(t, 2, engineering.TotalRequests)
	assert.Equal(t, 1, engineering.ApprovedRequests)
	assert.InDelta(t, 50.0, engineering.ApprovalRate, 0.001)

	salesDept := byDept["Sales"]
	assert.Equal(t, 1, salesDept.TotalEmployees)
	assert.Equal(t, 1, salesDept.TotalRequests)
	assert.Equal(t, 0, salesDept.ApprovedRequests)
	assert.Zero(t, salesDept.ApprovalRate)
}

func TestReports_ApprovalRateRounding(t *testing.T) {
	// 1 approved of 3 requests: 33.33 after rounding to two decimals.
	env := newTestEnv(t)
	ctx := context.Background()
	reports := newTestReports(t, env)

	empID := env.addEmployee(t, "john doe", "john@example.com")
	approverID := env.addEmployee(t, "boss hogg", "boss@example.com")

	first := env.apply(t, empID, leave.TypeEmergency, "2025-06-02", "2025-06-02")
	_, err := env.engine.Decide(ctx, first.RequestID, leave.ActionApprove, approverID)
	require.NoError(t, err)

	for _, day := range []string{"2025-06-03", "2025-06-04"} {
		r := env.apply(t, empID, leave.TypeEmergency, day, day)
		_, err := env.engine.Decide(ctx, r.RequestID, leave.ActionReject, approverID)
		require.NoError(t, err)
	}

	stats, err := reports.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Departments, 1)
	assert.InDelta(t, 33.33, stats.Departments[0].ApprovalRate, 0.001)
}
