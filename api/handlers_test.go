package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhr/leave-engine/api"
	"github.com/crewhr/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Fixed clock: Monday 2025-06-02 at noon UTC.
var testNow = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	h := api.NewHandler(store)
	clock := func() time.Time { return testNow }
	h.Registry.Now = clock
	h.Engine.Now = clock
	h.Ledger.Now = clock
	h.Reports.Now = clock

	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createEmployee(t *testing.T, srv *httptest.Server, name, email string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]any{
		"name":         name,
		"email":        email,
		"department":   "engineering",
		"joining_date": "2023-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	return int64(body["id"].(float64))
}

func submitRequest(t *testing.T, srv *httptest.Server, employeeID int64, lt, start, end string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/leave-requests", map[string]any{
		"employee_id": employeeID,
		"leave_type":  lt,
		"start_date":  start,
		"end_date":    end,
		"reason":      "vacation",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	return int64(body["request_id"].(float64))
}

// =============================================================================
// EMPLOYEE ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateAndGetEmployee(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]any{
		"name":         "john doe",
		"email":        "John.Doe@Example.com",
		"department":   "engineering",
		"joining_date": "2023-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "John Doe", body["name"])
	assert.Equal(t, "john.doe@example.com", body["email"])
	assert.Equal(t, "Engineering", body["department"])
	assert.EqualValues(t, 21, body["annual_leave_balance"])
	assert.EqualValues(t, 10, body["sick_leave_balance"])

	id := int64(body["id"].(float64))
	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/employees/%d", srv.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "John Doe", body["name"])
}

func TestAPI_CreateEmployee_Errors(t *testing.T) {
	srv := newTestServer(t)
	createEmployee(t, srv, "john doe", "john@example.com")

	t.Run("validation failure", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]any{
			"name":         "j",
			"email":        "john2@example.com",
			"department":   "engineering",
			"joining_date": "2023-01-01",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "name")
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]any{
			"name":         "john clone",
			"email":        "JOHN@example.com",
			"department":   "engineering",
			"joining_date": "2023-01-01",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/employees",
			bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_GetEmployee_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/employees/404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/employees/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListEmployees(t *testing.T) {
	srv := newTestServer(t)
	createEmployee(t, srv, "zoe adams", "zoe@example.com")
	createEmployee(t, srv, "amy brown", "amy@example.com")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/employees", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	employees := body["employees"].([]any)
	require.Len(t, employees, 2)
	assert.Equal(t, "Amy Brown", employees[0].(map[string]any)["name"])
}

// =============================================================================
// LEAVE REQUEST ENDPOINT TESTS
// =============================================================================

func TestAPI_LeaveRequestLifecycle(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	approverID := createEmployee(t, srv, "boss hogg", "boss@example.com")

	// Submit: full work week
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/leave-requests", map[string]any{
		"employee_id": empID,
		"leave_type":  "annual",
		"start_date":  "2025-06-02",
		"end_date":    "2025-06-06",
		"reason":      "vacation",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 5, body["days_requested"])
	reqID := int64(body["request_id"].(float64))

	// Approve
	resp, body = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/leave-requests/%d/approve", srv.URL, reqID),
		map[string]any{"approver_id": approverID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["status"])
	assert.EqualValues(t, 5, body["days_requested"])

	// Balance reflects the deduction
	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/balance", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	annual := body["annual_leave"].(map[string]any)
	assert.EqualValues(t, 21, annual["total"])
	assert.EqualValues(t, 16, annual["available"])
	assert.EqualValues(t, 5, annual["used"])
	assert.EqualValues(t, 0, annual["pending"])

	// Second approval conflicts
	resp, _ = doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/leave-requests/%d/approve", srv.URL, reqID),
		map[string]any{"approver_id": approverID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_SubmitRequest_RuleViolations(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "unknown employee",
			body: map[string]any{"employee_id": 404, "leave_type": "annual",
				"start_date": "2025-06-02", "end_date": "2025-06-06"},
			want: http.StatusNotFound,
		},
		{
			name: "invalid leave type",
			body: map[string]any{"employee_id": empID, "leave_type": "sabbatical",
				"start_date": "2025-06-02", "end_date": "2025-06-06"},
			want: http.StatusBadRequest,
		},
		{
			name: "past start date",
			body: map[string]any{"employee_id": empID, "leave_type": "annual",
				"start_date": "2025-05-30", "end_date": "2025-06-06"},
			want: http.StatusBadRequest,
		},
		{
			name: "weekend only",
			body: map[string]any{"employee_id": empID, "leave_type": "annual",
				"start_date": "2025-06-07", "end_date": "2025-06-08"},
			want: http.StatusBadRequest,
		},
		{
			name: "insufficient balance",
			body: map[string]any{"employee_id": empID, "leave_type": "sick",
				"start_date": "2025-06-02", "end_date": "2025-06-16"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/leave-requests", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, "body: %v", body)
			assert.NotEmpty(t, body["error"])
		})
	}

	t.Run("overlap", func(t *testing.T) {
		submitRequest(t, srv, empID, "annual", "2025-06-09", "2025-06-13")
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/leave-requests", map[string]any{
			"employee_id": empID, "leave_type": "sick",
			"start_date": "2025-06-10", "end_date": "2025-06-11",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_RejectRequest(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	approverID := createEmployee(t, srv, "boss hogg", "boss@example.com")
	reqID := submitRequest(t, srv, empID, "annual", "2025-06-02", "2025-06-06")

	resp, body := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/leave-requests/%d/reject", srv.URL, reqID),
		map[string]any{"approver_id": approverID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", body["status"])

	// Balance untouched
	_, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/balance", srv.URL, empID), nil)
	annual := body["annual_leave"].(map[string]any)
	assert.EqualValues(t, 21, annual["available"])
}

func TestAPI_DecideRequest_Errors(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	reqID := submitRequest(t, srv, empID, "annual", "2025-06-02", "2025-06-06")

	t.Run("unknown request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/leave-requests/404/approve",
			map[string]any{"approver_id": empID})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown approver", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut,
			fmt.Sprintf("%s/api/leave-requests/%d/approve", srv.URL, reqID),
			map[string]any{"approver_id": 404})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_CancelRequest(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	otherID := createEmployee(t, srv, "jane doe", "jane@example.com")
	reqID := submitRequest(t, srv, empID, "annual", "2025-06-02", "2025-06-06")

	t.Run("not the owner", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut,
			fmt.Sprintf("%s/api/leave-requests/%d/cancel", srv.URL, reqID),
			map[string]any{"employee_id": otherID})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("owner cancels", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut,
			fmt.Sprintf("%s/api/leave-requests/%d/cancel", srv.URL, reqID),
			map[string]any{"employee_id": empID})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "cancelled", body["status"])
	})

	t.Run("already cancelled", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut,
			fmt.Sprintf("%s/api/leave-requests/%d/cancel", srv.URL, reqID),
			map[string]any{"employee_id": empID})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestAPI_ListRequests(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	otherID := createEmployee(t, srv, "jane doe", "jane@example.com")
	submitRequest(t, srv, empID, "annual", "2025-06-02", "2025-06-06")
	submitRequest(t, srv, otherID, "sick", "2025-06-02", "2025-06-03")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/leave-requests", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["leave_requests"], 2)

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/leave-requests?employee_id=%d", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	requests := body["leave_requests"].([]any)
	require.Len(t, requests, 1)
	assert.Equal(t, "John Doe", requests[0].(map[string]any)["employee_name"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/leave-requests?status=pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["leave_requests"], 2)

	// Unrecognized status filter is a client error, not an internal one
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/leave-requests?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid status")
}

// =============================================================================
// HISTORY ENDPOINT TESTS
// =============================================================================

func TestAPI_LeaveHistory_Pagination(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")

	for i := 0; i < 12; i++ {
		day := testNow.AddDate(0, 0, i*7).Format("2006-01-02")
		submitRequest(t, srv, empID, "emergency", day, day)
	}

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/leave-history", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 12, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 10, body["limit"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.Len(t, body["requests"], 10)

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/leave-history?page=2&limit=10", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["requests"], 2)

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/leave-history?limit=1000", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["limit"])
}

func TestAPI_BalanceHistory(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/employees/%d/balance-history", srv.URL, empID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history := body["history"].([]any)
	require.Len(t, history, 2)
	entry := history[0].(map[string]any)
	assert.Equal(t, "Initial balance", entry["change_reason"])
}

// =============================================================================
// DASHBOARD AND HEALTH TESTS
// =============================================================================

func TestAPI_DashboardStats(t *testing.T) {
	srv := newTestServer(t)
	empID := createEmployee(t, srv, "john doe", "john@example.com")
	approverID := createEmployee(t, srv, "boss hogg", "boss@example.com")

	reqID := submitRequest(t, srv, empID, "annual", "2025-06-02", "2025-06-06")
	resp, _ := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/leave-requests/%d/approve", srv.URL, reqID),
		map[string]any{"approver_id": approverID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	submitRequest(t, srv, approverID, "sick", "2025-06-09", "2025-06-10")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total_employees"])
	assert.EqualValues(t, 1, body["pending_requests"])
	assert.EqualValues(t, 1, body["approved_this_month"])

	depts := body["department_stats"].([]any)
	require.Len(t, depts, 1)
	dept := depts[0].(map[string]any)
	assert.Equal(t, "Engineering", dept["department"])
	assert.EqualValues(t, 2, dept["total_requests"])
	assert.EqualValues(t, 50, dept["approval_rate"])
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
