/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave core via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List active employees
    POST   /api/employees                    Register employee
    GET    /api/employees/{id}               Get employee details
    GET    /api/employees/{id}/balance       Balance summary
    GET    /api/employees/{id}/balance-history  Balance audit trail
    GET    /api/employees/{id}/leave-history    Paginated request history

  Requests:
    GET    /api/leave-requests               List requests (filterable)
    POST   /api/leave-requests               Apply for leave
    PUT    /api/leave-requests/{id}/approve  Approve pending request
    PUT    /api/leave-requests/{id}/reject   Reject pending request
    PUT    /api/leave-requests/{id}/cancel   Cancel own pending request

  Dashboard:
    GET    /api/dashboard/stats              Aggregate statistics

REQUEST FLOW:
  1. Decode HTTP request
  2. Call domain logic (registry, engine, ledger, reports)
  3. Map domain records to DTOs
  4. Handle errors

ERROR HANDLING:
  Domain errors map to HTTP status via sentinel checks:
  - 400: Validation errors, rule violations, unknown approver
  - 404: Employee or request not found
  - 409: Duplicate email, request already decided
  - 500: Internal errors (never leak details to clients)

SECURITY NOTE:
  No authentication or authorization. Approver identity is taken from the
  request body and only checked for existence.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crewhr/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *leave.Registry
	Engine   *leave.Engine
	Ledger   *leave.Ledger
	Reports  *leave.Reports
}

// NewHandler builds the handler set over a transactional store.
func NewHandler(store leave.TxStore) *Handler {
	return &Handler{
		Registry: leave.NewRegistry(store),
		Engine:   leave.NewEngine(store),
		Ledger:   leave.NewLedger(store),
		Reports:  leave.NewReports(store),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all active employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Registry.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": dtos})
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	emp, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee registers a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Registry.Register(r.Context(), leave.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Department:  req.Department,
		JoiningDate: req.JoiningDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	emp, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the balance summary for an employee.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	summary, err := h.Ledger.Summary(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceSummaryDTO(*summary))
}

// GetBalanceHistory returns the append-only balance audit trail.
func (h *Handler) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.Ledger.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]BalanceHistoryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toBalanceHistoryDTO(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": dtos})
}

// GetLeaveHistory returns the employee's paginated request history.
func (h *Handler) GetLeaveHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	requests, total, err := h.Engine.History(r.Context(), id, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, limit = leave.NormalizePage(page, limit)
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, LeaveHistoryDTO{
		Requests:   dtos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListRequests returns leave requests, optionally filtered by employee and status.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	var filter leave.RequestFilter
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid employee_id", err)
			return
		}
		filter.EmployeeID = id
	}
	filter.Status = leave.RequestStatus(r.URL.Query().Get("status"))

	requests, err := h.Engine.ListRequests(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, map[string]any{"leave_requests": dtos})
}

// SubmitRequest applies for leave.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Engine.Apply(r.Context(), leave.ApplyInput{
		EmployeeID: req.EmployeeID,
		Type:       leave.LeaveType(req.LeaveType),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponseDTO{
		RequestID:     result.RequestID,
		DaysRequested: result.DaysRequested,
	})
}

// ApproveRequest approves a pending request and deducts the balance.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.ActionApprove)
}

// RejectRequest rejects a pending request. Balances are untouched.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.ActionReject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action leave.Action) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req DecideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	days, err := h.Engine.Decide(r.Context(), id, action, req.ApproverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DecideResponseDTO{
		RequestID:     id,
		Status:        string(action),
		DaysRequested: days,
	})
}

// CancelRequest cancels the caller's own pending request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CancelRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Engine.Cancel(r.Context(), id, req.EmployeeID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": id,
		"status":     string(leave.StatusCancelled),
	})
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetDashboard returns the aggregate statistics view.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(*stats))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses. Internal errors are
// reported without details.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leave.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, leave.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, leave.ErrApproverNotFound):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
