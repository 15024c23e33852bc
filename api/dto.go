/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific shapes (joined display names, formatted dates)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  DTOs are pure data carriers. Input validation lives in the leave package
  (validator tags on the service inputs); handlers only decode and map.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain records these map from
*/
package api

import (
	"time"

	"github.com/crewhr/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Department         string `json:"department"`
	JoiningDate        string `json:"joining_date"`
	AnnualLeaveBalance int    `json:"annual_leave_balance"`
	SickLeaveBalance   int    `json:"sick_leave_balance"`
	CreatedAt          string `json:"created_at,omitempty"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                 e.ID,
		Name:               e.Name,
		Email:              e.Email,
		Department:         e.Department,
		JoiningDate:        e.JoiningDate.String(),
		AnnualLeaveBalance: e.AnnualBalance,
		SickLeaveBalance:   e.SickBalance,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
	}
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	JoiningDate string `json:"joining_date"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID            int64  `json:"id"`
	EmployeeID    int64  `json:"employee_id"`
	EmployeeName  string `json:"employee_name,omitempty"`
	Department    string `json:"department,omitempty"`
	LeaveType     string `json:"leave_type"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DaysRequested int    `json:"days_requested"`
	Reason        string `json:"reason,omitempty"`
	Status        string `json:"status"`
	ApprovedBy    *int64 `json:"approved_by,omitempty"`
	ApproverName  string `json:"approver_name,omitempty"`
	ApprovedAt    string `json:"approved_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toLeaveRequestDTO(r leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		Department:    r.Department,
		LeaveType:     string(r.Type),
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		DaysRequested: r.DaysRequested,
		Reason:        r.Reason,
		Status:        string(r.Status),
		ApprovedBy:    r.ApprovedBy,
		ApproverName:  r.ApproverName,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.ApprovedAt != nil {
		dto.ApprovedAt = r.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

// SubmitRequestDTO is the request body for applying for leave.
type SubmitRequestDTO struct {
	EmployeeID int64  `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

// SubmitResponseDTO reports the created request.
type SubmitResponseDTO struct {
	RequestID     int64 `json:"request_id"`
	DaysRequested int   `json:"days_requested"`
}

// DecideRequestDTO is the request body for approving or rejecting.
type DecideRequestDTO struct {
	ApproverID int64 `json:"approver_id"`
}

// DecideResponseDTO reports the decision outcome.
type DecideResponseDTO struct {
	RequestID     int64  `json:"request_id"`
	Status        string `json:"status"`
	DaysRequested int    `json:"days_requested"`
}

// CancelRequestDTO is the request body for cancelling an own pending request.
type CancelRequestDTO struct {
	EmployeeID int64 `json:"employee_id"`
}

// LeaveHistoryDTO is the paginated leave history response.
type LeaveHistoryDTO struct {
	Requests   []LeaveRequestDTO `json:"requests"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// =============================================================================
// BALANCES
// =============================================================================

// TypeBalanceDTO is a per-type balance breakdown.
type TypeBalanceDTO struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Used      int `json:"used"`
	Pending   int `json:"pending"`
}

// BalanceSummaryDTO is the balance view for an employee.
type BalanceSummaryDTO struct {
	EmployeeID   int64          `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	AnnualLeave  TypeBalanceDTO `json:"annual_leave"`
	SickLeave    TypeBalanceDTO `json:"sick_leave"`
}

func toBalanceSummaryDTO(s leave.BalanceSummary) BalanceSummaryDTO {
	return BalanceSummaryDTO{
		EmployeeID:   s.Employee.ID,
		EmployeeName: s.Employee.Name,
		AnnualLeave:  TypeBalanceDTO(s.Annual),
		SickLeave:    TypeBalanceDTO(s.Sick),
	}
}

// BalanceHistoryDTO is one append-only ledger entry.
type BalanceHistoryDTO struct {
	ID            int64  `json:"id"`
	EmployeeID    int64  `json:"employee_id"`
	LeaveType     string `json:"leave_type"`
	BalanceBefore int    `json:"balance_before"`
	BalanceAfter  int    `json:"balance_after"`
	ChangeAmount  int    `json:"change_amount"`
	ChangeReason  string `json:"change_reason"`
	CreatedAt     string `json:"created_at"`
}

func toBalanceHistoryDTO(e leave.BalanceHistoryEntry) BalanceHistoryDTO {
	return BalanceHistoryDTO{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		LeaveType:     string(e.Type),
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		ChangeAmount:  e.ChangeAmount,
		ChangeReason:  e.ChangeReason,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

// TypeCountDTO is a per-leave-type request tally.
type TypeCountDTO struct {
	LeaveType string `json:"leave_type"`
	Count     int    `json:"count"`
}

// DepartmentStatsDTO is the per-department analytics row.
type DepartmentStatsDTO struct {
	Department       string  `json:"department"`
	TotalEmployees   int     `json:"total_employees"`
	EmployeesOnLeave int     `json:"employees_on_leave"`
	TotalRequests    int     `json:"total_requests"`
	ApprovedRequests int     `json:"approved_requests"`
	ApprovalRate     float64 `json:"approval_rate"`
}

// DashboardDTO is the aggregate dashboard response.
type DashboardDTO struct {
	TotalEmployees    int                  `json:"total_employees"`
	PendingRequests   int                  `json:"pending_requests"`
	ApprovedThisMonth int                  `json:"approved_this_month"`
	TypeDistribution  []TypeCountDTO       `json:"leave_type_distribution"`
	Departments       []DepartmentStatsDTO `json:"department_stats"`
}

func toDashboardDTO(s leave.DashboardStats) DashboardDTO {
	dto := DashboardDTO{
		TotalEmployees:    s.TotalEmployees,
		PendingRequests:   s.PendingRequests,
		ApprovedThisMonth: s.ApprovedThisMonth,
		TypeDistribution:  make([]TypeCountDTO, 0, len(s.TypeDistribution)),
		Departments:       make([]DepartmentStatsDTO, 0, len(s.Departments)),
	}
	for _, tc := range s.TypeDistribution {
		dto.TypeDistribution = append(dto.TypeDistribution, TypeCountDTO{
			LeaveType: string(tc.Type),
			Count:     tc.Count,
		})
	}
	for _, d := range s.Departments {
		dto.Departments = append(dto.Departments, DepartmentStatsDTO(d))
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON body for all error statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
