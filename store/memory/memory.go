/*
Package memory provides the in-memory implementation of leave.TxStore,
used by tests and local development.

TRANSACTIONS:
  WithTx snapshots the store under the write lock, runs the closure against
  an unlocked view, and restores the snapshot if the closure fails. The write
  lock is held for the whole closure, so transactions serialize exactly like
  the SQLite store's.

ORDERING:
  Listings reproduce the SQLite ordering: employees by name, requests and
  history newest-first with id as the tiebreaker.
*/
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crewhr/leave-engine/leave"
)

// Store implements leave.TxStore over plain maps.
type Store struct {
	mu sync.RWMutex
	s  state
}

type state struct {
	employees map[int64]leave.Employee
	requests  map[int64]leave.LeaveRequest
	history   []leave.BalanceHistoryEntry

	nextEmployeeID int64
	nextRequestID  int64
	nextHistoryID  int64
}

var _ leave.TxStore = (*Store)(nil)

func New() *Store {
	return &Store{
		s: state{
			employees:      make(map[int64]leave.Employee),
			requests:       make(map[int64]leave.LeaveRequest),
			nextEmployeeID: 1,
			nextRequestID:  1,
			nextHistoryID:  1,
		},
	}
}

func (s *state) clone() state {
	cp := state{
		employees:      make(map[int64]leave.Employee, len(s.employees)),
		requests:       make(map[int64]leave.LeaveRequest, len(s.requests)),
		history:        make([]leave.BalanceHistoryEntry, len(s.history)),
		nextEmployeeID: s.nextEmployeeID,
		nextRequestID:  s.nextRequestID,
		nextHistoryID:  s.nextHistoryID,
	}
	for id, e := range s.employees {
		cp.employees[id] = e
	}
	for id, r := range s.requests {
		cp.requests[id] = r
	}
	copy(cp.history, s.history)
	return cp
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a transactional view, restoring the pre-transaction
// snapshot if fn returns an error.
func (s *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.s.clone()
	if err := fn(&txView{parent: s}); err != nil {
		s.s = snapshot
		return err
	}
	return nil
}

// txView bypasses the parent's locks: WithTx already holds the write lock.
type txView struct {
	parent *Store
}

var _ leave.Store = (*txView)(nil)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) InsertEmployee(ctx context.Context, e leave.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEmployee(e)
}

func (v *txView) InsertEmployee(ctx context.Context, e leave.Employee) (int64, error) {
	return v.parent.insertEmployee(e)
}

func (s *Store) insertEmployee(e leave.Employee) (int64, error) {
	for _, existing := range s.s.employees {
		if existing.Email == e.Email {
			return 0, leave.ErrDuplicateEmail
		}
	}
	e.ID = s.s.nextEmployeeID
	s.s.nextEmployeeID++
	s.s.employees[e.ID] = e
	return e.ID, nil
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(id)
}

func (v *txView) GetEmployee(ctx context.Context, id int64) (*leave.Employee, error) {
	return v.parent.getEmployee(id)
}

func (s *Store) getEmployee(id int64) (*leave.Employee, error) {
	e, ok := s.s.employees[id]
	if !ok || !e.Active {
		return nil, nil
	}
	cp := e
	return &cp, nil
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployeeByEmail(email)
}

func (v *txView) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	return v.parent.getEmployeeByEmail(email)
}

func (s *Store) getEmployeeByEmail(email string) (*leave.Employee, error) {
	for _, e := range s.s.employees {
		if e.Email == email {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees()
}

func (v *txView) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return v.parent.listEmployees()
}

func (s *Store) listEmployees() ([]leave.Employee, error) {
	var employees []leave.Employee
	for _, e := range s.s.employees {
		if e.Active {
			employees = append(employees, e)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		return strings.Compare(employees[i].Name, employees[j].Name) < 0
	})
	return employees, nil
}

func (s *Store) UpdateBalance(ctx context.Context, employeeID int64, lt leave.LeaveType, balance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBalance(employeeID, lt, balance)
}

func (v *txView) UpdateBalance(ctx context.Context, employeeID int64, lt leave.LeaveType, balance int) error {
	return v.parent.updateBalance(employeeID, lt, balance)
}

func (s *Store) updateBalance(employeeID int64, lt leave.LeaveType, balance int) error {
	e, ok := s.s.employees[employeeID]
	if !ok {
		return leave.ErrEmployeeNotFound
	}
	switch lt {
	case leave.TypeAnnual:
		e.AnnualBalance = balance
	case leave.TypeSick:
		e.SickBalance = balance
	default:
		return leave.ErrInvalidLeaveType
	}
	s.s.employees[employeeID] = e
	return nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) InsertRequest(ctx context.Context, r leave.LeaveRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRequest(r)
}

func (v *txView) InsertRequest(ctx context.Context, r leave.LeaveRequest) (int64, error) {
	return v.parent.insertRequest(r)
}

func (s *Store) insertRequest(r leave.LeaveRequest) (int64, error) {
	r.ID = s.s.nextRequestID
	s.s.nextRequestID++
	s.s.requests[r.ID] = r
	return r.ID, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(id)
}

func (v *txView) GetRequest(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	return v.parent.getRequest(id)
}

func (s *Store) getRequest(id int64) (*leave.LeaveRequest, error) {
	r, ok := s.s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := s.withNames(r)
	return &cp, nil
}

// withNames fills the display fields the SQLite store resolves via joins.
func (s *Store) withNames(r leave.LeaveRequest) leave.LeaveRequest {
	if e, ok := s.s.employees[r.EmployeeID]; ok {
		r.EmployeeName = e.Name
		r.Department = e.Department
	}
	if r.ApprovedBy != nil {
		if a, ok := s.s.employees[*r.ApprovedBy]; ok {
			r.ApproverName = a.Name
		}
	}
	return r
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(f)
}

func (v *txView) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return v.parent.listRequests(f)
}

func (s *Store) listRequests(f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	var requests []leave.LeaveRequest
	for _, r := range s.s.requests {
		if f.EmployeeID != 0 && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		requests = append(requests, s.withNames(r))
	}
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})

	if f.Limit > 0 {
		if f.Offset >= len(requests) {
			return nil, nil
		}
		requests = requests[f.Offset:]
		if len(requests) > f.Limit {
			requests = requests[:f.Limit]
		}
	}
	return requests, nil
}

func (s *Store) CountRequests(ctx context.Context, employeeID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRequests(employeeID)
}

func (v *txView) CountRequests(ctx context.Context, employeeID int64) (int, error) {
	return v.parent.countRequests(employeeID)
}

func (s *Store) countRequests(employeeID int64) (int, error) {
	count := 0
	for _, r := range s.s.requests {
		if r.EmployeeID == employeeID {
			count++
		}
	}
	return count, nil
}

func (s *Store) HasOverlap(ctx context.Context, employeeID int64, start, end leave.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasOverlap(employeeID, start, end)
}

func (v *txView) HasOverlap(ctx context.Context, employeeID int64, start, end leave.Date) (bool, error) {
	return v.parent.hasOverlap(employeeID, start, end)
}

func (s *Store) hasOverlap(employeeID int64, start, end leave.Date) (bool, error) {
	for _, r := range s.s.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
			continue
		}
		// Intervals intersect unless one ends before the other starts.
		if !r.EndDate.Before(start) && !r.StartDate.After(end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRequestStatus(id, status, decidedBy, decidedAt)
}

func (v *txView) UpdateRequestStatus(ctx context.Context, id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	return v.parent.updateRequestStatus(id, status, decidedBy, decidedAt)
}

func (s *Store) updateRequestStatus(id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	r, ok := s.s.requests[id]
	if !ok {
		return leave.ErrRequestNotFound
	}
	r.Status = status
	r.ApprovedBy = decidedBy
	r.ApprovedAt = decidedAt
	s.s.requests[id] = r
	return nil
}

// =============================================================================
// BALANCE HISTORY
// =============================================================================

func (s *Store) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendHistory(entry)
}

func (v *txView) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) (int64, error) {
	return v.parent.appendHistory(entry)
}

func (s *Store) appendHistory(entry leave.BalanceHistoryEntry) (int64, error) {
	entry.ID = s.s.nextHistoryID
	s.s.nextHistoryID++
	s.s.history = append(s.s.history, entry)
	return entry.ID, nil
}

func (s *Store) ListHistory(ctx context.Context, employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listHistory(employeeID)
}

func (v *txView) ListHistory(ctx context.Context, employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	return v.parent.listHistory(employeeID)
}

func (s *Store) listHistory(employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	var entries []leave.BalanceHistoryEntry
	for _, entry := range s.s.history {
		if entry.EmployeeID == employeeID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// =============================================================================
// AGGREGATES
// =============================================================================

func (s *Store) DaysByType(ctx context.Context, employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.daysByType(employeeID, status, year)
}

func (v *txView) DaysByType(ctx context.Context, employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	return v.parent.daysByType(employeeID, status, year)
}

func (s *Store) daysByType(employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	sums := make(map[leave.LeaveType]int)
	for _, r := range s.s.requests {
		if r.EmployeeID != employeeID || r.Status != status {
			continue
		}
		if year > 0 && r.StartDate.Year() != year {
			continue
		}
		sums[r.Type] += r.DaysRequested
	}
	return sums, nil
}

func (s *Store) Stats(ctx context.Context, year int, month time.Month) (*leave.StatsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats(year, month)
}

func (v *txView) Stats(ctx context.Context, year int, month time.Month) (*leave.StatsSnapshot, error) {
	return v.parent.stats(year, month)
}

func (s *Store) stats(year int, month time.Month) (*leave.StatsSnapshot, error) {
	snap := &leave.StatsSnapshot{TotalEmployees: len(s.s.employees)}

	typeCounts := make(map[leave.LeaveType]int)
	for _, r := range s.s.requests {
		if r.Status == leave.StatusPending {
			snap.PendingRequests++
		}
		if r.Status == leave.StatusApproved &&
			r.CreatedAt.UTC().Year() == year && r.CreatedAt.UTC().Month() == month {
			snap.ApprovedThisMonth++
		}
		if r.CreatedAt.UTC().Year() == year {
			typeCounts[r.Type]++
		}
	}
	for _, lt := range []leave.LeaveType{
		leave.TypeAnnual, leave.TypeEmergency, leave.TypeMaternity,
		leave.TypePaternity, leave.TypeSick,
	} {
		if n := typeCounts[lt]; n > 0 {
			snap.TypeCounts = append(snap.TypeCounts, leave.TypeCount{Type: lt, Count: n})
		}
	}

	byDept := make(map[string]*leave.DepartmentCounts)
	var departments []string
	for _, e := range s.s.employees {
		dc, ok := byDept[e.Department]
		if !ok {
			dc = &leave.DepartmentCounts{Department: e.Department}
			byDept[e.Department] = dc
			departments = append(departments, e.Department)
		}
		dc.Employees++
	}
	onLeave := make(map[string]map[int64]bool)
	for _, r := range s.s.requests {
		e, ok := s.s.employees[r.EmployeeID]
		if !ok {
			continue
		}
		dc := byDept[e.Department]
		dc.Requests++
		if r.Status == leave.StatusApproved {
			dc.Approved++
		}
		if onLeave[e.Department] == nil {
			onLeave[e.Department] = make(map[int64]bool)
		}
		onLeave[e.Department][r.EmployeeID] = true
	}
	for dept, members := range onLeave {
		byDept[dept].OnLeave = len(members)
	}

	sort.Strings(departments)
	for _, dept := range departments {
		snap.Departments = append(snap.Departments, *byDept[dept])
	}
	return snap, nil
}
