/*
Package sqlite provides the SQLite-backed implementation of leave.TxStore.

SCHEMA:
  employees:             registry records with current balances
  leave_requests:        request lifecycle rows
  leave_balance_history: append-only audit ledger (no UPDATE, no DELETE)

CONCURRENCY:
  A sync.RWMutex is the global serialization point for mutations: WithTx holds
  the write lock for the whole closure, so check-then-write sequences inside a
  transaction cannot interleave. Reads take the read lock and never observe a
  partially applied transaction.

TRANSACTIONS:
  WithTx wraps a database transaction; the closure receives a Store view bound
  to that transaction. Closure error or commit failure rolls everything back.
  All queries are written once against a querier seam (db-or-tx), so locked
  public methods and the transaction view share one implementation.

MIGRATION:
  Schema is auto-migrated on New(). Dates are stored as ISO day strings
  (lexicographically ordered), timestamps as RFC3339 UTC.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crewhr/leave-engine/leave"
)

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.TxStore = (*Store)(nil)

// New creates a SQLite store at the given path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: each pooled connection to ":memory:" would otherwise
	// see its own empty database, and the store serializes writes anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		department TEXT NOT NULL,
		joining_date TEXT NOT NULL,
		annual_leave_balance INTEGER NOT NULL DEFAULT 21,
		sick_leave_balance INTEGER NOT NULL DEFAULT 10,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL CHECK (leave_type IN ('annual','sick','emergency','maternity','paternity')),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_requested INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected','cancelled')),
		approved_by INTEGER REFERENCES employees(id),
		approved_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: overlap checks and status filters per employee
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON leave_requests(employee_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	-- Append-only audit ledger
	CREATE TABLE IF NOT EXISTS leave_balance_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL,
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		change_amount INTEGER NOT NULL,
		change_reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_employee
		ON leave_balance_history(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so every query is written once.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction, holding the store's
// write lock for the duration.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{parent: s, q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView is the transaction-scoped Store handed to WithTx closures.
// It bypasses the parent's locks: the write lock is already held.
type txView struct {
	parent *Store
	q      *sql.Tx
}

var _ leave.Store = (*txView)(nil)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) InsertEmployee(ctx context.Context, e leave.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEmployee(ctx, s.db, e)
}

func (v *txView) InsertEmployee(ctx context.Context, e leave.Employee) (int64, error) {
	return v.parent.insertEmployee(ctx, v.q, e)
}

func (s *Store) insertEmployee(ctx context.Context, q querier, e leave.Employee) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO employees (name, email, department, joining_date,
			annual_leave_balance, sick_leave_balance, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Email, e.Department, e.JoiningDate.String(),
		e.AnnualBalance, e.SickBalance, boolToInt(e.Active),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, leave.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}
	return res.LastInsertId()
}

const employeeColumns = `id, name, email, department, joining_date,
	annual_leave_balance, sick_leave_balance, is_active, created_at`

func (s *Store) GetEmployee(ctx context.Context, id int64) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, id)
}

func (v *txView) GetEmployee(ctx context.Context, id int64) (*leave.Employee, error) {
	return v.parent.getEmployee(ctx, v.q, id)
}

func (s *Store) getEmployee(ctx context.Context, q querier, id int64) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees WHERE id = ? AND is_active = 1`, id)
	return scanEmployee(row)
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployeeByEmail(ctx, s.db, email)
}

func (v *txView) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	return v.parent.getEmployeeByEmail(ctx, v.q, email)
}

func (s *Store) getEmployeeByEmail(ctx context.Context, q querier, email string) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees WHERE email = ?`, email)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees(ctx, s.db)
}

func (v *txView) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return v.parent.listEmployees(ctx, v.q)
}

func (s *Store) listEmployees(ctx context.Context, q querier) ([]leave.Employee, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployeeFrom(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateBalance(ctx context.Context, employeeID int64, lt leave.LeaveType, balance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBalance(ctx, s.db, employeeID, lt, balance)
}

func (v *txView) UpdateBalance(ctx context.Context, employeeID int64, lt leave.LeaveType, balance int) error {
	return v.parent.updateBalance(ctx, v.q, employeeID, lt, balance)
}

func (s *Store) updateBalance(ctx context.Context, q querier, employeeID int64, lt leave.LeaveType, balance int) error {
	var column string
	switch lt {
	case leave.TypeAnnual:
		column = "annual_leave_balance"
	case leave.TypeSick:
		column = "sick_leave_balance"
	default:
		return fmt.Errorf("leave type %q has no balance column", lt)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE employees SET `+column+` = ? WHERE id = ?`, balance, employeeID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) InsertRequest(ctx context.Context, r leave.LeaveRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRequest(ctx, s.db, r)
}

func (v *txView) InsertRequest(ctx context.Context, r leave.LeaveRequest) (int64, error) {
	return v.parent.insertRequest(ctx, v.q, r)
}

func (s *Store) insertRequest(ctx context.Context, q querier, r leave.LeaveRequest) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date,
			days_requested, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.EmployeeID, string(r.Type), r.StartDate.String(), r.EndDate.String(),
		r.DaysRequested, r.Reason, string(r.Status),
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return res.LastInsertId()
}

const requestColumns = `lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
	lr.days_requested, lr.reason, lr.status, lr.approved_by, lr.approved_at, lr.created_at,
	e.name, e.department, COALESCE(a.name, '')`

const requestJoins = `
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id
	LEFT JOIN employees a ON a.id = lr.approved_by`

func (s *Store) GetRequest(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(ctx, s.db, id)
}

func (v *txView) GetRequest(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	return v.parent.getRequest(ctx, v.q, id)
}

func (s *Store) getRequest(ctx context.Context, q querier, id int64) (*leave.LeaveRequest, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+requestColumns+requestJoins+` WHERE lr.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	req, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(ctx, s.db, f)
}

func (v *txView) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return v.parent.listRequests(ctx, v.q, f)
}

func (s *Store) listRequests(ctx context.Context, q querier, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + requestJoins + ` WHERE 1=1`
	var args []any

	if f.EmployeeID != 0 {
		query += " AND lr.employee_id = ?"
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		query += " AND lr.status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY lr.created_at DESC, lr.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) CountRequests(ctx context.Context, employeeID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRequests(ctx, s.db, employeeID)
}

func (v *txView) CountRequests(ctx context.Context, employeeID int64) (int, error) {
	return v.parent.countRequests(ctx, v.q, employeeID)
}

func (s *Store) countRequests(ctx context.Context, q querier, employeeID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE employee_id = ?`, employeeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leave requests: %w", err)
	}
	return count, nil
}

func (s *Store) HasOverlap(ctx context.Context, employeeID int64, start, end leave.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasOverlap(ctx, s.db, employeeID, start, end)
}

func (v *txView) HasOverlap(ctx context.Context, employeeID int64, start, end leave.Date) (bool, error) {
	return v.parent.hasOverlap(ctx, v.q, employeeID, start, end)
}

func (s *Store) hasOverlap(ctx context.Context, q querier, employeeID int64, start, end leave.Date) (bool, error) {
	// Interval intersection: existing range contains the new start, contains
	// the new end, or lies fully inside the new range. ISO day strings
	// compare lexicographically.
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leave_requests
		WHERE employee_id = ? AND status IN ('pending', 'approved')
		AND ((start_date <= ? AND end_date >= ?)
		  OR (start_date <= ? AND end_date >= ?)
		  OR (start_date >= ? AND end_date <= ?))`,
		employeeID,
		start.String(), start.String(),
		end.String(), end.String(),
		start.String(), end.String(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return count > 0, nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRequestStatus(ctx, s.db, id, status, decidedBy, decidedAt)
}

func (v *txView) UpdateRequestStatus(ctx context.Context, id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	return v.parent.updateRequestStatus(ctx, v.q, id, status, decidedBy, decidedAt)
}

func (s *Store) updateRequestStatus(ctx context.Context, q querier, id int64, status leave.RequestStatus, decidedBy *int64, decidedAt *time.Time) error {
	var by sql.NullInt64
	if decidedBy != nil {
		by = sql.NullInt64{Int64: *decidedBy, Valid: true}
	}
	var at sql.NullString
	if decidedAt != nil {
		at = sql.NullString{String: decidedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests SET status = ?, approved_by = ?, approved_at = ?
		WHERE id = ?`,
		string(status), by, at, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrRequestNotFound
	}
	return nil
}

// =============================================================================
// BALANCE HISTORY
// =============================================================================

func (s *Store) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendHistory(ctx, s.db, entry)
}

func (v *txView) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) (int64, error) {
	return v.parent.appendHistory(ctx, v.q, entry)
}

func (s *Store) appendHistory(ctx context.Context, q querier, entry leave.BalanceHistoryEntry) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO leave_balance_history (employee_id, leave_type, balance_before,
			balance_after, change_amount, change_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.EmployeeID, string(entry.Type), entry.BalanceBefore,
		entry.BalanceAfter, entry.ChangeAmount, entry.ChangeReason,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append balance history: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListHistory(ctx context.Context, employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listHistory(ctx, s.db, employeeID)
}

func (v *txView) ListHistory(ctx context.Context, employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	return v.parent.listHistory(ctx, v.q, employeeID)
}

func (s *Store) listHistory(ctx context.Context, q querier, employeeID int64) ([]leave.BalanceHistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, leave_type, balance_before, balance_after,
			change_amount, change_reason, created_at
		FROM leave_balance_history
		WHERE employee_id = ?
		ORDER BY created_at DESC, id DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance history: %w", err)
	}
	defer rows.Close()

	var entries []leave.BalanceHistoryEntry
	for rows.Next() {
		var (
			entry     leave.BalanceHistoryEntry
			lt        string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &lt, &entry.BalanceBefore,
			&entry.BalanceAfter, &entry.ChangeAmount, &entry.ChangeReason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		entry.Type = leave.LeaveType(lt)
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// AGGREGATES
// =============================================================================

func (s *Store) DaysByType(ctx context.Context, employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.daysByType(ctx, s.db, employeeID, status, year)
}

func (v *txView) DaysByType(ctx context.Context, employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	return v.parent.daysByType(ctx, v.q, employeeID, status, year)
}

func (s *Store) daysByType(ctx context.Context, q querier, employeeID int64, status leave.RequestStatus, year int) (map[leave.LeaveType]int, error) {
	query := `
		SELECT leave_type, COALESCE(SUM(days_requested), 0)
		FROM leave_requests
		WHERE employee_id = ? AND status = ?`
	args := []any{employeeID, string(status)}
	if year > 0 {
		query += ` AND strftime('%Y', start_date) = ?`
		args = append(args, fmt.Sprintf("%04d", year))
	}
	query += ` GROUP BY leave_type`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum days by type: %w", err)
	}
	defer rows.Close()

	sums := make(map[leave.LeaveType]int)
	for rows.Next() {
		var (
			lt   string
			days int
		)
		if err := rows.Scan(&lt, &days); err != nil {
			return nil, fmt.Errorf("failed to scan day sum: %w", err)
		}
		sums[leave.LeaveType(lt)] = days
	}
	return sums, rows.Err()
}

func (s *Store) Stats(ctx context.Context, year int, month time.Month) (*leave.StatsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats(ctx, s.db, year, month)
}

func (v *txView) Stats(ctx context.Context, year int, month time.Month) (*leave.StatsSnapshot, error) {
	return v.parent.stats(ctx, v.q, year, month)
}

func (s *Store) stats(ctx context.Context, q querier, year int, month time.Month) (*leave.StatsSnapshot, error) {
	snap := &leave.StatsSnapshot{}

	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees`).Scan(&snap.TotalEmployees); err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}

	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE status = 'pending'`,
	).Scan(&snap.PendingRequests); err != nil {
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}

	if err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leave_requests
		WHERE status = 'approved' AND strftime('%Y-%m', created_at) = ?`,
		fmt.Sprintf("%04d-%02d", year, int(month)),
	).Scan(&snap.ApprovedThisMonth); err != nil {
		return nil, fmt.Errorf("failed to count monthly approvals: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT leave_type, COUNT(*) FROM leave_requests
		WHERE strftime('%Y', created_at) = ?
		GROUP BY leave_type ORDER BY leave_type`,
		fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to load type distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tc leave.TypeCount
			lt string
		)
		if err := rows.Scan(&lt, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type distribution: %w", err)
		}
		tc.Type = leave.LeaveType(lt)
		snap.TypeCounts = append(snap.TypeCounts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	deptRows, err := q.QueryContext(ctx, `
		SELECT e.department,
			COUNT(DISTINCT e.id),
			COUNT(DISTINCT lr.employee_id),
			COUNT(lr.id),
			COALESCE(SUM(CASE WHEN lr.status = 'approved' THEN 1 ELSE 0 END), 0)
		FROM employees e
		LEFT JOIN leave_requests lr ON lr.employee_id = e.id
		GROUP BY e.department
		ORDER BY e.department`)
	if err != nil {
		return nil, fmt.Errorf("failed to load department stats: %w", err)
	}
	defer deptRows.Close()
	for deptRows.Next() {
		var dc leave.DepartmentCounts
		if err := deptRows.Scan(&dc.Department, &dc.Employees, &dc.OnLeave,
			&dc.Requests, &dc.Approved); err != nil {
			return nil, fmt.Errorf("failed to scan department stats: %w", err)
		}
		snap.Departments = append(snap.Departments, dc)
	}
	if err := deptRows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// =============================================================================
// ROW MAPPING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row *sql.Row) (*leave.Employee, error) {
	emp, err := scanEmployeeFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func scanEmployeeFrom(r rowScanner) (leave.Employee, error) {
	var (
		emp       leave.Employee
		joining   string
		active    int
		createdAt string
	)
	err := r.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department, &joining,
		&emp.AnnualBalance, &emp.SickBalance, &active, &createdAt)
	if err == sql.ErrNoRows {
		return emp, err
	}
	if err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}

	emp.JoiningDate, err = leave.ParseDate(joining)
	if err != nil {
		return emp, fmt.Errorf("failed to parse joining date %q: %w", joining, err)
	}
	emp.Active = active == 1
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

func scanRequest(rows *sql.Rows) (leave.LeaveRequest, error) {
	var (
		req        leave.LeaveRequest
		lt         string
		startDate  string
		endDate    string
		reason     sql.NullString
		status     string
		approvedBy sql.NullInt64
		approvedAt sql.NullString
		createdAt  string
	)
	err := rows.Scan(&req.ID, &req.EmployeeID, &lt, &startDate, &endDate,
		&req.DaysRequested, &reason, &status, &approvedBy, &approvedAt, &createdAt,
		&req.EmployeeName, &req.Department, &req.ApproverName)
	if err != nil {
		return req, fmt.Errorf("failed to scan leave request: %w", err)
	}

	req.Type = leave.LeaveType(lt)
	req.Status = leave.RequestStatus(status)
	req.Reason = reason.String
	if req.StartDate, err = leave.ParseDate(startDate); err != nil {
		return req, fmt.Errorf("failed to parse start date %q: %w", startDate, err)
	}
	if req.EndDate, err = leave.ParseDate(endDate); err != nil {
		return req, fmt.Errorf("failed to parse end date %q: %w", endDate, err)
	}
	if approvedBy.Valid {
		req.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		if t, err := time.Parse(time.RFC3339, approvedAt.String); err == nil {
			req.ApprovedAt = &t
		}
	}
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return req, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
