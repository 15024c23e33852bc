/*
registry.go - Employee Registry

PURPOSE:
  Owns employee identity and initial balances. Registration is the only way
  an employee record comes into existence; balances are mutated afterwards
  only by the ledger during approvals.

NORMALIZATION:
  Names and departments are stored title-cased, emails lowercased. The
  duplicate-email check is therefore case-insensitive by construction.

ATOMICITY:
  Registration inserts the employee and appends the two initial balance
  history entries in one transaction.
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Registry creates and resolves employee records.
type Registry struct {
	store    TxStore
	validate *validator.Validate

	// Now is the clock used for "joining date not in the future" and record
	// timestamps. Overridable in tests; nil means time.Now.
	Now func() time.Time
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store TxStore) *Registry {
	return &Registry{
		store:    store,
		validate: validator.New(),
	}
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// RegisterInput is the raw registration payload. Fields are trimmed before
// validation.
type RegisterInput struct {
	Name        string `validate:"required,min=2"`
	Email       string `validate:"required,email"`
	Department  string `validate:"required,min=2"`
	JoiningDate string `validate:"required"`
}

// Register validates and stores a new employee, grants the default balances,
// and appends the two initial history entries. Returns the new id.
// Failure kinds: ErrValidation (wrapped ValidationError), ErrDuplicateEmail.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	in.JoiningDate = strings.TrimSpace(in.JoiningDate)

	if err := r.validate.Struct(in); err != nil {
		return 0, mapValidationError(err)
	}

	joining, err := ParseDate(in.JoiningDate)
	if err != nil {
		return 0, &ValidationError{Field: "joining_date", Message: "must be a valid date (YYYY-MM-DD)"}
	}
	if joining.After(DateOf(r.now())) {
		return 0, &ValidationError{Field: "joining_date", Message: "must not be in the future"}
	}

	titler := cases.Title(language.English)
	emp := Employee{
		Name:          titler.String(in.Name),
		Email:         strings.ToLower(in.Email),
		Department:    titler.String(in.Department),
		JoiningDate:   joining,
		AnnualBalance: DefaultAnnualBalance,
		SickBalance:   DefaultSickBalance,
		Active:        true,
		CreatedAt:     r.now(),
	}

	var id int64
	err = r.store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetEmployeeByEmail(ctx, emp.Email)
		if err != nil {
			return fmt.Errorf("duplicate email check: %w", err)
		}
		if existing != nil {
			return ErrDuplicateEmail
		}

		id, err = s.InsertEmployee(ctx, emp)
		if err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}

		for _, grant := range []struct {
			lt      LeaveType
			balance int
		}{
			{TypeAnnual, DefaultAnnualBalance},
			{TypeSick, DefaultSickBalance},
		} {
			if _, err := s.AppendHistory(ctx, BalanceHistoryEntry{
				EmployeeID:    id,
				Type:          grant.lt,
				BalanceBefore: 0,
				BalanceAfter:  grant.balance,
				ChangeAmount:  grant.balance,
				ChangeReason:  ReasonInitialBalance,
				CreatedAt:     r.now(),
			}); err != nil {
				return fmt.Errorf("append initial history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get resolves an active employee by id.
func (r *Registry) Get(ctx context.Context, id int64) (*Employee, error) {
	emp, err := r.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

// List returns all active employees ordered by name.
func (r *Registry) List(ctx context.Context) ([]Employee, error) {
	return r.store.ListEmployees(ctx)
}

// mapValidationError converts the first validator failure into a
// domain ValidationError with a readable field name and message.
func mapValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return &ValidationError{Field: "input", Message: err.Error()}
	}

	fe := errs[0]
	field := strings.ToLower(fe.Field())
	if field == "joiningdate" {
		field = "joining_date"
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "min":
		msg = fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "email":
		msg = "must be a valid email address"
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}
