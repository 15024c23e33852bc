package leave

import "time"

// =============================================================================
// DATE - Day-granularity calendar date (UTC)
// =============================================================================

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with day granularity, always normalized to
// midnight UTC. All leave arithmetic operates on Dates, never raw times.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// IsWeekend reports whether the date falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsWorkingDay reports whether the date falls Monday through Friday.
func (d Date) IsWorkingDay() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.t.Format(DateLayout) }

// =============================================================================
// WORKING-DAY ARITHMETIC
// =============================================================================

// WorkingDays counts the calendar days in [start, end] inclusive whose
// weekday is Monday through Friday. Pure function, no I/O.
func WorkingDays(start, end Date) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if d.IsWorkingDay() {
			days++
		}
	}
	return days
}

// =============================================================================
// RANGE VALIDATION
// =============================================================================

// ValidateRange parses and validates a requested leave range against today.
// Failure kinds: ErrInvalidDateFormat, ErrInvalidDateRange, ErrPastDate,
// ErrTooFarAhead.
func ValidateRange(startStr, endStr string, today Date) (Date, Date, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return Date{}, Date{}, ErrInvalidDateFormat
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return Date{}, Date{}, ErrInvalidDateFormat
	}

	if start.After(end) {
		return Date{}, Date{}, ErrInvalidDateRange
	}
	if start.Before(today) {
		return Date{}, Date{}, ErrPastDate
	}
	if start.After(today.AddDays(MaxAdvanceDays)) {
		return Date{}, Date{}, ErrTooFarAhead
	}

	return start, end, nil
}
