package engine

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout used for every date in configs and output.
const DateFormat = "2006-01-02"

// =============================================================================
// DATE - Day-granularity point in time (UTC)
// =============================================================================

// Date is a calendar day. The zero value means "unset" (see IsZero).
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and presets.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateFormat)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. An empty string leaves the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// ARITHMETIC
// =============================================================================

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	t := d.normalize().AddDate(0, 0, n)
	return Date{Time: t}
}

// AddMonths returns the date n calendar months later. The day is clamped to the
// last day of the target month, so Jan 31 + 1 month is Feb 28 (or 29).
//
// Schedules always step from their anchor (start.AddMonths(k*m)) rather than
// chaining, so a clamp in February does not shift every later payment.
func (d Date) AddMonths(n int) Date {
	y, m, day := d.normalize().Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// AddYears returns the date n years later (Feb 29 clamps to Feb 28).
func (d Date) AddYears(n int) Date { return d.AddMonths(12 * n) }

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of days from -> to (negative if to is earlier).
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// MonthsBetween returns the number of whole calendar months from -> to.
// Negative when to is before from.
func MonthsBetween(from, to Date) int {
	if to.Before(from) {
		return -MonthsBetween(to, from)
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if from.AddMonths(months).After(to) {
		months--
	}
	return months
}

// YearsBetween measures the elapsed time from -> to in years: whole calendar
// months count 1/12 each, leftover days count 1/365. This keeps monthly grid
// steps exactly 1/12 of a year regardless of month length.
func YearsBetween(from, to Date) float64 {
	if to.Before(from) {
		return -YearsBetween(to, from)
	}
	months := MonthsBetween(from, to)
	rest := DaysBetween(from.AddMonths(months), to)
	return float64(months)/12 + float64(rest)/365
}

// MaxDate returns the latest of the given dates (zero if none).
func MaxDate(dates ...Date) Date {
	var out Date
	for _, d := range dates {
		if out.IsZero() || d.After(out) {
			out = d
		}
	}
	return out
}
