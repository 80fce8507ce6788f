package domain

import (
	"encoding/json"
	"fmt"
	"time"

	dErrors "childminder/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time or zone component. Year, month and day
// are all required; there is no partial date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates the parts against the calendar (rejects 2023-02-30).
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year <= 0 || month < time.January || month > time.December || day <= 0 {
		return Date{}, dErrors.New(dErrors.CodeInvalidInput, "date requires year, month and day")
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%04d-%02d-%02d is not a calendar date", year, month, day))
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, dErrors.New(dErrors.CodeInvalidInput, "date must be in YYYY-MM-DD format")
	}
	return DateOf(t), nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Equal reports exact year/month/day equality.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
