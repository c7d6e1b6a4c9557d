package core

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrInvalidRange  = errors.New("range end is before range start")
	ErrRangeTooLarge = errors.New("range spans too many buckets")
)

// Date is a calendar day, always stored as UTC midnight.
type Date struct {
	time.Time
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths returns the first day of the month n months after d's month.
func (d Date) AddMonths(n int) Date {
	return NewDate(d.Year(), d.Month()+n, 1)
}

// BeforeDate reports whether d is strictly before o.
func (d Date) BeforeDate(o Date) bool {
	return d.Time.Before(o.Time)
}

// AfterDate reports whether d is strictly after o.
func (d Date) AfterDate(o Date) bool {
	return d.Time.After(o.Time)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// DaysBetween counts calendar days from a to b; negative when b is before a.
func DaysBetween(a, b Date) int {
	return int((b.Unix() - a.Unix()) / 86400)
}

// MonthsBetween counts whole calendar months from a to b, never negative.
func MonthsBetween(a, b Date) int {
	if !b.AfterDate(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + b.Month() - a.Month()
	if b.Day() < a.Day() && b.Day() < DaysInMonth(b.Year(), b.Month()) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether d falls inside the inclusive range.
func (r DateRange) Contains(d Date) bool {
	return !d.BeforeDate(r.From) && !d.AfterDate(r.To)
}

func (r DateRange) Validate() error {
	if err := r.From.Validate(); err != nil {
		return Invalid("from", err)
	}
	if err := r.To.Validate(); err != nil {
		return Invalid("to", err)
	}
	if r.To.BeforeDate(r.From) {
		return Invalid("to", ErrInvalidRange)
	}
	return nil
}
