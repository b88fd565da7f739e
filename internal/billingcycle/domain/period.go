// Package domain holds the billing period model shared by reconciliation and pricing.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformedPeriod = errors.New("malformed_period")
	ErrAmbiguousDate   = errors.New("ambiguous_date")
)

const periodLayout = "2006-01"

// Period is one calendar month. Start and End are the first and last instants
// of the month in UTC.
type Period struct {
	Token       string    `json:"token"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DaysInMonth int       `json:"days_in_month"`
}

// ParsePeriod accepts a YYYY-MM token. A full ISO date or timestamp is also
// accepted and names the month it falls in.
func ParsePeriod(token string) (Period, error) {
	value := strings.TrimSpace(token)
	if value == "" {
		return Period{}, fmt.Errorf("%w: empty period", ErrMalformedPeriod)
	}

	if t, err := time.Parse(periodLayout, value); err == nil {
		return PeriodFor(t), nil
	}
	if t, ok := parseISO(value); ok {
		return PeriodFor(t), nil
	}

	return Period{}, fmt.Errorf("%w: %q", ErrMalformedPeriod, token)
}

// PeriodFor returns the period containing t, using t's calendar date.
func PeriodFor(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 1, 0)
	return Period{
		Token:       start.Format(periodLayout),
		Start:       start,
		End:         next.Add(-time.Nanosecond),
		DaysInMonth: int(next.Sub(start).Hours() / 24),
	}
}

// Contains reports whether date falls within the period's calendar month.
// A zero date is never contained.
func (p Period) Contains(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	return date.Year() == p.Start.Year() && date.Month() == p.Start.Month()
}

// DaysUntilEnd counts calendar days from date through the last day of the
// period, both inclusive.
func (p Period) DaysUntilEnd(date time.Time) int {
	return calendarDaysBetween(date, p.End) + 1
}

// DaysFromStart counts calendar days from the first day of the period through
// date, both inclusive.
func (p Period) DaysFromStart(date time.Time) int {
	return calendarDaysBetween(p.Start, date) + 1
}

func (p Period) String() string { return p.Token }

func calendarDaysBetween(from, to time.Time) int {
	a := truncateToDate(from)
	b := truncateToDate(to)
	return int(b.Sub(a).Hours() / 24)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
