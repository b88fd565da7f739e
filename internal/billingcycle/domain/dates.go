package domain

import (
	"fmt"
	"strings"
	"time"
)

// isoLayouts covers the extended and basic ISO 8601 forms the upstream systems
// emit, with or without seconds and zone.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"20060102",
}

var usLayouts = []string{
	"01/02/2006",
	"1/2/2006",
}

// ParseFlexibleDate parses the date formats emitted by the upstream record
// systems: ISO 8601 first, then MM/DD/YYYY, then M/D/YYYY. The result is UTC
// midnight of the calendar date as written.
//
// An empty string is an absent date and returns the zero time with no error.
// A string matching no format returns the zero time and ErrAmbiguousDate.
func ParseFlexibleDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, nil
	}

	if t, ok := parseISO(s); ok {
		return truncateToDate(t), nil
	}
	for _, layout := range usLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrAmbiguousDate, value)
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
