package core

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a YYYY-MM-DD string into a time.Time at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(APIDateFmt, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// DateOnly truncates t to midnight, keeping its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(APIDateFmt)
}

// NormalizeTimeRange lower-cases and validates a time range selector.
// The empty string and "all" both mean "unconstrained" and normalize to "".
func NormalizeTimeRange(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", TimeRangeAll:
		return "", nil
	case TimeRange7Days, TimeRange1Week, TimeRange1Month, TimeRange1Year:
		return s, nil
	}
	return "", fmt.Errorf("invalid time range '%s' (expected 7d, 1w, 1m, 1y or all)", s)
}

// TimeRangeBounds returns the [from, to] dates a selector covers relative to now.
// ok is false for an unconstrained or unknown selector.
func TimeRangeBounds(rangeName string, now time.Time) (from, to time.Time, ok bool) {
	today := DateOnly(now)

	switch rangeName {
	case TimeRange7Days:
		return today.AddDate(0, 0, -7), today, true
	case TimeRange1Week:
		return today.AddDate(0, 0, -7), today, true
	case TimeRange1Month:
		return today.AddDate(0, -1, 0), today, true
	case TimeRange1Year:
		return today.AddDate(-1, 0, 0), today, true
	}
	return time.Time{}, time.Time{}, false
}

// EncodeTimeRange expands a selector into the wire {from, to} date strings.
// Both strings are empty when the selector is unconstrained.
func EncodeTimeRange(rangeName string, now time.Time) (from, to string) {
	f, t, ok := TimeRangeBounds(rangeName, now)
	if !ok {
		return "", ""
	}
	return FormatDate(f), FormatDate(t)
}

// SplitList splits a comma-joined transport field, trimming blanks.
func SplitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
