package media

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// fallbackLayouts are tried when a date string does not start with a literal
// YYYY-MM-DD.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// Date is a calendar day without a time of day.
type Date struct {
	t time.Time
}

// ParseDate builds a calendar day from s. The literal year-month-day prefix is
// used as-is so a date string never shifts a day when the viewer sits west of
// UTC. Strings without that prefix go through a generic parse; the boolean is
// false when s is empty or unparseable.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return Date{t: t}, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, true
		}
	}
	return Date{}, false
}

// Today returns the calendar day of now in now's location.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// AddDate shifts d by the given years, months and days.
func (d Date) AddDate(years, months, days int) Date {
	return Date{t: d.t.AddDate(years, months, days)}
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// IsReleased reports whether s names a day on or before today.
func IsReleased(s string, now time.Time) bool {
	d, ok := ParseDate(s)
	if !ok {
		return false
	}
	return !d.After(Today(now))
}

// IsFuture reports whether s names a day strictly after today.
func IsFuture(s string, now time.Time) bool {
	d, ok := ParseDate(s)
	if !ok {
		return false
	}
	return d.After(Today(now))
}

// EarlierDate returns whichever of a and b is the earlier valid date string.
// An unparseable side loses to a parseable one.
func EarlierDate(a, b string) string {
	da, okA := ParseDate(a)
	db, okB := ParseDate(b)
	switch {
	case !okA && !okB:
		return ""
	case !okA:
		return b
	case !okB:
		return a
	case db.Before(da):
		return b
	}
	return a
}
