package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	BirthDateLayout = "02/01/2006"
	BirthTimeLayout = "15:04"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseCivilTime reads a "dd/mm/yyyy" date and "HH:MM" clock time in the named
// IANA zone and returns the instant in UTC.
func ParseCivilTime(date, clock, zone string) (time.Time, error) {
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	t, err := time.ParseInLocation(BirthDateLayout+" "+BirthTimeLayout,
		strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date/time: %w", err)
	}
	return t.UTC(), nil
}

// JulianDay converts an instant to a Julian Day number (UT).
func JulianDay(t time.Time) float64 {
	const unixEpochJD = 2440587.5
	u := t.UTC()
	return unixEpochJD + float64(u.Unix())/86400 + float64(u.Nanosecond())/86400e9
}
