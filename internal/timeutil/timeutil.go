// Package timeutil provides the date/time helpers shared by the hours and
// recurrence packages and by the booking API layer. All functions are pure.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockFormat selects 12-hour or 24-hour clock rendering. It is always passed
// explicitly; nothing in this package reads stored preferences.
type ClockFormat int

const (
	Clock24h ClockFormat = iota
	Clock12h
)

const dateLayout = "2006-01-02"

// ParseClock parses "HH:MM" or "HH:MM:SS" into hour and minute.
// Seconds are accepted and discarded.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, fmt.Errorf("invalid time format: %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// CombineDateTime places a "HH:MM" clock string on the given date, in the
// date's location.
func CombineDateTime(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// AddMinutes returns t shifted by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// FormatDuration formats a minute count as "Xh Ym", dropping zero components.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// DaySuffix returns the ordinal form of a day-of-month: 1st, 2nd, 3rd, 4th.
// 11 through 13 take "th" regardless of their last digit.
func DaySuffix(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// FormatDate renders a date as YYYY-MM-DD, ignoring the time component.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a midnight UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatClock renders the clock portion of t in the requested format.
func FormatClock(t time.Time, format ClockFormat) string {
	if format == Clock12h {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}
