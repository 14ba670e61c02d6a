// Package hours derives a merchant's live open/closed status from its weekly
// schedule. Derivation is a pure function of the schedule and a wall-clock
// instant; callers recompute on every render and never cache the result.
package hours

import (
	"fmt"
	"time"

	"bookery/internal/timeutil"
)

// ClosingSoonWindow is how close to closing time a merchant must be before
// the status reports closing-soon.
const ClosingSoonWindow = 30 * time.Minute

// Interval is a single same-day open window. Cross-midnight windows are not
// supported; End must be on the same day as Start.
type Interval struct {
	Start string `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	End   string `json:"end_time"`
}

// WeeklyHours maps weekday index (0=Sunday .. 6=Saturday) to that day's open
// window. A nil entry means the merchant is closed that day.
type WeeklyHours map[int]*Interval

// Status is the derived business status at a given instant.
type Status struct {
	IsOpen            bool   `json:"is_open"`
	ClosesAt          string `json:"closes_at,omitempty"` // "HH:MM", set only when open
	ClosingSoon       bool   `json:"closing_soon"`
	NextOpenDay       string `json:"next_open_day,omitempty"`  // weekday name, or "today"
	NextOpenTime      string `json:"next_open_time,omitempty"` // "HH:MM"
	PermanentlyClosed bool   `json:"permanently_closed"`
}

// MalformedScheduleError reports a weekday whose time strings failed to parse.
type MalformedScheduleError struct {
	Weekday int
	Value   string
	Reason  error
}

func (e *MalformedScheduleError) Error() string {
	return fmt.Sprintf("malformed schedule on %s: %q: %v", time.Weekday(e.Weekday), e.Value, e.Reason)
}

func (e *MalformedScheduleError) Unwrap() error { return e.Reason }

// minuteOfDay converts a clock string to minutes from midnight.
func minuteOfDay(weekday int, clock string) (int, error) {
	hour, minute, err := timeutil.ParseClock(clock)
	if err != nil {
		return 0, &MalformedScheduleError{Weekday: weekday, Value: clock, Reason: err}
	}
	return hour*60 + minute, nil
}

// normalizeClock re-renders a schedule clock string as "HH:MM".
func normalizeClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Calculate derives the status for the given instant. It returns a
// MalformedScheduleError if any interval it needs to inspect fails to parse;
// it never panics and the forward scan is bounded by seven days.
func Calculate(wh WeeklyHours, now time.Time) (Status, error) {
	today := int(now.Weekday())
	interval := wh[today]

	if interval == nil {
		return nextOpening(wh, today)
	}

	start, err := minuteOfDay(today, interval.Start)
	if err != nil {
		return Status{}, err
	}
	end, err := minuteOfDay(today, interval.End)
	if err != nil {
		return Status{}, err
	}

	nowMin := now.Hour()*60 + now.Minute()

	switch {
	case nowMin >= start && nowMin < end:
		return Status{
			IsOpen:      true,
			ClosesAt:    normalizeClock(end),
			ClosingSoon: time.Duration(end-nowMin)*time.Minute <= ClosingSoonWindow,
		}, nil

	case nowMin < start:
		// Opens later today.
		return Status{
			NextOpenDay:  "today",
			NextOpenTime: normalizeClock(start),
		}, nil

	default:
		// Already closed for the day.
		return nextOpening(wh, today)
	}
}

// nextOpening scans forward from the day after `from`, wrapping across the
// week, for the first day with an interval. At most seven days are examined;
// if none is open the merchant is reported permanently closed.
func nextOpening(wh WeeklyHours, from int) (Status, error) {
	for offset := 1; offset <= 7; offset++ {
		day := (from + offset) % 7
		interval := wh[day]
		if interval == nil {
			continue
		}
		start, err := minuteOfDay(day, interval.Start)
		if err != nil {
			return Status{}, err
		}
		return Status{
			NextOpenDay:  time.Weekday(day).String(),
			NextOpenTime: normalizeClock(start),
		}, nil
	}
	return Status{PermanentlyClosed: true}, nil
}

// Validate checks every defined interval parses and starts before it ends.
// Used when accepting schedule updates, so Calculate works on trusted data.
func Validate(wh WeeklyHours) error {
	for day := 0; day <= 6; day++ {
		interval := wh[day]
		if interval == nil {
			continue
		}
		start, err := minuteOfDay(day, interval.Start)
		if err != nil {
			return err
		}
		end, err := minuteOfDay(day, interval.End)
		if err != nil {
			return err
		}
		if start >= end {
			return &MalformedScheduleError{
				Weekday: day,
				Value:   interval.Start + "-" + interval.End,
				Reason:  fmt.Errorf("start must be before end on the same day"),
			}
		}
	}
	return nil
}
