// Package recurrence models repeating-booking rules: the editor-side state a
// dashboard user manipulates and the normalized rule the booking API accepts.
// "Custom" cadence exists only on the editor side; normalization collapses it
// before anything reaches the server.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"bookery/internal/timeutil"
)

// Frequency is the recurrence cadence. FrequencyCustom is editor-only and is
// never present on a normalized Rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// IntervalUnit qualifies the numeric interval of a custom cadence.
type IntervalUnit string

const (
	UnitDays  IntervalUnit = "days"
	UnitWeeks IntervalUnit = "weeks"
)

// weekdayIndex maps weekday names to their calendar index for ordering and
// rrule projection.
var weekdayIndex = map[string]int{
	"Sunday":    0,
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
}

var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// EditorState is the mutable form state owned by the recurrence editor.
// It is discarded on submit or cancel.
type EditorState struct {
	Recurring bool
	Frequency Frequency
	Interval  int
	Unit      IntervalUnit
	Weekdays  map[string]bool
	Until     time.Time
}

// NewEditorState returns the state a freshly enabled editor starts from.
func NewEditorState() EditorState {
	return EditorState{
		Frequency: FrequencyDaily,
		Interval:  1,
		Unit:      UnitDays,
		Weekdays:  make(map[string]bool),
	}
}

// SetFrequency switches cadence. Leaving custom clears the weekday set and
// forces the interval back to 1.
func (s *EditorState) SetFrequency(freq Frequency) {
	s.Frequency = freq
	if freq != FrequencyCustom {
		s.Interval = 1
		s.Unit = UnitDays
		s.Weekdays = make(map[string]bool)
	}
}

// SetInterval sets the custom cadence step. Ignored below 1.
func (s *EditorState) SetInterval(n int, unit IntervalUnit) {
	if n < 1 {
		return
	}
	s.Interval = n
	s.Unit = unit
}

// SetUntil replaces the end date. No ordering check against the booking start
// is made here; the server owns that validation.
func (s *EditorState) SetUntil(until time.Time) {
	s.Until = until
}

// ToggleWeekday flips a weekday in the custom selection. Unknown names are
// ignored.
func (s *EditorState) ToggleWeekday(name string) {
	if _, ok := weekdayIndex[name]; !ok {
		return
	}
	if s.Weekdays == nil {
		s.Weekdays = make(map[string]bool)
	}
	s.Weekdays[name] = !s.Weekdays[name]
}

// selectedWeekdays returns the chosen weekday names in calendar order.
func (s *EditorState) selectedWeekdays() []string {
	if len(s.Weekdays) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Weekdays))
	for name, on := range s.Weekdays {
		if on {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return weekdayIndex[names[i]] < weekdayIndex[names[j]]
	})
	if len(names) == 0 {
		return nil
	}
	return names
}

// Rule is the normalized recurrence descriptor submitted to the booking API.
// Frequency is never FrequencyCustom.
type Rule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	Weekdays  []string  `json:"weekdays"`
	Until     time.Time `json:"until"`
}

// Normalize projects the editor state into the submitted rule. The custom
// cadence collapses onto daily or weekly depending on its unit, keeping the
// numeric interval and weekday set; every other cadence submits with
// interval 1 and no weekdays. An empty weekday set on a custom rule is
// accepted and submits as an empty array.
func (s *EditorState) Normalize() Rule {
	rule := Rule{
		Frequency: s.Frequency,
		Interval:  1,
		Weekdays:  []string{},
		Until:     s.Until,
	}

	if s.Frequency != FrequencyCustom {
		return rule
	}

	if s.Unit == UnitWeeks {
		rule.Frequency = FrequencyWeekly
	} else {
		rule.Frequency = FrequencyDaily
	}
	rule.Interval = s.Interval
	if names := s.selectedWeekdays(); names != nil {
		rule.Weekdays = names
	}
	return rule
}

// Describe renders the editor's current selection as a sentence, e.g.
// "Recurs every Monday at 9:00 AM-10:00 AM from 2026-03-09 to 2026-06-01".
func (s *EditorState) Describe(start, end time.Time, format timeutil.ClockFormat) string {
	var cadence string
	switch s.Frequency {
	case FrequencyDaily:
		cadence = "daily"
	case FrequencyWeekly:
		// Anchored to the booking's own start weekday.
		cadence = fmt.Sprintf("every %s", start.Weekday())
	case FrequencyMonthly:
		cadence = fmt.Sprintf("on the %s of each month", timeutil.DaySuffix(start.Day()))
	case FrequencyCustom:
		cadence = fmt.Sprintf("every %d %s", s.Interval, s.Unit)
	}

	return fmt.Sprintf("Recurs %s at %s-%s from %s to %s",
		cadence,
		timeutil.FormatClock(start, format),
		timeutil.FormatClock(end, format),
		timeutil.FormatDate(start),
		timeutil.FormatDate(s.Until),
	)
}

// RRule projects the rule onto an RFC 5545 rule anchored at the given start.
func (r Rule) RRule(start time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart:  start,
		Interval: r.Interval,
	}
	if !r.Until.IsZero() {
		opt.Until = r.Until
	}

	switch r.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return nil, fmt.Errorf("unsupported frequency %q", r.Frequency)
	}

	for _, name := range r.Weekdays {
		idx, ok := weekdayIndex[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		opt.Byweekday = append(opt.Byweekday, rruleWeekdays[idx])
	}

	return rrule.NewRRule(opt)
}

// Occurrences expands the first occurrences of the rule starting at start,
// capped at max. The cap bounds how many bookings a single recurring create
// may materialize; truncated reports whether the rule had more occurrences
// past the cap. Expansion is iterative so a far-future until cannot force a
// full materialization.
func (r Rule) Occurrences(start time.Time, max int) (occurrences []time.Time, truncated bool, err error) {
	rule, err := r.RRule(start)
	if err != nil {
		return nil, false, err
	}

	next := rule.Iterator()
	for {
		occ, ok := next()
		if !ok {
			return occurrences, false, nil
		}
		if max > 0 && len(occurrences) == max {
			return occurrences, true, nil
		}
		occurrences = append(occurrences, occ)
	}
}
