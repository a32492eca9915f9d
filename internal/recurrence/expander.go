package recurrence

import (
	"errors"
	"strings"
	"time"
)

// Type identifies the supported repetition frequencies.
type Type int

const (
	// TypeNone marks a non-recurring entry. It is not valid expander input;
	// callers short-circuit before asking for occurrences.
	TypeNone Type = iota
	// TypeDaily repeats every Interval days.
	TypeDaily
	// TypeWeekly repeats every Interval weeks, optionally on a weekday set.
	TypeWeekly
	// TypeMonthly repeats every Interval months on the anchor's day of month.
	TypeMonthly
	// TypeYearly repeats every Interval years on the anchor's date.
	TypeYearly
)

// ParseType converts a transport label into a Type.
func ParseType(value string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return TypeNone, nil
	case "daily":
		return TypeDaily, nil
	case "weekly":
		return TypeWeekly, nil
	case "monthly":
		return TypeMonthly, nil
	case "yearly":
		return TypeYearly, nil
	default:
		return TypeNone, ErrInvalidType
	}
}

// String returns the transport label for the type.
func (t Type) String() string {
	switch t {
	case TypeDaily:
		return "daily"
	case TypeWeekly:
		return "weekly"
	case TypeMonthly:
		return "monthly"
	case TypeYearly:
		return "yearly"
	default:
		return "none"
	}
}

// Interval bounds enforced by Validate.
const (
	MinInterval = 1
	MaxInterval = 999
)

// Rule describes a recurrence configuration as edited in the event form. It
// round-trips to and from the recurrence fields stored on an event.
type Rule struct {
	Type     Type
	Interval int
	Weekdays []time.Weekday
	Until    *time.Time
}

var (
	// ErrInvalidType indicates the frequency is not a supported expander input.
	ErrInvalidType = errors.New("recurrence: invalid type")
	// ErrInvalidInterval indicates an interval outside [MinInterval, MaxInterval].
	ErrInvalidInterval = errors.New("recurrence: interval out of range")
	// ErrInvalidWeekday indicates a weekday value outside Sunday..Saturday.
	ErrInvalidWeekday = errors.New("recurrence: invalid weekday")
	// ErrWeekdaysNotAllowed indicates a weekday set on a non-weekly rule.
	ErrWeekdaysNotAllowed = errors.New("recurrence: weekday set requires a weekly rule")
)

// Validate reports rule problems instead of letting the expander produce
// degenerate output.
func (r Rule) Validate() error {
	switch r.Type {
	case TypeDaily, TypeWeekly, TypeMonthly, TypeYearly:
	default:
		return ErrInvalidType
	}
	if r.Interval < MinInterval || r.Interval > MaxInterval {
		return ErrInvalidInterval
	}
	if len(r.Weekdays) > 0 && r.Type != TypeWeekly {
		return ErrWeekdaysNotAllowed
	}
	for _, day := range r.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	return nil
}

// IsRecurring reports whether the rule describes an actual repetition.
func (r Rule) IsRecurring() bool {
	return r.Type != TypeNone
}

// Expander produces concrete occurrence instants from rules. All results are
// normalized to the expander's location.
type Expander struct {
	location *time.Location
}

// NewExpander constructs an Expander that normalizes results to the provided
// location. If loc is nil, UTC is used.
func NewExpander(loc *time.Location) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	return &Expander{location: loc}
}

// Occurrences returns up to limit occurrence start instants for the rule,
// beginning at start. The first occurrence is start itself (for weekly rules
// with an explicit weekday set, the first matching day at or after start).
// Expansion stops early once the next candidate would pass Until; a candidate
// exactly on Until is included.
func (e *Expander) Occurrences(start time.Time, rule Rule, limit int) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	start = start.In(loc)

	within := func(t time.Time) bool {
		return rule.Until == nil || !t.After(rule.Until.In(loc))
	}

	next := sequence(start, rule)

	out := make([]time.Time, 0, limit)
	for len(out) < limit {
		candidate := next()
		if !within(candidate) {
			break
		}
		out = append(out, candidate)
	}
	return out, nil
}

// OccurrencesBetween returns up to limit occurrences falling in the half-open
// window [from, to). Occurrences before the window are walked over without
// counting toward the limit, so a rule anchored far in the past still fills a
// distant window.
func (e *Expander) OccurrencesBetween(start time.Time, rule Rule, from, to time.Time, limit int) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || !from.Before(to) {
		return nil, nil
	}

	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	start = start.In(loc)

	next := sequence(start, rule)

	out := make([]time.Time, 0, limit)
	for len(out) < limit {
		candidate := next()
		if rule.Until != nil && candidate.After(rule.Until.In(loc)) {
			break
		}
		if !candidate.Before(to) {
			break
		}
		if candidate.Before(from) {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

// sequence returns a generator yielding the rule's occurrence instants in
// order, starting at the anchor. The generator never terminates on its own;
// callers stop on their own bounds.
func sequence(start time.Time, rule Rule) func() time.Time {
	switch rule.Type {
	case TypeWeekly:
		if len(rule.Weekdays) > 0 {
			return weekdaySetSequence(start, rule)
		}
		return daySequence(start, 7*rule.Interval)
	case TypeDaily:
		return daySequence(start, rule.Interval)
	case TypeMonthly:
		return anchorSequence(start, rule.Interval, 0)
	default: // TypeYearly; Validate rejects everything else
		return anchorSequence(start, 0, rule.Interval)
	}
}

func daySequence(start time.Time, stepDays int) func() time.Time {
	n := 0
	return func() time.Time {
		candidate := start.AddDate(0, 0, n*stepDays)
		n++
		return candidate
	}
}

// anchorSequence advances whole months or years from the original anchor so a
// rule anchored on the 31st normalizes per AddDate instead of drifting.
func anchorSequence(start time.Time, stepMonths, stepYears int) func() time.Time {
	n := 0
	return func() time.Time {
		candidate := start.AddDate(n*stepYears, n*stepMonths, 0)
		n++
		return candidate
	}
}

// weekdaySetSequence walks the matching weekdays of the cycle week (weeks
// start Sunday, matching the 0=Sunday weekday numbering), then jumps Interval
// weeks to the next cycle.
func weekdaySetSequence(start time.Time, rule Rule) func() time.Time {
	set := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		set[day] = struct{}{}
	}

	// Sunday of start's week, clock preserved.
	base := start.AddDate(0, 0, -int(start.Weekday()))

	week, day := 0, 0
	advance := func() {
		day++
		if day == 7 {
			day = 0
			week += rule.Interval
		}
	}

	return func() time.Time {
		for {
			candidate := base.AddDate(0, 0, week*7+day)
			advance()
			if candidate.Before(start) {
				continue
			}
			if _, ok := set[candidate.Weekday()]; !ok {
				continue
			}
			return candidate
		}
	}
}
