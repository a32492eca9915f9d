package resize

import (
	"errors"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Edge identifies which event boundary a drag gesture manipulates.
type Edge int

const (
	// EdgeStart is the upper/left handle moving the start boundary.
	EdgeStart Edge = iota
	// EdgeEnd is the lower/right handle moving the end boundary.
	EdgeEnd
)

// ErrUnknownEdge indicates an edge label outside start/end.
var ErrUnknownEdge = errors.New("resize: unknown edge")

// ParseEdge converts a transport label into an Edge.
func ParseEdge(value string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "start", "left":
		return EdgeStart, nil
	case "end", "right":
		return EdgeEnd, nil
	default:
		return EdgeStart, ErrUnknownEdge
	}
}

// DefaultSnapMinutes is the drag grid used when the caller does not override it.
const DefaultSnapMinutes = 15

// Reason is the stable rejection token surfaced to the interaction layer,
// which maps it to localized text. The core never renders messages.
type Reason string

const (
	ReasonNotResizable     Reason = "NOT_RESIZABLE"
	ReasonInvalidOrder     Reason = "INVALID_ORDER"
	ReasonDurationTooShort Reason = "DURATION_TOO_SHORT"
)

var (
	// ErrNotResizable is returned for tasks and read-only events.
	ErrNotResizable = errors.New("resize: event is not resizable")
	// ErrInvalidOrder is returned when the proposed start would not be
	// strictly before the proposed end. Equal boundaries are rejected.
	ErrInvalidOrder = errors.New("resize: start must be before end")
	// ErrDurationTooShort is returned when the proposed duration falls below
	// the minimum.
	ErrDurationTooShort = errors.New("resize: duration below minimum")
)

// ReasonFor maps a rejection error to its token. It returns "" for nil and
// for errors outside the resize taxonomy.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrNotResizable):
		return ReasonNotResizable
	case errors.Is(err, ErrInvalidOrder):
		return ReasonInvalidOrder
	case errors.Is(err, ErrDurationTooShort):
		return ReasonDurationTooShort
	default:
		return ""
	}
}

// Update is the partial update produced by a committed resize. Exactly one
// boundary is set; the caller forwards it to the persistence API unmodified.
type Update struct {
	Start *time.Time
	End   *time.Time
}

// CanResize reports drag eligibility. Tasks are projected deadlines and have
// no adjustable duration; read-only entries cannot be edited at all. All-day
// events remain resizable.
func CanResize(ev event.Event) bool {
	if ev.ReadOnly {
		return false
	}
	switch ev.Source {
	case event.SourceTask:
		return false
	case event.SourceEvent, event.SourceExternal:
		return true
	}
	return true
}

// ValidateOrder checks the strict start-before-end invariant using the
// overrides when provided, falling back to the event's own boundaries.
func ValidateOrder(ev event.Event, start, end *time.Time) error {
	s, e := effectiveRange(ev, start, end)
	if !s.Before(e) {
		return ErrInvalidOrder
	}
	return nil
}

// MinimumDuration is the shortest committed event length. It is constant
// today; the event parameter reserves room for per-calendar configuration.
func MinimumDuration(event.Event) time.Duration {
	return 15 * time.Minute
}

// ValidateDuration checks the minimum-duration invariant using the overrides
// when provided.
func ValidateDuration(ev event.Event, start, end *time.Time) error {
	s, e := effectiveRange(ev, start, end)
	if e.Sub(s) < MinimumDuration(ev) {
		return ErrDurationTooShort
	}
	return nil
}

// Snap rounds the instant's minute component to the nearest multiple of
// interval minutes, dropping seconds. 12:07 snaps to 12:00 and 12:08 to 12:15
// on the default grid.
func Snap(t time.Time, intervalMinutes int) time.Time {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultSnapMinutes
	}
	snapped := ((t.Minute() + intervalMinutes/2) / intervalMinutes) * intervalMinutes
	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	return hour.Add(time.Duration(snapped) * time.Minute)
}

// BuildResizeUpdate validates a drag release and produces the partial update
// to persist. preserveTime keeps the dragged edge's original time of day and
// takes only the date from the drop point, which is how all-day events move
// across days without gaining a clock time.
//
// On rejection the zero Update is returned with a sentinel error; the caller
// commits nothing.
func BuildResizeUpdate(ev event.Event, target time.Time, edge Edge, preserveTime bool, snapIntervalMinutes int) (Update, error) {
	if !CanResize(ev) {
		return Update{}, ErrNotResizable
	}

	proposed := Snap(target, snapIntervalMinutes)
	if preserveTime {
		original := ev.Start
		if edge == EdgeEnd {
			original = ev.End
		}
		original = original.In(proposed.Location())
		proposed = time.Date(proposed.Year(), proposed.Month(), proposed.Day(),
			original.Hour(), original.Minute(), original.Second(), original.Nanosecond(), proposed.Location())
	}

	var start, end *time.Time
	if edge == EdgeStart {
		start = &proposed
	} else {
		end = &proposed
	}

	if err := ValidateOrder(ev, start, end); err != nil {
		return Update{}, err
	}
	if err := ValidateDuration(ev, start, end); err != nil {
		return Update{}, err
	}

	return Update{Start: start, End: end}, nil
}

func effectiveRange(ev event.Event, start, end *time.Time) (time.Time, time.Time) {
	s, e := ev.Start, ev.End
	if start != nil {
		s = *start
	}
	if end != nil {
		e = *end
	}
	return s, e
}
