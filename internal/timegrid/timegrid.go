package timegrid

import (
	"sort"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Default geometry: a 60px hour over a 1440px day, with events never drawn
// shorter than a quarter hour.
const (
	DefaultHourHeight     = 60.0
	DefaultMinEventHeight = DefaultHourHeight / 4

	minutesPerDay = 24 * 60

	// minGeometryMinutes floors the drawn duration; the underlying event is
	// never mutated.
	minGeometryMinutes = 15
)

// Config carries the grid geometry explicitly so multiple densities (compact
// and expanded views) can coexist without package-level state.
type Config struct {
	// HourHeight is the pixel height of one hour row.
	HourHeight float64
	// MinEventHeight is the smallest pixel height an event is drawn at.
	MinEventHeight float64
	// Location is the display timezone that day boundaries are computed in.
	Location *time.Location
}

// Grid lays out a day's events as pixel geometry.
type Grid struct {
	cfg Config
}

// NewGrid constructs a Grid, applying defaults for unset config fields.
func NewGrid(cfg Config) *Grid {
	if cfg.HourHeight <= 0 {
		cfg.HourHeight = DefaultHourHeight
	}
	if cfg.MinEventHeight <= 0 {
		cfg.MinEventHeight = cfg.HourHeight / 4
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Grid{cfg: cfg}
}

// PositionedEvent is the pixel geometry for one event on one day. It is
// recomputed on every layout call and never persisted.
type PositionedEvent struct {
	Event event.Event
	// Top is the pixel offset from midnight.
	Top float64
	// Height is the drawn pixel height.
	Height float64
	// Column is the 0-based lane within the event's overlap group.
	Column int
	// TotalColumns is the lane count of the overlap group, used by the
	// renderer to divide the available width.
	TotalColumns int
}

// VisibleEventsForDay filters to timed events intersecting the day. All-day
// events are routed to a separate display lane by the caller and never laid
// out in pixels.
func (g *Grid) VisibleEventsForDay(events []event.Event, day time.Time) []event.Event {
	dayStart := g.startOfDay(day)
	dayEnd := dayStart.Add(24 * time.Hour)

	visible := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if !event.Overlaps(ev.Start, ev.End, dayStart, dayEnd) {
			continue
		}
		visible = append(visible, ev)
	}
	return visible
}

// AllDayEventsForDay returns the all-day entries intersecting the day, for the
// caller's all-day lane.
func (g *Grid) AllDayEventsForDay(events []event.Event, day time.Time) []event.Event {
	dayStart := g.startOfDay(day)
	dayEnd := dayStart.Add(24 * time.Hour)

	allDay := make([]event.Event, 0)
	for _, ev := range events {
		if !ev.AllDay {
			continue
		}
		if !event.Overlaps(ev.Start, ev.End, dayStart, dayEnd) {
			continue
		}
		allDay = append(allDay, ev)
	}
	return allDay
}

type slot struct {
	ev       event.Event
	start    int // minutes since midnight, clamped to [0, 1440]
	duration int // geometry duration, floored to minGeometryMinutes
	column   int
}

func (s slot) end() int {
	return s.start + s.duration
}

// LayoutDay computes the pixel geometry for one day. Multi-day events are
// sliced to the visible segment by clamping their minute range to the day.
// The result is pure: same inputs, same geometry.
func (g *Grid) LayoutDay(events []event.Event, day time.Time) []PositionedEvent {
	visible := g.VisibleEventsForDay(events, day)
	if len(visible) == 0 {
		return nil
	}

	dayStart := g.startOfDay(day)

	slots := make([]slot, 0, len(visible))
	for _, ev := range visible {
		start := clampMinutes(minutesInto(dayStart, ev.Start))
		end := clampMinutes(minutesInto(dayStart, ev.End))
		duration := end - start
		if duration < minGeometryMinutes {
			duration = minGeometryMinutes
		}
		slots = append(slots, slot{ev: ev, start: start, duration: duration})
	}

	// Longer events claim the leftmost column when starts tie; ID breaks the
	// remaining ties so layout is deterministic.
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].start != slots[j].start {
			return slots[i].start < slots[j].start
		}
		if slots[i].duration != slots[j].duration {
			return slots[i].duration > slots[j].duration
		}
		return slots[i].ev.ID < slots[j].ev.ID
	})

	packColumns(slots)

	positioned := make([]PositionedEvent, len(slots))
	for i, s := range slots {
		height := float64(s.duration) / 60 * g.cfg.HourHeight
		if height < g.cfg.MinEventHeight {
			height = g.cfg.MinEventHeight
		}
		positioned[i] = PositionedEvent{
			Event:  s.ev,
			Top:    float64(s.start) / 60 * g.cfg.HourHeight,
			Height: height,
			Column: s.column,
		}
	}

	assignGroupTotals(slots, positioned)

	return positioned
}

// packColumns assigns each slot, in sorted order, to the first column whose
// last-placed end does not pass the slot's start, opening a new column when
// none qualifies.
func packColumns(slots []slot) {
	columnEnds := make([]int, 0, 4)
	for i := range slots {
		placed := false
		for col, end := range columnEnds {
			if end <= slots[i].start {
				slots[i].column = col
				columnEnds[col] = slots[i].end()
				placed = true
				break
			}
		}
		if !placed {
			slots[i].column = len(columnEnds)
			columnEnds = append(columnEnds, slots[i].end())
		}
	}
}

// assignGroupTotals runs a linear sweep over the start-sorted slots, merging a
// slot into the current overlap group while it starts before the group's
// running maximum end. Totals are group-local, so unrelated events elsewhere
// in the day are not squeezed by distant overlaps.
func assignGroupTotals(slots []slot, positioned []PositionedEvent) {
	groupStart := 0
	maxEnd := 0
	maxColumn := 0

	flush := func(from, to int) {
		total := maxColumn + 1
		for i := from; i < to; i++ {
			positioned[i].TotalColumns = total
		}
	}

	for i, s := range slots {
		if i > 0 && s.start >= maxEnd {
			flush(groupStart, i)
			groupStart = i
			maxColumn = 0
			maxEnd = 0
		}
		if s.column > maxColumn {
			maxColumn = s.column
		}
		if s.end() > maxEnd {
			maxEnd = s.end()
		}
	}
	flush(groupStart, len(slots))
}

func (g *Grid) startOfDay(day time.Time) time.Time {
	local := day.In(g.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.cfg.Location)
}

func minutesInto(dayStart time.Time, t time.Time) int {
	return int(t.Sub(dayStart) / time.Minute)
}

func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	if m > minutesPerDay {
		return minutesPerDay
	}
	return m
}
