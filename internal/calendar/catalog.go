package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmptyCatalog is returned when the configured day window holds no slot.
var ErrEmptyCatalog = errors.New("slot catalog is empty")

const clockLayout = "15:04"

// Catalog is the fixed, ordered set of bookable slot labels for one
// facility-day, e.g. "09:00 - 10:00". Labels compare by exact string identity.
// A Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	slots []string
	index map[string]int
}

// NewCatalog splits the [dayStart, dayEnd) window ("HH:MM") into slots of
// the given length and labels each one.
func NewCatalog(dayStart, dayEnd string, step time.Duration) (Catalog, error) {
	start, err := time.Parse(clockLayout, dayStart)
	if err != nil {
		return Catalog{}, fmt.Errorf("day start %q: %w", dayStart, err)
	}
	end, err := time.Parse(clockLayout, dayEnd)
	if err != nil {
		return Catalog{}, fmt.Errorf("day end %q: %w", dayEnd, err)
	}

	ranges, err := SplitToTimeSlots(TimeRange{Start: start, End: end}, step)
	if err != nil {
		return Catalog{}, err
	}
	if len(ranges) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}

	c := Catalog{
		slots: make([]string, 0, len(ranges)),
		index: make(map[string]int, len(ranges)),
	}
	for i, r := range ranges {
		label := FormatSlotLabel(r)
		c.slots = append(c.slots, label)
		c.index[label] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on error.
func MustCatalog(dayStart, dayEnd string, step time.Duration) Catalog {
	c, err := NewCatalog(dayStart, dayEnd, step)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog is ten one-hour slots from 08:00 to 18:00.
func DefaultCatalog() Catalog {
	return MustCatalog("08:00", "18:00", time.Hour)
}

// FormatSlotLabel renders a range as "HH:MM - HH:MM".
func FormatSlotLabel(tr TimeRange) string {
	return tr.Start.Format(clockLayout) + " - " + tr.End.Format(clockLayout)
}

func (c Catalog) Len() int { return len(c.slots) }

// Slots returns a copy of the labels in catalog order.
func (c Catalog) Slots() []string {
	out := make([]string, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c Catalog) IsValidSlot(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Invalid returns the labels that are not part of the catalog, in input order.
func (c Catalog) Invalid(labels []string) []string {
	var out []string
	for _, l := range labels {
		if !c.IsValidSlot(l) {
			out = append(out, l)
		}
	}
	return out
}

// Subtract returns the catalog minus booked, preserving catalog order.
// The result is never nil.
func (c Catalog) Subtract(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	out := make([]string, 0, len(c.slots))
	for _, s := range c.slots {
		if _, ok := taken[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Sort orders labels by catalog position. Labels outside the catalog sort last.
func (c Catalog) Sort(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	pos := func(l string) int {
		if i, ok := c.index[l]; ok {
			return i
		}
		return len(c.slots)
	}
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) < pos(out[j]) })
	return out
}
