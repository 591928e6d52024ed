package availability

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DaySlots is the wire form of one weekday's offerable hours. The turf
// document stores the weekly template as a JSON-encoded array of these
// ("slotConfiguration"); decoding happens in the turf repo, never here.
type DaySlots struct {
	DayOfWeek int   `json:"dayOfWeek"`
	Hours     []int `json:"hours"`
}

// Template declares, per weekday (0=Sunday..6=Saturday), which hour-of-day
// starts are offered for one-hour bookings. A zero Template offers nothing.
type Template struct {
	hours [7][]int
}

// NewTemplate validates and builds a weekly template. Hours must be unique
// within a weekday and in [0,23]; weekdays must be in [0,6].
func NewTemplate(days []DaySlots) (Template, error) {
	var t Template
	var seen [7]map[int]bool
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return Template{}, fmt.Errorf("%w: dayOfWeek %d out of range 0-6", ErrInvalidTemplate, d.DayOfWeek)
		}
		if seen[d.DayOfWeek] == nil {
			seen[d.DayOfWeek] = make(map[int]bool, len(d.Hours))
		}
		for _, h := range d.Hours {
			if h < 0 || h > 23 {
				return Template{}, fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidTemplate, h)
			}
			if seen[d.DayOfWeek][h] {
				return Template{}, fmt.Errorf("%w: duplicate hour %d on weekday %d", ErrInvalidTemplate, h, d.DayOfWeek)
			}
			seen[d.DayOfWeek][h] = true
			t.hours[d.DayOfWeek] = append(t.hours[d.DayOfWeek], h)
		}
	}
	for i := range t.hours {
		sort.Ints(t.hours[i])
	}
	return t, nil
}

// HoursFor returns the sorted offerable start hours for a weekday. An absent
// weekday yields an empty slice, not an error.
func (t Template) HoursFor(weekday time.Weekday) []int {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	return append([]int(nil), t.hours[int(weekday)]...)
}

// IsEmpty reports whether the template offers no hours on any weekday.
func (t Template) IsEmpty() bool {
	for _, hs := range t.hours {
		if len(hs) > 0 {
			return false
		}
	}
	return true
}

// Days returns the template in wire form, weekdays ascending, empty days omitted.
func (t Template) Days() []DaySlots {
	out := make([]DaySlots, 0, 7)
	for d, hs := range t.hours {
		if len(hs) == 0 {
			continue
		}
		out = append(out, DaySlots{DayOfWeek: d, Hours: append([]int(nil), hs...)})
	}
	return out
}

// Encode serializes the template to the slotConfiguration JSON blob.
func (t Template) Encode() (string, error) {
	b, err := json.Marshal(t.Days())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeTemplate parses a slotConfiguration JSON blob into a validated
// template. An empty blob yields an empty template.
func DecodeTemplate(raw string) (Template, error) {
	if raw == "" {
		return Template{}, nil
	}
	var days []DaySlots
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return NewTemplate(days)
}
