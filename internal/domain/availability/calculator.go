package availability

import (
	"iter"
	"time"
)

// Slot describes one offerable one-hour booking unit on a concrete date.
// Booked slots are still yielded so callers can render a fully booked day
// instead of hiding it; Past slots are expected to be filtered before they
// are offered to an end user.
type Slot struct {
	Start  time.Time `json:"start"`
	Hour   int       `json:"hour"`
	Past   bool      `json:"past"`
	Booked bool      `json:"booked"`
}

// SlotsOn yields the slots a turf offers on the given calendar date,
// ascending by hour. occupied holds the start hours of active bookings for
// that date. The sequence is restartable; re-ranging recomputes nothing
// against now, so pass the clock reading the caller snapshotted.
//
// An empty weekday yields an empty sequence. A date in the past is legal and
// simply yields every slot with Past set.
func SlotsOn(t Template, date time.Time, occupied map[int]bool, now time.Time) iter.Seq[Slot] {
	hours := t.HoursFor(date.Weekday())
	year, month, day := date.Date()
	loc := date.Location()

	return func(yield func(Slot) bool) {
		for _, h := range hours {
			start := time.Date(year, month, day, h, 0, 0, 0, loc)
			s := Slot{
				Start:  start,
				Hour:   h,
				Past:   !start.After(now),
				Booked: occupied[h],
			}
			if !yield(s) {
				return
			}
		}
	}
}

// CollectSlots materializes SlotsOn for callers that need a slice (the HTTP
// layer encodes it as JSON).
func CollectSlots(t Template, date time.Time, occupied map[int]bool, now time.Time) []Slot {
	out := []Slot{}
	for s := range SlotsOn(t, date, occupied, now) {
		out = append(out, s)
	}
	return out
}
