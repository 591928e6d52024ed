package booking

import (
	"context"
	"fmt"
	"time"

	"turfbook/backend/internal/domain/availability"
	"turfbook/backend/internal/domain/turf"
)

// Store is the booking ledger's persistence. Create must check the slot for
// an active booking and insert atomically: for two concurrent creates on the
// same (turf, slot) exactly one succeeds, the other gets ErrSlotConflict.
type Store interface {
	Create(ctx context.Context, b Booking) (*Booking, error)
	Get(ctx context.Context, bookingID string) (*Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, from, to Status) (*Booking, error)
	ActiveBetween(ctx context.Context, turfID string, from, to time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Booking, error)
	ListByTurfs(ctx context.Context, turfIDs []string, limit int) ([]Booking, error)
}

// TurfDirectory is the slice of the turf domain the ledger needs: listing
// lookups for price/template/owner and the owner's listing ids.
type TurfDirectory interface {
	Get(ctx context.Context, turfID string) (*turf.Turf, error)
	IDsByOwner(ctx context.Context, ownerUID string) ([]string, error)
}

const defaultListLimit = 100

// Ledger is the authoritative service for a turf's bookings: it guards the
// no-double-booking and no-past-slot invariants and drives status
// transitions.
type Ledger struct {
	store Store
	turfs TurfDirectory
	now   func() time.Time
}

func NewLedger(store Store, turfs TurfDirectory) *Ledger {
	return &Ledger{store: store, turfs: turfs, now: time.Now}
}

// Request creates a pending booking for one slot. The price is copied from
// the turf at this moment; later price changes never touch the booking.
func (l *Ledger) Request(ctx context.Context, in RequestInput) (*Booking, error) {
	if in.TurfID == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: turfId and userId are required", ErrBadRequest)
	}
	if !onTheHour(in.Start) {
		return nil, fmt.Errorf("%w: slots start on the hour", ErrBadRequest)
	}

	now := l.now()
	if !in.Start.After(now) {
		return nil, fmt.Errorf("%w: %s", ErrPastSlot, in.Start.Format(time.RFC3339))
	}

	t, err := l.turfs.Get(ctx, in.TurfID)
	if err != nil {
		return nil, fmt.Errorf("%w: turf not found", ErrNotFound)
	}
	if !hourOffered(t.Template, in.Start) {
		return nil, fmt.Errorf("%w: turf does not offer a slot at %02d:00 on %s",
			ErrBadRequest, in.Start.Hour(), in.Start.Weekday())
	}
	if in.ExpectedPrice != nil && *in.ExpectedPrice != t.PricePerHour {
		return nil, fmt.Errorf("%w: price changed to %.2f, re-fetch the listing",
			ErrBadRequest, t.PricePerHour)
	}

	b := Booking{
		TurfID:     t.ID,
		TurfName:   t.Name,
		UserID:     in.UserID,
		UserName:   in.UserName,
		UserPhone:  in.UserPhone,
		StartTime:  in.Start,
		EndTime:    in.Start.Add(time.Hour),
		TotalPrice: t.PricePerHour,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return l.store.Create(ctx, b)
}

// AvailabilityOn returns the slot descriptors for a turf on a calendar date.
// Booked slots are included (callers disable them); past slots carry the
// Past flag for the caller to drop before offering.
func (l *Ledger) AvailabilityOn(ctx context.Context, turfID string, date time.Time) ([]availability.Slot, error) {
	if turfID == "" {
		return nil, fmt.Errorf("%w: turfId is required", ErrBadRequest)
	}

	t, err := l.turfs.Get(ctx, turfID)
	if err != nil {
		return nil, fmt.Errorf("%w: turf not found", ErrNotFound)
	}

	year, month, day := date.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	active, err := l.store.ActiveBetween(ctx, turfID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	occupied := make(map[int]bool, len(active))
	for _, b := range active {
		occupied[b.StartTime.In(date.Location()).Hour()] = true
	}

	return availability.CollectSlots(t.Template, dayStart, occupied, l.now()), nil
}

// Transition moves a booking along the state machine. Approve/reject belong
// to the turf owner, cancel to the requesting user; anyone else is rejected
// outright.
func (l *Ledger) Transition(ctx context.Context, actorUID, bookingID string, to Status) (*Booking, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("%w: bookingId is required", ErrBadRequest)
	}

	b, err := l.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	required, err := RequiredActor(b.Status, to)
	if err != nil {
		return nil, err
	}

	switch required {
	case ActorOwner:
		t, err := l.turfs.Get(ctx, b.TurfID)
		if err != nil || t.OwnerID != actorUID {
			return nil, fmt.Errorf("%w: only the turf owner can %s a request", ErrUnauthorized, to)
		}
	case ActorRequester:
		if b.UserID != actorUID {
			return nil, fmt.Errorf("%w: only the requesting user can cancel", ErrUnauthorized)
		}
	}

	return l.store.UpdateStatus(ctx, bookingID, b.Status, to)
}

// ListForUser returns a user's bookings, most recent first.
func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrBadRequest)
	}
	return l.store.ListByUser(ctx, userID, defaultListLimit)
}

// ListForOwner returns the bookings across every turf the owner has listed,
// most recent first.
func (l *Ledger) ListForOwner(ctx context.Context, ownerUID string) ([]Booking, error) {
	if ownerUID == "" {
		return nil, fmt.Errorf("%w: owner uid is required", ErrBadRequest)
	}

	ids, err := l.turfs.IDsByOwner(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Booking{}, nil
	}
	return l.store.ListByTurfs(ctx, ids, defaultListLimit)
}

func onTheHour(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func hourOffered(tmpl availability.Template, start time.Time) bool {
	for _, h := range tmpl.HoursFor(start.Weekday()) {
		if h == start.Hour() {
			return true
		}
	}
	return false
}
