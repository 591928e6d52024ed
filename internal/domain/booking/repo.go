package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Repo is the Firestore-backed Store. Conflict checking and insertion run in
// a single transaction so the read-then-write window of the naive client
// implementation cannot admit two active bookings for one slot.
type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

var activeStatuses = []string{string(StatusPending), string(StatusApproved)}

func (r *Repo) col() *firestore.CollectionRef {
	return r.fs.Collection("bookings")
}

// Create inserts a booking unless an active one already occupies the
// (turfId, startTime) pair. RunTransaction re-runs on contention a bounded
// number of times; an aborted attempt writes nothing.
func (r *Repo) Create(ctx context.Context, b Booking) (*Booking, error) {
	ref := r.col().NewDoc()
	b.ID = ref.ID

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := r.col().
			Where("turfId", "==", b.TurfID).
			Where("startTime", "==", b.StartTime).
			Where("status", "in", activeStatuses).
			Limit(1)
		docs, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return ErrSlotConflict
		}
		return tx.Create(ref, b)
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return nil, fmt.Errorf("%w: %s at %s", ErrSlotConflict, b.TurfID, b.StartTime.Format(time.RFC3339))
		}
		return nil, remoteErr("create booking", err)
	}

	return &b, nil
}

func (r *Repo) Get(ctx context.Context, bookingID string) (*Booking, error) {
	doc, err := r.col().Doc(bookingID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
		}
		return nil, remoteErr("get booking", err)
	}

	var b Booking
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to parse booking: %w", err)
	}
	if b.ID == "" {
		b.ID = doc.Ref.ID
	}
	return &b, nil
}

// UpdateStatus flips the booking's status, but only if it still reads `from`
// inside the transaction. A concurrent transition loses and surfaces as
// ErrInvalidTransition rather than silently overwriting.
func (r *Repo) UpdateStatus(ctx context.Context, bookingID string, from, to Status) (*Booking, error) {
	ref := r.col().Doc(bookingID)

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("%w: booking not found", ErrNotFound)
			}
			return err
		}
		var current Booking
		if err := doc.DataTo(&current); err != nil {
			return fmt.Errorf("failed to parse booking: %w", err)
		}
		if current.Status != from {
			return fmt.Errorf("%w: booking is now %s", ErrInvalidTransition, current.Status)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, remoteErr("update booking status", err)
	}

	return r.Get(ctx, bookingID)
}

// ActiveBetween returns the pending/approved bookings of a turf whose slot
// start falls in [from, to).
func (r *Repo) ActiveBetween(ctx context.Context, turfID string, from, to time.Time) ([]Booking, error) {
	it := r.col().
		Where("turfId", "==", turfID).
		Where("startTime", ">=", from).
		Where("startTime", "<", to).
		Where("status", "in", activeStatuses).
		Documents(ctx)

	return collect(it, "list active bookings")
}

func (r *Repo) ListByUser(ctx context.Context, userID string, limit int) ([]Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	it := r.col().
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)

	return collect(it, "list user bookings")
}

// ListByTurfs merges bookings across an owner's turfs. Firestore caps "in"
// filters at 10 values, so the ids are queried in chunks and re-sorted.
func (r *Repo) ListByTurfs(ctx context.Context, turfIDs []string, limit int) ([]Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}

	out := []Booking{}
	for start := 0; start < len(turfIDs); start += 10 {
		end := start + 10
		if end > len(turfIDs) {
			end = len(turfIDs)
		}
		it := r.col().
			Where("turfId", "in", turfIDs[start:end]).
			OrderBy("createdAt", firestore.Desc).
			Limit(limit).
			Documents(ctx)

		chunk, err := collect(it, "list owner bookings")
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func collect(it *firestore.DocumentIterator, op string) ([]Booking, error) {
	defer it.Stop()

	out := []Booking{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, remoteErr(op, err)
		}
		// A booking that fails to decode must not vanish: availability checks
		// would re-offer its slot. Fail the whole read instead.
		var b Booking
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("%s: failed to parse booking %s: %w", op, doc.Ref.ID, err)
		}
		if b.ID == "" {
			b.ID = doc.Ref.ID
		}
		out = append(out, b)
	}
	return out, nil
}

// remoteErr folds transient backend failures into ErrUnavailable so callers
// can decide whether a retry is safe.
func remoteErr(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
