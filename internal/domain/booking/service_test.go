package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"turfbook/backend/internal/domain/availability"
	"turfbook/backend/internal/domain/turf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store whose Create holds the same atomicity
// contract as the Firestore transaction: conflict check and insert under one
// lock.
type memStore struct {
	mu   sync.Mutex
	seq  int
	byID map[string]Booking
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]Booking{}}
}

func (m *memStore) Create(_ context.Context, b Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, x := range m.byID {
		if x.TurfID == b.TurfID && x.StartTime.Equal(b.StartTime) && x.Status.Active() {
			return nil, fmt.Errorf("%w: %s at %s", ErrSlotConflict, b.TurfID, b.StartTime)
		}
	}
	m.seq++
	b.ID = fmt.Sprintf("bk-%d", m.seq)
	m.byID[b.ID] = b
	return &b, nil
}

func (m *memStore) Get(_ context.Context, bookingID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.byID[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	return &b, nil
}

func (m *memStore) UpdateStatus(_ context.Context, bookingID string, from, to Status) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.byID[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	if b.Status != from {
		return nil, fmt.Errorf("%w: booking is now %s", ErrInvalidTransition, b.Status)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	m.byID[bookingID] = b
	return &b, nil
}

func (m *memStore) ActiveBetween(_ context.Context, turfID string, from, to time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Booking{}
	for _, b := range m.byID {
		if b.TurfID == turfID && b.Status.Active() &&
			!b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, limit int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Booking{}
	for _, b := range m.byID {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListByTurfs(_ context.Context, turfIDs []string, limit int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := map[string]bool{}
	for _, id := range turfIDs {
		ids[id] = true
	}
	out := []Booking{}
	for _, b := range m.byID {
		if ids[b.TurfID] {
			out = append(out, b)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(bs []Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].CreatedAt.After(bs[j].CreatedAt) })
}

type memTurfs struct {
	byID map[string]*turf.Turf
}

func (m *memTurfs) Get(_ context.Context, turfID string) (*turf.Turf, error) {
	t, ok := m.byID[turfID]
	if !ok {
		return nil, fmt.Errorf("%w: turf not found", turf.ErrNotFound)
	}
	return t, nil
}

func (m *memTurfs) IDsByOwner(_ context.Context, ownerUID string) ([]string, error) {
	ids := []string{}
	for id, t := range m.byID {
		if t.OwnerID == ownerUID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) // a Monday

func newTestLedger(t *testing.T) (*Ledger, *memStore) {
	t.Helper()

	tmpl, err := availability.NewTemplate([]availability.DaySlots{
		{DayOfWeek: 2, Hours: []int{9, 10, 18}},
	})
	require.NoError(t, err)

	turfs := &memTurfs{byID: map[string]*turf.Turf{
		"turf-1": {
			ID:           "turf-1",
			Name:         "Green Field Arena",
			OwnerID:      "owner-1",
			PricePerHour: 1500,
			Template:     tmpl,
		},
	}}

	store := newMemStore()
	l := NewLedger(store, turfs)
	l.now = func() time.Time { return testNow }
	return l, store
}

// tuesdayAt is the first Tuesday after testNow, at the given hour.
func tuesdayAt(hour int) time.Time {
	return time.Date(2026, 9, 1, hour, 0, 0, 0, time.UTC)
}

func TestRequest_CreatesPendingWithCopiedPrice(t *testing.T) {
	l, _ := newTestLedger(t)

	b, err := l.Request(context.Background(), RequestInput{
		TurfID:   "turf-1",
		UserID:   "user-1",
		UserName: "Asha",
		Start:    tuesdayAt(9),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 1500.0, b.TotalPrice)
	assert.Equal(t, "Green Field Arena", b.TurfName)
	assert.Equal(t, tuesdayAt(10), b.EndTime)
}

func TestRequest_PastSlot(t *testing.T) {
	l, _ := newTestLedger(t)

	// the Tuesday before testNow
	_, err := l.Request(context.Background(), RequestInput{
		TurfID: "turf-1",
		UserID: "user-1",
		Start:  time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrPastSlot)

	// a slot starting exactly now is already gone
	_, err = l.Request(context.Background(), RequestInput{
		TurfID: "turf-1",
		UserID: "user-1",
		Start:  testNow,
	})
	assert.ErrorIs(t, err, ErrPastSlot)
}

func TestRequest_StalePriceRejected(t *testing.T) {
	l, _ := newTestLedger(t)

	stale := 1200.0
	_, err := l.Request(context.Background(), RequestInput{
		TurfID:        "turf-1",
		UserID:        "user-1",
		Start:         tuesdayAt(9),
		ExpectedPrice: &stale,
	})
	assert.ErrorIs(t, err, ErrBadRequest)

	current := 1500.0
	b, err := l.Request(context.Background(), RequestInput{
		TurfID:        "turf-1",
		UserID:        "user-1",
		Start:         tuesdayAt(9),
		ExpectedPrice: &current,
	})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, b.TotalPrice)
}

func TestRequest_HourNotOffered(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Request(context.Background(), RequestInput{
		TurfID: "turf-1",
		UserID: "user-1",
		Start:  tuesdayAt(13),
	})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRequest_OffHourStart(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Request(context.Background(), RequestInput{
		TurfID: "turf-1",
		UserID: "user-1",
		Start:  tuesdayAt(9).Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRequest_UnknownTurf(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Request(context.Background(), RequestInput{
		TurfID: "nope",
		UserID: "user-1",
		Start:  tuesdayAt(9),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequest_ConflictOnActiveSlot(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	_, err = l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-2", Start: tuesdayAt(9)})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestRequest_ConcurrentSameSlot(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Request(ctx, RequestInput{
				TurfID: "turf-1",
				UserID: fmt.Sprintf("user-%d", i),
				Start:  tuesdayAt(18),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded, conflicted := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case IsErrSlotConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestRequest_FreedSlotIsReusable(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	_, err = l.Transition(ctx, "owner-1", b.ID, StatusRejected)
	require.NoError(t, err)

	again, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-2", Start: tuesdayAt(9)})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestTransition_OwnerApprovesAndRejects(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	got, err := l.Transition(ctx, "owner-1", b.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	// approved cannot be re-approved or rejected
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_StrangerCannotApprove(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	_, err = l.Transition(ctx, "someone-else", b.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the requesting user cannot self-approve either
	_, err = l.Transition(ctx, "user-1", b.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransition_RequesterCancels(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	// owner cannot cancel on the user's behalf
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := l.Transition(ctx, "user-1", b.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// terminal: nothing moves a cancelled booking
	_, err = l.Transition(ctx, "user-1", b.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_RequesterCancelsApproved(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusApproved)
	require.NoError(t, err)

	got, err := l.Transition(ctx, "user-1", b.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestTransition_UnknownBooking(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Transition(context.Background(), "owner-1", "missing", StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailabilityOn_MarksActiveSlotsBooked(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusApproved)
	require.NoError(t, err)

	slots, err := l.AvailabilityOn(ctx, "turf-1", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.True(t, slots[0].Booked)  // 09:00
	assert.False(t, slots[1].Booked) // 10:00
	assert.False(t, slots[2].Booked) // 18:00
}

func TestAvailabilityOn_RejectedBookingFreesSlot(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	b, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)
	_, err = l.Transition(ctx, "owner-1", b.ID, StatusRejected)
	require.NoError(t, err)

	slots, err := l.AvailabilityOn(ctx, "turf-1", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, s := range slots {
		assert.False(t, s.Booked)
	}
}

func TestAvailabilityOn_EmptyWeekday(t *testing.T) {
	l, _ := newTestLedger(t)

	// Wednesday has no template hours
	slots, err := l.AvailabilityOn(context.Background(), "turf-1", time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestListForOwner_NoTurfs(t *testing.T) {
	l, _ := newTestLedger(t)

	out, err := l.ListForOwner(context.Background(), "owner-without-turfs")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListForUser_NewestFirst(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	first, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(9)})
	require.NoError(t, err)

	// nudge creation time so ordering is observable
	b := store.byID[first.ID]
	b.CreatedAt = b.CreatedAt.Add(-time.Minute)
	store.byID[first.ID] = b

	second, err := l.Request(ctx, RequestInput{TurfID: "turf-1", UserID: "user-1", Start: tuesdayAt(10)})
	require.NoError(t, err)

	out, err := l.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)
}
