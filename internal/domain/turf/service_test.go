package turf

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"turfbook/backend/internal/domain/availability"
	"turfbook/backend/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCatalog is an in-memory Store for service tests.
type memCatalog struct {
	mu          sync.Mutex
	seq         int
	turfs       map[string]Turf
	lastUpdates map[string]interface{}
	lastLimit   int64
}

func newMemCatalog() *memCatalog {
	return &memCatalog{turfs: map[string]Turf{}}
}

func (m *memCatalog) Create(ctx context.Context, t Turf) (*Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t.ID = fmt.Sprintf("turf-%d", m.seq)
	m.turfs[t.ID] = t
	return &t, nil
}

func (m *memCatalog) Get(ctx context.Context, turfID string) (*Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.turfs[turfID]
	if !ok {
		return nil, fmt.Errorf("%w: turf not found", ErrNotFound)
	}
	return &t, nil
}

func (m *memCatalog) Update(ctx context.Context, turfID string, updates map[string]interface{}) (*Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.turfs[turfID]
	if !ok {
		return nil, fmt.Errorf("%w: turf not found", ErrNotFound)
	}
	m.lastUpdates = updates
	if v, ok := updates["name"].(string); ok {
		t.Name = v
	}
	if v, ok := updates["nameLower"].(string); ok {
		t.NameLower = v
	}
	if v, ok := updates["pricePerHour"].(float64); ok {
		t.PricePerHour = v
	}
	m.turfs[turfID] = t
	return &t, nil
}

func (m *memCatalog) Delete(ctx context.Context, turfID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.turfs[turfID]; !ok {
		return fmt.Errorf("%w: turf not found", ErrNotFound)
	}
	delete(m.turfs, turfID)
	return nil
}

func (m *memCatalog) SearchByNamePrefix(ctx context.Context, q string, limit int64) ([]Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	q = strings.ToLower(strings.TrimSpace(q))
	out := []Turf{}
	for _, t := range m.turfs {
		if q == "" || strings.HasPrefix(t.NameLower, q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memCatalog) ListByOwner(ctx context.Context, ownerUID string) ([]Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Turf{}
	for _, t := range m.turfs {
		if t.OwnerID == ownerUID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memProfiles struct {
	profiles map[string]*user.Profile
}

func (m *memProfiles) Get(ctx context.Context, uid string) (*user.Profile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", uid)
	}
	return p, nil
}

func newTestService() (*Service, *memCatalog) {
	cat := newMemCatalog()
	profiles := &memProfiles{profiles: map[string]*user.Profile{
		"owner-1":  {UID: "owner-1", Role: user.RoleOwner},
		"player-1": {UID: "player-1", Role: user.RolePlayer},
	}}
	return NewService(cat, profiles), cat
}

func validInput() CreateTurfInput {
	return CreateTurfInput{
		Name:         "Green Field Arena",
		Location:     "Andheri, Mumbai",
		PricePerHour: 1500,
		Slots:        []availability.DaySlots{{DayOfWeek: 2, Hours: []int{18, 19}}},
	}
}

func TestCreate_OwnerListsTurf(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "owner-1", validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "owner-1", created.OwnerID)
	assert.Equal(t, "green field arena", created.NameLower)
	assert.Equal(t, "green-field-arena", created.Slug)
	assert.NotEmpty(t, created.Slots)
}

func TestCreate_PlayerRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "player-1", validInput())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreate_NoProfileRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "nobody", validInput())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), "owner-1", validInput())
	require.NoError(t, err)

	price := 1800.0
	_, err = svc.Update(context.Background(), "player-1", created.ID, UpdateTurfInput{PricePerHour: &price})
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := svc.Update(context.Background(), "owner-1", created.ID, UpdateTurfInput{PricePerHour: &price})
	require.NoError(t, err)
	assert.Equal(t, 1800.0, updated.PricePerHour)
}

func TestUpdate_NameRefreshesSearchFields(t *testing.T) {
	svc, cat := newTestService()
	created, err := svc.Create(context.Background(), "owner-1", validInput())
	require.NoError(t, err)

	name := "Blue Turf Park"
	updated, err := svc.Update(context.Background(), "owner-1", created.ID, UpdateTurfInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "blue turf park", updated.NameLower)
	assert.Equal(t, "blue-turf-park", cat.lastUpdates["slug"])
	assert.Contains(t, cat.lastUpdates, "searchTokens")
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "owner-1", validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, "owner-1", validInput())
	require.NoError(t, err)

	err = svc.Delete(ctx, "player-1", false, first.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, "owner-1", false, first.ID))
	require.NoError(t, svc.Delete(ctx, "moderator", true, second.ID))

	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_LimitClamped(t *testing.T) {
	svc, cat := newTestService()
	ctx := context.Background()

	_, err := svc.Search(ctx, "green", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), cat.lastLimit)

	_, err = svc.Search(ctx, "green", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(20), cat.lastLimit)

	_, err = svc.Search(ctx, "green", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), cat.lastLimit)
}

func TestValidateCreateInput(t *testing.T) {
	valid := validInput()
	assert.NoError(t, validateCreateInput(valid))

	cases := []struct {
		name   string
		mutate func(*CreateTurfInput)
	}{
		{"missing name", func(in *CreateTurfInput) { in.Name = "" }},
		{"missing location", func(in *CreateTurfInput) { in.Location = "" }},
		{"negative price", func(in *CreateTurfInput) { in.PricePerHour = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			assert.ErrorIs(t, validateCreateInput(in), ErrBadRequest)
		})
	}
}

func TestCreateTurfInput_Trim(t *testing.T) {
	in := CreateTurfInput{Name: "  Green Field  ", Location: " Pune ", Phone: " 9876543210 "}
	in.Trim()
	assert.Equal(t, "Green Field", in.Name)
	assert.Equal(t, "Pune", in.Location)
	assert.Equal(t, "9876543210", in.Phone)
}
