package turf

import (
	"context"
	"fmt"
	"time"

	"turfbook/backend/internal/domain/availability"
	"turfbook/backend/internal/domain/user"
	"turfbook/backend/internal/utils"
)

// Store is the listing catalog's persistence.
type Store interface {
	Create(ctx context.Context, t Turf) (*Turf, error)
	Get(ctx context.Context, turfID string) (*Turf, error)
	Update(ctx context.Context, turfID string, updates map[string]interface{}) (*Turf, error)
	Delete(ctx context.Context, turfID string) error
	SearchByNamePrefix(ctx context.Context, q string, limit int64) ([]Turf, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]Turf, error)
}

// Profiles is the slice of the user domain the catalog needs: role lookups
// for the owner gate on Create.
type Profiles interface {
	Get(ctx context.Context, uid string) (*user.Profile, error)
}

type Service struct {
	repo     Store
	profiles Profiles
}

func NewService(repo Store, profiles Profiles) *Service {
	return &Service{repo: repo, profiles: profiles}
}

func (s *Service) Create(ctx context.Context, ownerUID string, in CreateTurfInput) (*Turf, error) {
	in.Trim()
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	ok, err := s.canList(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: only owners can list turfs", ErrUnauthorized)
	}

	tmpl, err := availability.NewTemplate(in.Slots)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	now := time.Now().UTC()
	nameLower := utils.NormalizeNameLower(in.Name)

	t := Turf{
		Name:         in.Name,
		NameLower:    nameLower,
		Slug:         utils.Slugify(in.Name),
		Location:     in.Location,
		PricePerHour: in.PricePerHour,
		OwnerID:      ownerUID,
		OwnerPhone:   in.Phone,
		PhotoIDs:     in.PhotoIDs,
		Template:     tmpl,
		Slots:        tmpl.Days(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, turfID string) (*Turf, error) {
	if turfID == "" {
		return nil, fmt.Errorf("%w: turfId is required", ErrBadRequest)
	}
	return s.repo.Get(ctx, turfID)
}

func (s *Service) Search(ctx context.Context, q string, limit int64) ([]Turf, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repo.SearchByNamePrefix(ctx, q, limit)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUID string) ([]Turf, error) {
	if ownerUID == "" {
		return nil, fmt.Errorf("%w: owner uid is required", ErrBadRequest)
	}
	return s.repo.ListByOwner(ctx, ownerUID)
}

// Update applies a partial listing update. Only the owning user may change a
// turf; template changes never touch existing bookings.
func (s *Service) Update(ctx context.Context, actorUID, turfID string, in UpdateTurfInput) (*Turf, error) {
	if turfID == "" {
		return nil, fmt.Errorf("%w: turfId is required", ErrBadRequest)
	}

	existing, err := s.repo.Get(ctx, turfID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != actorUID {
		return nil, fmt.Errorf("%w: only the listing owner can update it", ErrUnauthorized)
	}

	updates := map[string]interface{}{
		"updatedAt": time.Now().UTC(),
	}

	name, location := existing.Name, existing.Location
	if in.Name != nil {
		name = utils.TrimMax(*in.Name, 120)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrBadRequest)
		}
		updates["name"] = name
		updates["nameLower"] = utils.NormalizeNameLower(name)
		updates["slug"] = utils.Slugify(name)
	}
	if in.Location != nil {
		location = utils.TrimMax(*in.Location, 200)
		if location == "" {
			return nil, fmt.Errorf("%w: location cannot be empty", ErrBadRequest)
		}
		updates["location"] = location
	}
	if in.Name != nil || in.Location != nil {
		updates["searchTokens"] = utils.SearchTokens(name, location)
	}
	if in.PricePerHour != nil {
		if *in.PricePerHour < 0 {
			return nil, fmt.Errorf("%w: pricePerHour must be >= 0", ErrBadRequest)
		}
		updates["pricePerHour"] = *in.PricePerHour
	}
	if in.Phone != nil {
		updates["ownerPhone"] = utils.TrimMax(*in.Phone, 20)
	}
	if in.PhotoIDs != nil {
		updates["photoIds"] = *in.PhotoIDs
	}
	if in.Slots != nil {
		tmpl, err := availability.NewTemplate(*in.Slots)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		raw, err := tmpl.Encode()
		if err != nil {
			return nil, err
		}
		updates["slotConfiguration"] = raw
	}

	return s.repo.Update(ctx, turfID, updates)
}

// Delete delists a turf. The owner may delist their own listing; a platform
// admin may delist any. Bookings for the turf are left untouched.
func (s *Service) Delete(ctx context.Context, actorUID string, actorIsAdmin bool, turfID string) error {
	if turfID == "" {
		return fmt.Errorf("%w: turfId is required", ErrBadRequest)
	}

	existing, err := s.repo.Get(ctx, turfID)
	if err != nil {
		return err
	}
	if existing.OwnerID != actorUID && !actorIsAdmin {
		return fmt.Errorf("%w: only the listing owner can delete it", ErrUnauthorized)
	}

	return s.repo.Delete(ctx, turfID)
}

func (s *Service) canList(ctx context.Context, uid string) (bool, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err == nil && p != nil {
		return p.CanListTurfs(), nil
	}
	// no users doc yet: not an owner
	return false, nil
}

func validateCreateInput(in CreateTurfInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	if in.Location == "" {
		return fmt.Errorf("%w: location is required", ErrBadRequest)
	}
	if in.PricePerHour < 0 {
		return fmt.Errorf("%w: pricePerHour must be >= 0", ErrBadRequest)
	}
	return nil
}
