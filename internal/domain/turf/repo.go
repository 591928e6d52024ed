package turf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"turfbook/backend/internal/domain/availability"
	"turfbook/backend/internal/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

// turfDoc is the persisted shape. The weekly template lives in
// slotConfiguration as a JSON blob, matching the listing documents the
// client app already writes.
type turfDoc struct {
	ID                string    `firestore:"id"`
	Name              string    `firestore:"name"`
	NameLower         string    `firestore:"nameLower"`
	Slug              string    `firestore:"slug,omitempty"`
	Location          string    `firestore:"location"`
	PricePerHour      float64   `firestore:"pricePerHour"`
	OwnerID           string    `firestore:"ownerId"`
	OwnerPhone        string    `firestore:"ownerPhone,omitempty"`
	PhotoIDs          []string  `firestore:"photoIds,omitempty"`
	SearchTokens      []string  `firestore:"searchTokens,omitempty"`
	SlotConfiguration string    `firestore:"slotConfiguration,omitempty"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

func (r *Repo) col() *firestore.CollectionRef {
	return r.fs.Collection("turfs")
}

func toDoc(t Turf) (turfDoc, error) {
	raw, err := t.Template.Encode()
	if err != nil {
		return turfDoc{}, fmt.Errorf("encode slot configuration: %w", err)
	}
	return turfDoc{
		ID:                t.ID,
		Name:              t.Name,
		NameLower:         t.NameLower,
		Slug:              t.Slug,
		Location:          t.Location,
		PricePerHour:      t.PricePerHour,
		OwnerID:           t.OwnerID,
		OwnerPhone:        t.OwnerPhone,
		PhotoIDs:          t.PhotoIDs,
		SearchTokens:      utils.SearchTokens(t.Name, t.Location),
		SlotConfiguration: raw,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}, nil
}

func fromDoc(d turfDoc) (Turf, error) {
	tmpl, err := availability.DecodeTemplate(d.SlotConfiguration)
	if err != nil {
		return Turf{}, fmt.Errorf("decode slot configuration for turf %s: %w", d.ID, err)
	}
	return Turf{
		ID:           d.ID,
		Name:         d.Name,
		NameLower:    d.NameLower,
		Slug:         d.Slug,
		Location:     d.Location,
		PricePerHour: d.PricePerHour,
		OwnerID:      d.OwnerID,
		OwnerPhone:   d.OwnerPhone,
		PhotoIDs:     d.PhotoIDs,
		Template:     tmpl,
		Slots:        tmpl.Days(),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func (r *Repo) Create(ctx context.Context, t Turf) (*Turf, error) {
	ref := r.col().NewDoc()
	t.ID = ref.ID

	doc, err := toDoc(t)
	if err != nil {
		return nil, err
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create turf: %w", err)
	}
	return &t, nil
}

func (r *Repo) Get(ctx context.Context, turfID string) (*Turf, error) {
	doc, err := r.col().Doc(turfID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: turf not found", ErrNotFound)
	}

	var d turfDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse turf: %w", err)
	}
	if d.ID == "" {
		d.ID = doc.Ref.ID
	}
	t, err := fromDoc(d)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update applies a partial field update and re-reads the document.
func (r *Repo) Update(ctx context.Context, turfID string, updates map[string]interface{}) (*Turf, error) {
	ref := r.col().Doc(turfID)
	if _, err := ref.Set(ctx, updates, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to update turf: %w", err)
	}
	return r.Get(ctx, turfID)
}

func (r *Repo) Delete(ctx context.Context, turfID string) error {
	if _, err := r.col().Doc(turfID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete turf: %w", err)
	}
	return nil
}

// searchUpperBound closes the half-open prefix interval [q, bound) used for
// nameLower queries. U+F8FF sorts after every character nameLower can hold.
func searchUpperBound(q string) string {
	return q + "\uf8ff"
}

// SearchByNamePrefix lists turfs whose normalized name starts with q; an
// empty q returns the most recent listings.
func (r *Repo) SearchByNamePrefix(ctx context.Context, q string, limit int64) ([]Turf, error) {
	q = strings.TrimSpace(strings.ToLower(q))

	var it *firestore.DocumentIterator
	if q == "" {
		it = r.col().OrderBy("createdAt", firestore.Desc).Limit(int(limit)).Documents(ctx)
	} else {
		// prefix search on nameLower (requires index sometimes depending on project)
		it = r.col().Where("nameLower", ">=", q).
			Where("nameLower", "<", searchUpperBound(q)).
			OrderBy("nameLower", firestore.Asc).
			Limit(int(limit)).
			Documents(ctx)
	}

	return collect(it)
}

func (r *Repo) ListByOwner(ctx context.Context, ownerUID string) ([]Turf, error) {
	it := r.col().Where("ownerId", "==", ownerUID).Documents(ctx)
	return collect(it)
}

// IDsByOwner returns just the listing ids for an owner, for booking queries.
func (r *Repo) IDsByOwner(ctx context.Context, ownerUID string) ([]string, error) {
	it := r.col().Where("ownerId", "==", ownerUID).Select().Documents(ctx)
	defer it.Stop()

	ids := []string{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list turf ids: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func collect(it *firestore.DocumentIterator) ([]Turf, error) {
	defer it.Stop()

	out := []Turf{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate turfs: %w", err)
		}
		var d turfDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse turf %s: %w", doc.Ref.ID, err)
		}
		if d.ID == "" {
			d.ID = doc.Ref.ID
		}
		t, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
