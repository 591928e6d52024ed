package turf

import (
	"strings"
	"time"

	"turfbook/backend/internal/domain/availability"
)

// Turf is a bookable sports-ground listing. The weekly availability template
// travels as a typed value here; the repo serializes it into the document's
// slotConfiguration blob.
type Turf struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NameLower string `json:"-"`
	Slug      string `json:"slug,omitempty"`
	Location  string `json:"location"`

	PricePerHour float64  `json:"pricePerHour"`
	OwnerID      string   `json:"ownerId"`
	OwnerPhone   string   `json:"ownerPhone,omitempty"`
	PhotoIDs     []string `json:"photoIds,omitempty"`

	Template availability.Template `json:"-"`
	// Slots is the template's wire form, filled in whenever Template is set.
	Slots []availability.DaySlots `json:"slots,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateTurfInput struct {
	Name         string                 `json:"name"`
	Location     string                 `json:"location"`
	PricePerHour float64                `json:"pricePerHour"`
	Phone        string                 `json:"phone,omitempty"`
	PhotoIDs     []string               `json:"photoIds,omitempty"`
	Slots        []availability.DaySlots `json:"slots,omitempty"`
}

func (in *CreateTurfInput) Trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Phone = strings.TrimSpace(in.Phone)
}

type UpdateTurfInput struct {
	Name         *string                 `json:"name,omitempty"`
	Location     *string                 `json:"location,omitempty"`
	PricePerHour *float64                `json:"pricePerHour,omitempty"`
	Phone        *string                 `json:"phone,omitempty"`
	PhotoIDs     *[]string               `json:"photoIds,omitempty"`
	Slots        *[]availability.DaySlots `json:"slots,omitempty"`
}
