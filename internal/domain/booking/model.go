package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrBadRequest, s)
}

// Active bookings occupy their slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Booking is one requested one-hour slot on a turf. TotalPrice is copied
// from the turf at creation time and never recalculated afterwards.
type Booking struct {
	ID       string `firestore:"id" json:"id"`
	TurfID   string `firestore:"turfId" json:"turfId"`
	TurfName string `firestore:"turfName,omitempty" json:"turfName,omitempty"`

	UserID    string `firestore:"userId" json:"userId"`
	UserName  string `firestore:"userName,omitempty" json:"userName,omitempty"`
	UserPhone string `firestore:"userNumber,omitempty" json:"userNumber,omitempty"`

	StartTime  time.Time `firestore:"startTime" json:"startTime"`
	EndTime    time.Time `firestore:"endTime" json:"endTime"`
	TotalPrice float64   `firestore:"totalPrice" json:"totalPrice"`
	Status     Status    `firestore:"status" json:"status"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// RequestInput carries everything needed to request a slot. Identity fields
// come from the verified token and the user's profile, never from the client
// payload.
type RequestInput struct {
	TurfID    string
	UserID    string
	UserName  string
	UserPhone string
	Start     time.Time

	// ExpectedPrice, when set, is the per-hour price the client saw. A
	// mismatch with the turf's current price fails the request instead of
	// silently charging a different amount.
	ExpectedPrice *float64
}
