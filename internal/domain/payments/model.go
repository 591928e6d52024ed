package payments

import (
	"strings"
	"time"
)

// Payment statuses follow the checkout session lifecycle.
const (
	StatusCreated   = "created"
	StatusSucceeded = "succeeded"
	StatusRefunded  = "refunded"
)

// Payment is the record kept per checkout session, keyed by session id.
type Payment struct {
	ID              string    `firestore:"-" json:"id"`
	BookingID       string    `firestore:"bookingId" json:"bookingId"`
	TurfID          string    `firestore:"turfId" json:"turfId"`
	UserID          string    `firestore:"userId" json:"userId"`
	Amount          int64     `firestore:"amount" json:"amount"` // minor units
	Currency        string    `firestore:"currency" json:"currency"`
	Status          string    `firestore:"status" json:"status"`
	PaymentIntentID string    `firestore:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// CreateCheckoutInput is the input for paying an approved booking.
type CreateCheckoutInput struct {
	BookingID  string `json:"bookingId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

func (i *CreateCheckoutInput) Trim() {
	i.BookingID = strings.TrimSpace(i.BookingID)
	i.SuccessURL = strings.TrimSpace(i.SuccessURL)
	i.CancelURL = strings.TrimSpace(i.CancelURL)
}

// CheckoutSession is what the client needs to redirect the user.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
