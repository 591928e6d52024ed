package payments

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"turfbook/backend/internal/domain/booking"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
)

// Config carries the Stripe settings the service needs. The values come from
// config.Load; this package never reads the environment itself.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type Service struct {
	fs     *firestore.Client
	config Config
}

func NewService(fs *firestore.Client, cfg Config) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{fs: fs, config: cfg}
}

// CreateBookingCheckout opens a one-off checkout session for an approved
// booking. Only the requesting user may pay, and only while the booking is
// approved; pending requests wait for the owner, terminal ones are gone.
func (s *Service) CreateBookingCheckout(ctx context.Context, userUID string, input CreateCheckoutInput) (*CheckoutSession, error) {
	input.Trim()

	if input.BookingID == "" {
		return nil, fmt.Errorf("%w: bookingId is required", ErrBadRequest)
	}
	if input.SuccessURL == "" || input.CancelURL == "" {
		return nil, fmt.Errorf("%w: successUrl and cancelUrl are required", ErrBadRequest)
	}

	doc, err := s.fs.Collection("bookings").Doc(input.BookingID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	var b booking.Booking
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to parse booking: %w", err)
	}
	if b.UserID != userUID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrUnauthorized)
	}
	if b.Status != booking.StatusApproved {
		return nil, fmt.Errorf("%w: booking is %s", ErrNotPayable, b.Status)
	}

	amount := int64(math.Round(b.TotalPrice * 100))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: booking has no payable amount", ErrNotPayable)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.config.Currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s - %s", b.TurfName, b.StartTime.Format("Mon 2 Jan 15:04"))),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"bookingId": input.BookingID,
			"turfId":    b.TurfID,
			"userId":    b.UserID,
		},
	}
	params.SetIdempotencyKey(uuid.NewString())

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.fs.Collection("payments").Doc(sess.ID).Set(ctx, Payment{
		BookingID: input.BookingID,
		TurfID:    b.TurfID,
		UserID:    b.UserID,
		Amount:    amount,
		Currency:  s.config.Currency,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Printf("payments: failed to record session %s: %v", sess.ID, err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// MarkPaid records a completed checkout session. Called from the webhook; a
// session for an unknown payment record still gets a row so nothing is lost.
func (s *Service) MarkPaid(ctx context.Context, sessionID, paymentIntentID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrBadRequest)
	}
	_, err := s.fs.Collection("payments").Doc(sessionID).Set(ctx, map[string]interface{}{
		"status":          StatusSucceeded,
		"paymentIntentId": paymentIntentID,
		"updatedAt":       time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

// MarkRefunded flags the payment record after a refund is issued.
func (s *Service) MarkRefunded(ctx context.Context, paymentIntentID string) error {
	it := s.fs.Collection("payments").
		Where("paymentIntentId", "==", paymentIntentID).
		Limit(1).
		Documents(ctx)
	docs, err := it.GetAll()
	if err != nil || len(docs) == 0 {
		return fmt.Errorf("%w: payment not found", ErrNotFound)
	}
	_, err = docs[0].Ref.Set(ctx, map[string]interface{}{
		"status":    StatusRefunded,
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

// GetForBooking returns the most recent payment record for a booking.
func (s *Service) GetForBooking(ctx context.Context, userUID, bookingID string) (*Payment, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("%w: bookingId is required", ErrBadRequest)
	}
	it := s.fs.Collection("payments").
		Where("bookingId", "==", bookingID).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	docs, err := it.GetAll()
	if err != nil || len(docs) == 0 {
		return nil, fmt.Errorf("%w: no payment for booking", ErrNotFound)
	}

	var p Payment
	if err := docs[0].DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to parse payment: %w", err)
	}
	p.ID = docs[0].Ref.ID
	if p.UserID != userUID {
		return nil, fmt.Errorf("%w: payment belongs to another user", ErrUnauthorized)
	}
	return &p, nil
}
