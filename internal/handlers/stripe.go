package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"turfbook/backend/internal/config"
	"turfbook/backend/internal/domain/payments"
	"turfbook/backend/internal/firebase"
	"turfbook/backend/internal/httpjson"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/refund"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Stripe owns the webhook and refund surface. Checkout sessions are created
// by the payments service; this handler closes the loop when Stripe calls
// back.
type Stripe struct {
	cfg      config.Config
	clients  *firebase.Clients
	payments *payments.Service
}

func NewStripe(cfg config.Config, clients *firebase.Clients, pay *payments.Service) *Stripe {
	return &Stripe{cfg: cfg, clients: clients, payments: pay}
}

// Webhook handles Stripe webhook events.
// Deploy tip: ensure your Cloud Run service keeps raw request body intact.
func (h *Stripe) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusNotImplemented)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	// Restore body for any further reads.
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Keep an audit trail of everything Stripe sends us.
	_, _ = h.clients.Firestore.Collection("stripeEvents").Doc(event.ID).Set(ctx, map[string]interface{}{
		"type":       event.Type,
		"created":    event.Created,
		"livemode":   event.Livemode,
		"receivedAt": time.Now(),
	})

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("webhook: error parsing checkout session: %v", err)
			http.Error(w, "error parsing webhook JSON", http.StatusBadRequest)
			return
		}
		piID := ""
		if sess.PaymentIntent != nil {
			piID = sess.PaymentIntent.ID
		}
		if err := h.payments.MarkPaid(ctx, sess.ID, piID); err != nil {
			// Acknowledge anyway so Stripe does not hammer us with retries.
			log.Printf("webhook: error recording payment for session %s: %v", sess.ID, err)
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			log.Printf("webhook: error parsing charge: %v", err)
			http.Error(w, "error parsing webhook JSON", http.StatusBadRequest)
			return
		}
		if ch.PaymentIntent != nil {
			if err := h.payments.MarkRefunded(ctx, ch.PaymentIntent.ID); err != nil {
				log.Printf("webhook: error recording refund: %v", err)
			}
		}

	default:
		log.Printf("webhook: unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}

type refundReq struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Reason          string `json:"reason,omitempty"`
}

func (h *Stripe) IssueRefund(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StripeSecretKey == "" {
		httpjson.Error(w, http.StatusNotImplemented, "STRIPE_SECRET_KEY not set")
		return
	}
	stripe.Key = h.cfg.StripeSecretKey

	var req refundReq
	if err := httpjson.Read(r, &req); err != nil || req.PaymentIntentID == "" {
		httpjson.Error(w, http.StatusBadRequest, "paymentIntentId required")
		return
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
	}
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}

	rf, err := refund.New(params)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "refund failed")
		return
	}

	if err := h.payments.MarkRefunded(r.Context(), req.PaymentIntentID); err != nil {
		log.Printf("refund: issued but not recorded locally: %v", err)
	}

	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"id":     rf.ID,
		"status": rf.Status,
	})
}
