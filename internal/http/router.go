package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"turfbook/backend/internal/config"
	"turfbook/backend/internal/domain/booking"
	"turfbook/backend/internal/domain/payments"
	"turfbook/backend/internal/domain/turf"
	"turfbook/backend/internal/domain/user"
	"turfbook/backend/internal/handlers"
	"turfbook/backend/internal/middleware"
	"turfbook/backend/internal/utils"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Cfg             config.Config
	AuthClient      *auth.Client
	FirestoreClient *firestore.Client
	UserRepo        *user.Repo
	TurfSvc         *turf.Service
	Ledger          *booking.Ledger
	PaymentsSvc     *payments.Service
	Uploads         *handlers.Uploads
	StripeH         *handlers.Stripe
	ClaimsH         *handlers.Claims
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// ===== Stripe Webhook (no auth required) =====
	if d.StripeH != nil {
		r.Post("/v1/stripe/webhook", d.StripeH.Webhook)
	}

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.AuthClient))

		// ===== Profile routes =====
		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			out := map[string]any{
				"uid":    au.UID,
				"email":  au.Email,
				"claims": au.Claims,
			}
			if p, err := d.UserRepo.Get(r.Context(), au.UID); err == nil {
				out["profile"] = p
			}
			WriteJSON(w, 200, out)
		})

		pr.Patch("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in struct {
				DisplayName *string `json:"displayName,omitempty"`
				Phone       *string `json:"phone,omitempty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}

			updates := map[string]any{}
			if in.DisplayName != nil {
				updates["displayName"] = utils.TrimMax(*in.DisplayName, 120)
			}
			if in.Phone != nil {
				updates["phone"] = utils.TrimMax(*in.Phone, 20)
			}
			if len(updates) == 0 {
				Fail(w, 400, "nothing to update")
				return
			}

			if err := d.UserRepo.UpsertMinimal(r.Context(), au.UID, au.Email); err != nil {
				Fail(w, 500, "failed to save profile")
				return
			}
			if err := d.UserRepo.UpdateContact(r.Context(), au.UID, updates); err != nil {
				Fail(w, 500, "failed to save profile")
				return
			}
			WriteJSON(w, 200, map[string]any{"ok": true})
		})

		// ===== Claims sync =====
		if d.ClaimsH != nil {
			pr.Post("/v1/me/claims/sync", d.ClaimsH.SyncUserClaims)
			pr.Post("/v1/admin/claims/migrate", d.ClaimsH.MigrateAllUserClaims)
		}

		// ===== Turf routes =====
		pr.Post("/v1/turfs", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in turf.CreateTurfInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			in.Trim()

			out, err := d.TurfSvc.Create(r.Context(), au.UID, in)
			if err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/turfs/search", func(w http.ResponseWriter, r *http.Request) {
			q := strings.TrimSpace(r.URL.Query().Get("q"))
			limit := int64(20)
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					limit = n
				}
			}
			out, err := d.TurfSvc.Search(r.Context(), q, limit)
			if err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/turfs/{turfId}", func(w http.ResponseWriter, r *http.Request) {
			turfId := chi.URLParam(r, "turfId")
			out, err := d.TurfSvc.Get(r.Context(), turfId)
			if err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Patch("/v1/turfs/{turfId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			turfId := chi.URLParam(r, "turfId")

			var in turf.UpdateTurfInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}

			out, err := d.TurfSvc.Update(r.Context(), au.UID, turfId, in)
			if err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Delete("/v1/turfs/{turfId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			turfId := chi.URLParam(r, "turfId")

			if err := d.TurfSvc.Delete(r.Context(), au.UID, middleware.IsAdmin(au.Claims), turfId); err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, map[string]any{"ok": true})
		})

		pr.Get("/v1/owner/turfs", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.TurfSvc.ListByOwner(r.Context(), au.UID)
			if err != nil {
				status, msg := mapTurfError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		// ===== Availability =====
		pr.Get("/v1/turfs/{turfId}/availability", func(w http.ResponseWriter, r *http.Request) {
			turfId := chi.URLParam(r, "turfId")

			loc := time.UTC
			if tz := r.URL.Query().Get("tz"); tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					Fail(w, 400, "unknown tz")
					return
				}
				loc = l
			}

			date, err := utils.ParseDate(r.URL.Query().Get("date"), loc)
			if err != nil {
				Fail(w, 400, "date must be YYYY-MM-DD")
				return
			}

			slots, err := d.Ledger.AvailabilityOn(r.Context(), turfId, date)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, map[string]any{
				"date":  date.Format("2006-01-02"),
				"slots": slots,
			})
		})

		// ===== Booking routes =====
		pr.Post("/v1/turfs/{turfId}/bookings", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			turfId := chi.URLParam(r, "turfId")

			var in struct {
				StartTime     string   `json:"startTime"`
				ExpectedPrice *float64 `json:"expectedPrice,omitempty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			start, err := utils.ParseTime(in.StartTime)
			if err != nil {
				Fail(w, 400, "startTime must be RFC3339")
				return
			}

			req := booking.RequestInput{
				TurfID:        turfId,
				UserID:        au.UID,
				Start:         start,
				ExpectedPrice: in.ExpectedPrice,
			}
			// contact details come from the profile, not the payload
			if p, err := d.UserRepo.Get(r.Context(), au.UID); err == nil {
				req.UserName = p.DisplayName
				req.UserPhone = p.Phone
			}

			out, err := d.Ledger.Request(r.Context(), req)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/me/bookings", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.Ledger.ListForUser(r.Context(), au.UID)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			if v := r.URL.Query().Get("status"); v != "" {
				st, err := booking.ParseStatus(v)
				if err != nil {
					Fail(w, 400, err.Error())
					return
				}
				filtered := out[:0]
				for _, b := range out {
					if b.Status == st {
						filtered = append(filtered, b)
					}
				}
				out = filtered
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/owner/bookings", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.Ledger.ListForOwner(r.Context(), au.UID)
			if err != nil {
				status, msg := mapBookingError(err)
				Fail(w, status, msg)
				return
			}
			WriteJSON(w, 200, out)
		})

		transition := func(to booking.Status) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				bookingId := chi.URLParam(r, "bookingId")

				out, err := d.Ledger.Transition(r.Context(), au.UID, bookingId, to)
				if err != nil {
					status, msg := mapBookingError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 200, out)
			}
		}
		pr.Post("/v1/bookings/{bookingId}/approve", transition(booking.StatusApproved))
		pr.Post("/v1/bookings/{bookingId}/reject", transition(booking.StatusRejected))
		pr.Post("/v1/bookings/{bookingId}/cancel", transition(booking.StatusCancelled))

		// ===== Payments =====
		if d.PaymentsSvc != nil {
			pr.Post("/v1/payments/checkout", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())

				var in payments.CreateCheckoutInput
				if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
					Fail(w, 400, "invalid json")
					return
				}

				out, err := d.PaymentsSvc.CreateBookingCheckout(r.Context(), au.UID, in)
				if err != nil {
					status, msg := mapPaymentsError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 201, out)
			})

			pr.Get("/v1/bookings/{bookingId}/payment", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				bookingId := chi.URLParam(r, "bookingId")

				out, err := d.PaymentsSvc.GetForBooking(r.Context(), au.UID, bookingId)
				if err != nil {
					status, msg := mapPaymentsError(err)
					Fail(w, status, msg)
					return
				}
				WriteJSON(w, 200, out)
			})
		}

		if d.StripeH != nil {
			pr.Post("/v1/payments/refund", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				if !middleware.IsAdmin(au.Claims) {
					Fail(w, 403, "admin role required")
					return
				}
				d.StripeH.IssueRefund(w, r)
			})
		}

		// ===== Uploads (turf photos) =====
		if d.Uploads != nil {
			ownerOnly := func(next http.HandlerFunc) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					au, _ := middleware.GetAuthUser(r.Context())
					if !middleware.IsOwner(au.Claims) {
						Fail(w, 403, "owner role required")
						return
					}
					next(w, r)
				}
			}
			pr.Post("/v1/uploads/photo-url", ownerOnly(d.Uploads.CreatePhotoUploadURL))
			pr.Post("/v1/uploads/photo-urls", ownerOnly(d.Uploads.CreatePhotoUploadURLs))
			pr.Get("/v1/uploads/photo-view-url", d.Uploads.PhotoViewURL)
		}
	})

	return r
}

func mapTurfError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case turf.IsErrUnauthorized(err):
		return 403, err.Error()
	case turf.IsErrNotFound(err):
		return 404, err.Error()
	case turf.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapBookingError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case booking.IsErrUnauthorized(err):
		return 403, err.Error()
	case booking.IsErrNotFound(err):
		return 404, err.Error()
	case booking.IsErrSlotConflict(err):
		return 409, err.Error()
	case booking.IsErrInvalidTransition(err):
		return 409, err.Error()
	case booking.IsErrPastSlot(err):
		return 422, err.Error()
	case booking.IsErrUnavailable(err):
		return 503, err.Error()
	case booking.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapPaymentsError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case payments.IsErrUnauthorized(err):
		return 403, err.Error()
	case payments.IsErrNotFound(err):
		return 404, err.Error()
	case payments.IsErrNotPayable(err):
		return 409, err.Error()
	case payments.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}
