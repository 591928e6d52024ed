package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turfbook/backend/internal/config"
	"turfbook/backend/internal/domain/booking"
	"turfbook/backend/internal/domain/payments"
	"turfbook/backend/internal/domain/turf"
	"turfbook/backend/internal/domain/user"
	"turfbook/backend/internal/firebase"
	"turfbook/backend/internal/handlers"
	apihttp "turfbook/backend/internal/http"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("firebase init failed: %v", err)
	}
	defer clients.Close()

	// Repositories
	userRepo := user.NewRepo(clients.Firestore)
	turfRepo := turf.NewRepo(clients.Firestore)
	bookingRepo := booking.NewRepo(clients.Firestore)

	// Services
	turfSvc := turf.NewService(turfRepo, userRepo)
	ledger := booking.NewLedger(bookingRepo, turfRepo)

	// Stripe-backed payments (optional - only if configured)
	var paymentsSvc *payments.Service
	var stripeH *handlers.Stripe
	payCfg := payments.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.StripeCurrency,
	}
	if payCfg.SecretKey != "" {
		paymentsSvc = payments.NewService(clients.Firestore, payCfg)
		stripeH = handlers.NewStripe(cfg, clients, paymentsSvc)
		log.Println("Stripe payments initialized")
	} else {
		log.Println("STRIPE_SECRET_KEY not set, payments disabled")
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:             cfg,
		AuthClient:      clients.Auth,
		FirestoreClient: clients.Firestore,
		UserRepo:        userRepo,
		TurfSvc:         turfSvc,
		Ledger:          ledger,
		PaymentsSvc:     paymentsSvc,
		Uploads:         handlers.NewUploads(cfg, clients),
		StripeH:         stripeH,
		ClaimsH:         handlers.NewClaims(clients),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Printf("API listening on :%s (project=%s)", cfg.Port, cfg.ProjectID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}
