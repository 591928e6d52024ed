package config

import (
	"os"
	"strings"
)

type Config struct {
	ProjectID                    string
	Port                         string
	AllowedOrigins               []string
	StorageBucket                string
	TurfImagesPrefix             string
	StripeSecretKey              string
	StripeWebhookSecret          string
	StripeCurrency               string
	SignedURLServiceAccountEmail string
}

func Load() Config {
	// FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT
	projectID := getenv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}

	port := getenv("PORT", "8080")
	origins := getenv("ALLOWED_ORIGINS", "http://localhost:5173")
	storageBucket := getenv("FIREBASE_STORAGE_BUCKET", "")
	if storageBucket == "" && projectID != "" {
		storageBucket = projectID + ".appspot.com"
	}
	turfImagesPrefix := getenv("TURF_IMAGES_PREFIX", "turfs")
	stripeSecretKey := getenv("STRIPE_SECRET_KEY", "")
	stripeWebhookSecret := getenv("STRIPE_WEBHOOK_SECRET", "")
	stripeCurrency := getenv("STRIPE_CURRENCY", "inr")
	signedURLServiceAccountEmail := getenv("SIGNED_URL_SERVICE_ACCOUNT_EMAIL", "")

	allowed := []string{}
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	return Config{
		ProjectID:                    projectID,
		Port:                         port,
		AllowedOrigins:               allowed,
		StorageBucket:                storageBucket,
		TurfImagesPrefix:             turfImagesPrefix,
		StripeSecretKey:              stripeSecretKey,
		StripeWebhookSecret:          stripeWebhookSecret,
		StripeCurrency:               stripeCurrency,
		SignedURLServiceAccountEmail: signedURLServiceAccountEmail,
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
