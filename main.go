package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"geolert/aggregation"
	"geolert/auth"
	"geolert/config"
	"geolert/cronjobs"
	"geolert/db"
	"geolert/geocode"
	"geolert/query"
	"geolert/routes"
	"geolert/triage"
)

func main() {
	// Load .env file; deployed environments set real env vars instead
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Pick the store: Firestore when credentials are present, otherwise the
	// in-memory store for local development.
	var store db.Store
	if cfg.FirebaseCredentials != "" {
		firestoreClient, err := db.InitFirestore(cfg.FirebaseCredentials)
		if err != nil {
			log.Fatalf("Failed to initialize Firestore: %v", err)
		}
		defer db.CloseFirestore() // Firestore client is closed on exit
		store = db.NewFirestoreStore(firestoreClient)
		log.Println("Using Firestore store")
	} else {
		store = db.NewMemoryStore()
		log.Println("FIREBASE_CREDENTIALS not set, using in-memory store")
	}

	// Geocoding is optional; without a key reports keep whatever coordinates
	// the citizen supplied.
	var geocoder aggregation.Geocoder
	if cfg.MapsAPIKey != "" {
		gc, err := geocode.NewClient(cfg.MapsAPIKey)
		if err != nil {
			log.Fatalf("Failed to create geocoding client: %v", err)
		}
		geocoder = gc
		log.Println("Geocoding enabled")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	agg := aggregation.NewAggregator(store, geocoder, cfg.MatchRadiusMeters, cfg.FreshnessWindow)
	querySvc := query.NewService(store)
	tracker := triage.NewTracker(store)
	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)

	if err := auth.SeedPartner(context.Background(), store, cfg.SeedPartnerEmail, cfg.SeedPartnerPassword); err != nil {
		log.Fatalf("Failed to seed partner account: %v", err)
	}

	cronjobs.InitCronJobs(store, geocoder)

	r := routes.SetupRouter(cfg, agg, querySvc, tracker, authSvc)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
