package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything read from the environment at startup. A .env file is
// loaded by main before parsing, so local runs work the same as deployed ones.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"4000"`

	// Base64-encoded Firebase service account JSON. When empty the server runs
	// on the in-memory store, which is enough for local development and tests.
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`

	// Allowed browser origin for the frontend. Empty allows any origin.
	ClientURL string `env:"CLIENT_URL"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	ChatModel    string `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`

	MapsAPIKey string `env:"MAPS_CREDENTIALS"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Aggregation tuning: reports within MatchRadiusMeters of an open incident
	// of the same type, arriving within FreshnessWindow of its last report,
	// merge into it.
	MatchRadiusMeters float64       `env:"MATCH_RADIUS_METERS" envDefault:"500"`
	FreshnessWindow   time.Duration `env:"FRESHNESS_WINDOW" envDefault:"24h"`

	// Seed partner created at startup if no partner with that email exists.
	SeedPartnerEmail    string `env:"SEED_PARTNER_EMAIL"`
	SeedPartnerPassword string `env:"SEED_PARTNER_PASSWORD"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.MatchRadiusMeters <= 0 {
		return nil, fmt.Errorf("MATCH_RADIUS_METERS must be positive, got %v", cfg.MatchRadiusMeters)
	}
	if cfg.FreshnessWindow <= 0 {
		return nil, fmt.Errorf("FRESHNESS_WINDOW must be positive, got %v", cfg.FreshnessWindow)
	}
	return &cfg, nil
}
