// Package auth issues and validates partner bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"geolert/db"
	"geolert/errs"
	"geolert/types"
)

const issuer = "geolert"

// Claims is the JWT payload carried by partner sessions.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	store     db.Store
	secretKey []byte
	tokenTTL  time.Duration
}

func NewService(store db.Store, secretKey string, tokenTTL time.Duration) *Service {
	return &Service{
		store:     store,
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// Login verifies the partner's credentials against the stored bcrypt hash and
// returns a signed token. Wrong email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	partner, err := s.store.GetPartnerByEmail(ctx, email)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return "", errs.Auth("invalid email or password")
		}
		return "", fmt.Errorf("looking up partner: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(partner.PasswordHash), []byte(password)); err != nil {
		return "", errs.Auth("invalid email or password")
	}

	return s.generateToken(partner.Email)
}

func (s *Service) generateToken(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and returns its claims, or AuthError for
// anything expired, tampered with, or signed differently.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, errs.Auth(err.Error())
	}
	if !token.Valid {
		return nil, errs.Auth("invalid token")
	}
	return claims, nil
}

// SeedPartner creates the configured bootstrap partner if it does not exist
// yet, so a fresh deployment has a way into the dashboard.
func SeedPartner(ctx context.Context, store db.Store, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := store.GetPartnerByEmail(ctx, email)
	if err == nil {
		return nil // already present
	}
	var notFound *errs.NotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("checking for seed partner: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing seed partner password: %w", err)
	}

	partner := types.Partner{
		Email:        email,
		Name:         "Seed Partner",
		PasswordHash: string(hash),
	}
	if err := store.CreatePartner(ctx, partner); err != nil {
		return err
	}
	log.Printf("Seeded partner account for %s", email)
	return nil
}
