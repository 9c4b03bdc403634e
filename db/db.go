package db

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"geolert/types"
)

// HashString hashes a given string using SHA-256 and returns its hex
// representation. Used for deterministic partner document IDs.
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Store is the persistence surface the rest of the app is built against.
// Incidents are never deleted; raw reports are immutable and owned by exactly
// one incident.
type Store interface {
	// GetIncident returns NotFoundError for unknown ids.
	GetIncident(ctx context.Context, id string) (types.Incident, error)
	ListIncidents(ctx context.Context) ([]types.Incident, error)

	// ListOpenIncidentsByType returns non-resolved incidents of the given type
	// whose lastSeenAt is at or after the cutoff. Used for aggregation matching.
	ListOpenIncidentsByType(ctx context.Context, dt types.DisasterType, since time.Time) ([]types.Incident, error)

	// CreateIncident persists a new incident together with its first member
	// report in one commit.
	CreateIncident(ctx context.Context, inc types.Incident, first types.RawReport) error

	// AppendReport commits the already-recomputed aggregate fields of inc and
	// adds report to its member set. inc.Version must be the version the caller
	// read; the commit fails with ConflictError if another writer got there
	// first.
	AppendReport(ctx context.Context, inc types.Incident, report types.RawReport) error

	// UpdateIncidentStatus sets the status field and returns the updated
	// incident, bumping the version so concurrent aggregate commits re-read
	// rather than revert the transition. NotFoundError for unknown ids.
	UpdateIncidentStatus(ctx context.Context, id string, status types.Status) (types.Incident, error)

	ListIncidentReports(ctx context.Context, incidentID string) ([]types.RawReport, error)

	// ListUnlocatedIncidents returns incidents persisted without coordinates,
	// for the geocode backfill job.
	ListUnlocatedIncidents(ctx context.Context) ([]types.Incident, error)

	// SetIncidentCoordinates writes coordinates and bumps the version, keeping
	// the backfill under the same write discipline as aggregate commits.
	SetIncidentCoordinates(ctx context.Context, id string, c types.LatLng) error

	// GetPartnerByEmail returns NotFoundError when no partner has that email.
	GetPartnerByEmail(ctx context.Context, email string) (types.Partner, error)
	CreatePartner(ctx context.Context, p types.Partner) error
}

var (
	client     *firestore.Client
	clientOnce sync.Once
)

// InitFirestore initializes and returns a singleton Firestore client from the
// base64-encoded service account in encodedCreds.
func InitFirestore(encodedCreds string) (*firestore.Client, error) {
	var err error

	clientOnce.Do(func() {
		creds, decodeErr := base64.StdEncoding.DecodeString(encodedCreds)
		if decodeErr != nil {
			log.Fatalf("Failed to decode Firestore credentials: %v", decodeErr)
		}

		opt := option.WithCredentialsJSON(creds)
		app, appErr := firebase.NewApp(context.Background(), nil, opt)
		if appErr != nil {
			log.Fatalf("Error initializing Firestore: %v", appErr)
		}

		client, err = app.Firestore(context.Background())
		if err != nil {
			log.Fatalf("Error getting Firestore client: %v", err)
		}
	})

	return client, err
}

// CloseFirestore closes the Firestore client.
func CloseFirestore() {
	if client != nil {
		client.Close()
	}
}
