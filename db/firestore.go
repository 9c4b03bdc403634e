package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"geolert/errs"
	"geolert/types"
)

const (
	disastersCollection = "Disasters"
	partnersCollection  = "Partners"
	reportsSubcoll      = "reports"
)

// FirestoreStore persists incidents and partners in Firestore. Each incident
// document owns its member reports in a subcollection, so a report can never
// belong to two incidents.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) GetIncident(ctx context.Context, id string) (types.Incident, error) {
	var inc types.Incident

	docSnap, err := s.client.Collection(disastersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return inc, errs.NotFound("incident", id)
		}
		return inc, fmt.Errorf("error getting incident %s: %w", id, err)
	}

	if err := docSnap.DataTo(&inc); err != nil {
		return inc, fmt.Errorf("error converting document %s to Incident: %w", id, err)
	}
	inc.ID = docSnap.Ref.ID
	return inc, nil
}

func (s *FirestoreStore) ListIncidents(ctx context.Context) ([]types.Incident, error) {
	var all []types.Incident

	iter := s.client.Collection(disastersCollection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating incidents: %w", err)
		}

		var inc types.Incident
		if err := doc.DataTo(&inc); err != nil {
			log.Printf("Warning: Error converting document %s to Incident: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		inc.ID = doc.Ref.ID
		all = append(all, inc)
	}
	return all, nil
}

func (s *FirestoreStore) ListOpenIncidentsByType(ctx context.Context, dt types.DisasterType, since time.Time) ([]types.Incident, error) {
	var open []types.Incident

	iter := s.client.Collection(disastersCollection).
		Where("disasterType", "==", string(dt)).
		Where("lastSeenAt", ">=", since).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating open incidents: %w", err)
		}

		var inc types.Incident
		if err := doc.DataTo(&inc); err != nil {
			log.Printf("Warning: Error converting document %s to Incident: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		// Resolved incidents no longer accumulate reports.
		if inc.Status == types.Resolved {
			continue
		}
		inc.ID = doc.Ref.ID
		open = append(open, inc)
	}
	return open, nil
}

func (s *FirestoreStore) CreateIncident(ctx context.Context, inc types.Incident, first types.RawReport) error {
	incRef := s.client.Collection(disastersCollection).Doc(inc.ID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(incRef, inc); err != nil {
			return fmt.Errorf("failed to create incident document: %w", err)
		}
		if err := tx.Create(incRef.Collection(reportsSubcoll).Doc(first.ID), first); err != nil {
			return fmt.Errorf("failed to create first report document: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create incident %s: %w", inc.ID, err)
	}
	return nil
}

func (s *FirestoreStore) AppendReport(ctx context.Context, inc types.Incident, report types.RawReport) error {
	incRef := s.client.Collection(disastersCollection).Doc(inc.ID)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(incRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NotFound("incident", inc.ID)
			}
			return fmt.Errorf("error getting incident %s: %w", inc.ID, err)
		}

		var current types.Incident
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("error converting document %s to Incident: %w", inc.ID, err)
		}
		if current.Version != inc.Version {
			return &errs.ConflictError{IncidentID: inc.ID}
		}

		committed := inc
		committed.Version = inc.Version + 1
		if err := tx.Set(incRef, committed); err != nil {
			return fmt.Errorf("failed to set incident document: %w", err)
		}
		if err := tx.Create(incRef.Collection(reportsSubcoll).Doc(report.ID), report); err != nil {
			return fmt.Errorf("failed to create report document: %w", err)
		}
		return nil
	})
}

func (s *FirestoreStore) UpdateIncidentStatus(ctx context.Context, id string, newStatus types.Status) (types.Incident, error) {
	incRef := s.client.Collection(disastersCollection).Doc(id)
	var updated types.Incident

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(incRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NotFound("incident", id)
			}
			return fmt.Errorf("error getting incident %s: %w", id, err)
		}

		if err := snap.DataTo(&updated); err != nil {
			return fmt.Errorf("error converting document %s to Incident: %w", id, err)
		}
		updated.ID = id
		if updated.Status == newStatus {
			return nil // idempotent no-op
		}

		updated.Status = newStatus
		// bumping the version forces any in-flight aggregate commit into its
		// conflict retry, so the transition cannot be silently reverted
		updated.Version++
		return tx.Update(incRef, []firestore.Update{
			{Path: "status", Value: string(newStatus)},
			{Path: "version", Value: updated.Version},
		})
	})
	if err != nil {
		return types.Incident{}, err
	}
	return updated, nil
}

func (s *FirestoreStore) ListIncidentReports(ctx context.Context, incidentID string) ([]types.RawReport, error) {
	var reports []types.RawReport

	iter := s.client.Collection(disastersCollection).
		Doc(incidentID).
		Collection(reportsSubcoll).
		OrderBy("submittedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating reports for %s: %w", incidentID, err)
		}

		var r types.RawReport
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("error converting document %s to RawReport: %w", doc.Ref.ID, err)
		}
		r.ID = doc.Ref.ID
		reports = append(reports, r)
	}
	return reports, nil
}

// ListUnlocatedIncidents filters client-side: Firestore cannot query for an
// absent field, and the incident collection stays small enough to scan.
func (s *FirestoreStore) ListUnlocatedIncidents(ctx context.Context) ([]types.Incident, error) {
	all, err := s.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}

	var unlocated []types.Incident
	for _, inc := range all {
		if inc.Coordinates == nil {
			unlocated = append(unlocated, inc)
		}
	}
	return unlocated, nil
}

func (s *FirestoreStore) SetIncidentCoordinates(ctx context.Context, id string, c types.LatLng) error {
	incRef := s.client.Collection(disastersCollection).Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(incRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NotFound("incident", id)
			}
			return fmt.Errorf("error getting incident %s: %w", id, err)
		}

		var inc types.Incident
		if err := snap.DataTo(&inc); err != nil {
			return fmt.Errorf("error converting document %s to Incident: %w", id, err)
		}

		// version bump keeps the backfill inside the same write discipline as
		// aggregate commits, so neither side can clobber the other
		return tx.Update(incRef, []firestore.Update{
			{Path: "coordinates", Value: c},
			{Path: "version", Value: inc.Version + 1},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to update coordinates for incident %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) GetPartnerByEmail(ctx context.Context, email string) (types.Partner, error) {
	var p types.Partner
	docID := HashString(strings.ToLower(email))

	docSnap, err := s.client.Collection(partnersCollection).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return p, errs.NotFound("partner", email)
		}
		return p, fmt.Errorf("error getting partner %s: %w", email, err)
	}

	if err := docSnap.DataTo(&p); err != nil {
		return p, fmt.Errorf("error converting document to Partner: %w", err)
	}
	p.ID = docSnap.Ref.ID
	return p, nil
}

func (s *FirestoreStore) CreatePartner(ctx context.Context, p types.Partner) error {
	docID := HashString(strings.ToLower(p.Email))
	_, err := s.client.Collection(partnersCollection).Doc(docID).Set(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create partner %s: %w", p.Email, err)
	}
	return nil
}
