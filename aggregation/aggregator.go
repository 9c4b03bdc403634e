// Package aggregation groups raw citizen reports into incidents.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"geolert/db"
	"geolert/errs"
	"geolert/types"
)

// Geocoder resolves a free-text place name to coordinates. Implementations
// return (nil, nil) when the address is unknown.
type Geocoder interface {
	Locate(ctx context.Context, address string) (*types.LatLng, error)
}

// maxCommitAttempts bounds the version-conflict retry loop before the caller
// sees a ConflictError.
const maxCommitAttempts = 3

// Aggregator decides whether a new report extends an existing open incident or
// starts a new one, and recomputes the incident's derived fields.
//
// Two serialization layers guard against lost updates: a per-disaster-type
// mutex serializes in-process arrivals (matching incidents always share a
// type, while unrelated types proceed independently), and the store's version
// check catches writers from other processes.
type Aggregator struct {
	store        db.Store
	geocoder     Geocoder // may be nil
	radiusMeters float64
	freshness    time.Duration

	typeLocks map[types.DisasterType]*sync.Mutex

	now func() time.Time
}

func NewAggregator(store db.Store, geocoder Geocoder, radiusMeters float64, freshness time.Duration) *Aggregator {
	locks := make(map[types.DisasterType]*sync.Mutex, len(types.DisasterTypes))
	for _, dt := range types.DisasterTypes {
		locks[dt] = &sync.Mutex{}
	}
	return &Aggregator{
		store:        store,
		geocoder:     geocoder,
		radiusMeters: radiusMeters,
		freshness:    freshness,
		typeLocks:    locks,
		now:          time.Now,
	}
}

// Record ingests one validated report: assigns its id and submission time,
// geocodes it when possible, and attaches it to a matching open incident or
// creates a new one. It returns the incident as committed.
func (a *Aggregator) Record(ctx context.Context, report types.RawReport) (types.Incident, error) {
	report.ID = uuid.NewString()
	report.SubmittedAt = a.now().UTC()

	if report.Coordinates == nil && a.geocoder != nil {
		coords, err := a.geocoder.Locate(ctx, report.Location)
		if err != nil {
			// best effort only; the report stays coordinate-less
			log.Printf("Failed to geocode %q: %v", report.Location, err)
		} else {
			report.Coordinates = coords
		}
	}

	lock := a.typeLocks[report.DisasterType]
	if lock == nil {
		return types.Incident{}, errs.Validation("disasterType", "unknown disaster type")
	}
	lock.Lock()
	defer lock.Unlock()

	var lastMatchID string
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		cutoff := report.SubmittedAt.Add(-a.freshness)
		open, err := a.store.ListOpenIncidentsByType(ctx, report.DisasterType, cutoff)
		if err != nil {
			return types.Incident{}, fmt.Errorf("listing open incidents: %w", err)
		}

		match, found := pickMatch(open, report, a.radiusMeters)
		if !found {
			inc := newIncident(report)
			if err := a.store.CreateIncident(ctx, inc, report); err != nil {
				return types.Incident{}, fmt.Errorf("creating incident: %w", err)
			}
			return inc, nil
		}

		lastMatchID = match.ID
		updated := mergeReport(match, report)
		err = a.store.AppendReport(ctx, updated, report)
		if err == nil {
			updated.Version++
			return updated, nil
		}

		var conflict *errs.ConflictError
		if errors.As(err, &conflict) {
			log.Printf("Version conflict on incident %s (attempt %d), re-reading", match.ID, attempt+1)
			continue
		}
		return types.Incident{}, fmt.Errorf("appending report to incident %s: %w", match.ID, err)
	}

	return types.Incident{}, &errs.ConflictError{IncidentID: lastMatchID}
}

// pickMatch returns the matching open incident, preferring the most recently
// updated one. Ties break on the larger id so concurrent arrivals stay
// deterministic.
func pickMatch(open []types.Incident, report types.RawReport, radiusMeters float64) (types.Incident, bool) {
	var best types.Incident
	found := false

	for _, inc := range open {
		if !matches(inc, report, radiusMeters) {
			continue
		}
		if !found ||
			inc.LastSeenAt.After(best.LastSeenAt) ||
			(inc.LastSeenAt.Equal(best.LastSeenAt) && inc.ID > best.ID) {
			best = inc
			found = true
		}
	}
	return best, found
}

func newIncident(report types.RawReport) types.Incident {
	inc := types.Incident{
		ID:           uuid.NewString(),
		DisasterType: report.DisasterType,
		Location:     report.Location,
		Severity:     report.Severity,
		ReportCount:  1,
		Description:  report.Description,
		Status:       types.Pending,
		FirstSeenAt:  report.SubmittedAt,
		LastSeenAt:   report.SubmittedAt,
	}
	if report.Coordinates != nil {
		coords := *report.Coordinates
		inc.Coordinates = &coords
		inc.LocatedCount = 1
	}
	return inc
}

// mergeReport folds one report into the incident's derived fields: the report
// count rises by one, severity escalates to the member maximum, lastSeenAt
// advances, and the centroid incorporates the new point.
func mergeReport(inc types.Incident, report types.RawReport) types.Incident {
	inc.ReportCount++
	inc.Severity = types.MaxSeverity(inc.Severity, report.Severity)
	if report.SubmittedAt.After(inc.LastSeenAt) {
		inc.LastSeenAt = report.SubmittedAt
	}
	if inc.Description == "" {
		inc.Description = report.Description
	}

	if report.Coordinates != nil {
		if inc.Coordinates == nil {
			coords := *report.Coordinates
			inc.Coordinates = &coords
			inc.LocatedCount = 1
		} else {
			n := float64(inc.LocatedCount)
			inc.Coordinates = &types.LatLng{
				Lat: (inc.Coordinates.Lat*n + report.Coordinates.Lat) / (n + 1),
				Lng: (inc.Coordinates.Lng*n + report.Coordinates.Lng) / (n + 1),
			}
			inc.LocatedCount++
		}
	}
	return inc
}
