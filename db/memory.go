package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"geolert/errs"
	"geolert/types"
)

// MemoryStore keeps everything in process memory. It backs tests and local
// runs without Firebase credentials, and honors the same version-check
// contract as the Firestore store.
type MemoryStore struct {
	mu        sync.RWMutex
	incidents map[string]*types.Incident
	reports   map[string][]types.RawReport // incident id -> member reports
	partners  map[string]types.Partner     // lowercased email -> partner
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		incidents: make(map[string]*types.Incident),
		reports:   make(map[string][]types.RawReport),
		partners:  make(map[string]types.Partner),
	}
}

func (s *MemoryStore) GetIncident(ctx context.Context, id string) (types.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[id]
	if !ok {
		return types.Incident{}, errs.NotFound("incident", id)
	}
	return *inc, nil
}

func (s *MemoryStore) ListIncidents(ctx context.Context) ([]types.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []types.Incident
	for _, inc := range s.incidents {
		all = append(all, *inc)
	}
	return all, nil
}

func (s *MemoryStore) ListOpenIncidentsByType(ctx context.Context, dt types.DisasterType, since time.Time) ([]types.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []types.Incident
	for _, inc := range s.incidents {
		if inc.DisasterType != dt || inc.Status == types.Resolved {
			continue
		}
		if inc.LastSeenAt.Before(since) {
			continue
		}
		open = append(open, *inc)
	}
	// stable order keeps the tie-break deterministic
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (s *MemoryStore) CreateIncident(ctx context.Context, inc types.Incident, first types.RawReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := inc
	s.incidents[inc.ID] = &stored
	s.reports[inc.ID] = append(s.reports[inc.ID], first)
	return nil
}

func (s *MemoryStore) AppendReport(ctx context.Context, inc types.Incident, report types.RawReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.incidents[inc.ID]
	if !ok {
		return errs.NotFound("incident", inc.ID)
	}
	if current.Version != inc.Version {
		return &errs.ConflictError{IncidentID: inc.ID}
	}

	committed := inc
	committed.Version = inc.Version + 1
	s.incidents[inc.ID] = &committed
	s.reports[inc.ID] = append(s.reports[inc.ID], report)
	return nil
}

func (s *MemoryStore) UpdateIncidentStatus(ctx context.Context, id string, newStatus types.Status) (types.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return types.Incident{}, errs.NotFound("incident", id)
	}
	if inc.Status != newStatus {
		inc.Status = newStatus
		// the bump makes any in-flight aggregate commit re-read instead of
		// silently reverting the transition
		inc.Version++
	}
	return *inc, nil
}

func (s *MemoryStore) ListIncidentReports(ctx context.Context, incidentID string) ([]types.RawReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.reports[incidentID]
	out := make([]types.RawReport, len(members))
	copy(out, members)
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *MemoryStore) ListUnlocatedIncidents(ctx context.Context) ([]types.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var unlocated []types.Incident
	for _, inc := range s.incidents {
		if inc.Coordinates == nil {
			unlocated = append(unlocated, *inc)
		}
	}
	return unlocated, nil
}

func (s *MemoryStore) SetIncidentCoordinates(ctx context.Context, id string, c types.LatLng) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return errs.NotFound("incident", id)
	}
	coords := c
	inc.Coordinates = &coords
	inc.Version++
	return nil
}

func (s *MemoryStore) GetPartnerByEmail(ctx context.Context, email string) (types.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partners[strings.ToLower(email)]
	if !ok {
		return types.Partner{}, errs.NotFound("partner", email)
	}
	return p, nil
}

func (s *MemoryStore) CreatePartner(ctx context.Context, p types.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = HashString(strings.ToLower(p.Email))
	}
	s.partners[strings.ToLower(p.Email)] = p
	return nil
}
