// Package query serves read-only incident views for the public feed and the
// partner dashboard.
package query

import (
	"context"
	"sort"

	"geolert/db"
	"geolert/types"
)

type Service struct {
	store db.Store
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// Feed returns every incident, newest activity first. It never returns nil,
// so an empty collection serializes as [] rather than null.
func (s *Service) Feed(ctx context.Context) ([]types.Incident, error) {
	incidents, err := s.store.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(incidents, func(i, j int) bool {
		if !incidents[i].LastSeenAt.Equal(incidents[j].LastSeenAt) {
			return incidents[i].LastSeenAt.After(incidents[j].LastSeenAt)
		}
		return incidents[i].ID < incidents[j].ID
	})

	if incidents == nil {
		incidents = []types.Incident{}
	}
	return incidents, nil
}

// Stats counts incidents by triage status for the partner dashboard.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	incidents, err := s.store.ListIncidents(ctx)
	if err != nil {
		return types.Stats{}, err
	}

	var stats types.Stats
	for _, inc := range incidents {
		stats.Total++
		switch inc.Status {
		case types.Pending:
			stats.Pending++
		case types.InProgress:
			stats.InProgress++
		case types.Resolved:
			stats.Resolved++
		}
	}
	return stats, nil
}
