// Package triage handles partner-driven incident status updates.
package triage

import (
	"context"

	"geolert/db"
	"geolert/errs"
	"geolert/types"
)

// Tracker applies status transitions to incidents. Any move among pending,
// in-progress and resolved is allowed, including reopening a resolved
// incident; setting the current status again is a no-op.
type Tracker struct {
	store db.Store
}

func NewTracker(store db.Store) *Tracker {
	return &Tracker{store: store}
}

// SetStatus moves the incident to target and returns the updated incident.
// Unknown status values fail with ValidationError, unknown ids with
// NotFoundError; neither leaves any side effect.
func (t *Tracker) SetStatus(ctx context.Context, incidentID string, target types.Status) (types.Incident, error) {
	if !target.IsValid() {
		return types.Incident{}, errs.Validation("status", "must be one of pending, in-progress, resolved")
	}
	return t.store.UpdateIncidentStatus(ctx, incidentID, target)
}
