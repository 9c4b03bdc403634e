package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolert/db"
	"geolert/errs"
	"geolert/types"
)

func seedIncident(t *testing.T, store *db.MemoryStore, status types.Status) types.Incident {
	t.Helper()
	now := time.Now().UTC()
	inc := types.Incident{
		ID:           "inc-1",
		DisasterType: types.Fire,
		Location:     "Westlands",
		Severity:     types.Medium,
		ReportCount:  1,
		Status:       status,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	require.NoError(t, store.CreateIncident(context.Background(), inc, types.RawReport{
		ID:           "rep-1",
		DisasterType: types.Fire,
		Location:     "Westlands",
		Severity:     types.Medium,
		SubmittedAt:  now,
	}))
	return inc
}

func TestSetStatusTransition(t *testing.T) {
	store := db.NewMemoryStore()
	tracker := NewTracker(store)
	inc := seedIncident(t, store, types.Pending)

	updated, err := tracker.SetStatus(context.Background(), inc.ID, types.InProgress)
	require.NoError(t, err)
	assert.Equal(t, types.InProgress, updated.Status)

	got, err := store.GetIncident(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InProgress, got.Status)
}

// Direct escalation pending to resolved is allowed, as is reopening.
func TestSetStatusDirectResolveAndReopen(t *testing.T) {
	store := db.NewMemoryStore()
	tracker := NewTracker(store)
	inc := seedIncident(t, store, types.Pending)
	ctx := context.Background()

	updated, err := tracker.SetStatus(ctx, inc.ID, types.Resolved)
	require.NoError(t, err)
	assert.Equal(t, types.Resolved, updated.Status)

	updated, err = tracker.SetStatus(ctx, inc.ID, types.InProgress)
	require.NoError(t, err)
	assert.Equal(t, types.InProgress, updated.Status)
}

func TestSetStatusIdempotent(t *testing.T) {
	store := db.NewMemoryStore()
	tracker := NewTracker(store)
	inc := seedIncident(t, store, types.InProgress)

	updated, err := tracker.SetStatus(context.Background(), inc.ID, types.InProgress)
	require.NoError(t, err)
	assert.Equal(t, types.InProgress, updated.Status)
	assert.Equal(t, inc.ReportCount, updated.ReportCount)
}

func TestSetStatusUnknownIncident(t *testing.T) {
	store := db.NewMemoryStore()
	tracker := NewTracker(store)

	_, err := tracker.SetStatus(context.Background(), "missing", types.Resolved)
	var notFound *errs.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// no side effects
	all, listErr := store.ListIncidents(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, all)
}

func TestSetStatusInvalidValue(t *testing.T) {
	store := db.NewMemoryStore()
	tracker := NewTracker(store)
	inc := seedIncident(t, store, types.Pending)

	_, err := tracker.SetStatus(context.Background(), inc.ID, types.Status("escalated"))
	var validation *errs.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "status", validation.Field)

	got, err := store.GetIncident(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Pending, got.Status)
}
