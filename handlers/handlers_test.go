package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolert/aggregation"
	"geolert/auth"
	"geolert/config"
	"geolert/db"
	"geolert/query"
	"geolert/routes"
	"geolert/triage"
)

type incidentJSON struct {
	ID           string   `json:"id"`
	DisasterType string   `json:"disasterType"`
	Type         string   `json:"type"`
	Location     string   `json:"location"`
	Severity     string   `json:"severity"`
	Status       string   `json:"status"`
	Reports      int      `json:"reports"`
	Timestamp    string   `json:"timestamp"`
	Description  string   `json:"description"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

func newTestServer(t *testing.T) (*gin.Engine, *db.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ClientURL:         "http://localhost:3000",
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		MatchRadiusMeters: 500,
		FreshnessWindow:   24 * time.Hour,
	}

	store := db.NewMemoryStore()
	agg := aggregation.NewAggregator(store, nil, cfg.MatchRadiusMeters, cfg.FreshnessWindow)
	querySvc := query.NewService(store)
	tracker := triage.NewTracker(store)
	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	require.NoError(t, auth.SeedPartner(context.Background(), store, "ops@example.org", "hunter2"))

	return routes.SetupRouter(cfg, agg, querySvc, tracker, authSvc), store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/partners/login",
		`{"email":"ops@example.org","password":"hunter2"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSubmitReportCreated(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"fire","location":"Westlands","severity":"medium","lat":-1.26,"lng":36.80,"description":"Smoke near the mall"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var inc incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inc))
	assert.NotEmpty(t, inc.ID)
	assert.Equal(t, "fire", inc.DisasterType)
	assert.Equal(t, "fire", inc.Type)
	assert.Equal(t, "pending", inc.Status)
	assert.Equal(t, 1, inc.Reports)
	assert.Equal(t, "Smoke near the mall", inc.Description)
	require.NotNil(t, inc.Lat)
	assert.InDelta(t, -1.26, *inc.Lat, 1e-9)

	_, err := time.Parse(time.RFC3339, inc.Timestamp)
	assert.NoError(t, err)
}

func TestSubmitReportValidationPersistsNothing(t *testing.T) {
	r, store := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"earthquake","location":"Westlands","severity":"medium"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "disasterType")

	w = doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"fire","location":"","severity":"medium"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "location")

	w = doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"fire","location":"Westlands","severity":"apocalyptic"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "severity")

	all, err := store.ListIncidents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListReportsEmptyArray(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/disasters/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

// Two fire reports a block apart within the freshness window become one
// incident with two reports and the higher severity.
func TestSubmitReportAggregatesNearby(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"fire","location":"Westlands","severity":"medium","lat":-1.26,"lng":36.80}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"fire","location":"Westlands","severity":"critical","lat":-1.261,"lng":36.801}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var second incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, 2, second.Reports)
	assert.Equal(t, "critical", second.Severity)

	w = doJSON(t, r, http.MethodGet, "/disasters/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed []incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, 2, feed[0].Reports)
	assert.Equal(t, "critical", feed[0].Severity)
}

func TestPartnerRoutesRequireToken(t *testing.T) {
	r, _ := newTestServer(t)

	for _, path := range []string{"/partners/incidents", "/partners/stats"} {
		w := doJSON(t, r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := doJSON(t, r, http.MethodPatch, "/partners/incidents/some-id/status", `{"status":"resolved"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/partners/incidents", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// A valid token sent without the Bearer scheme must not be accepted.
func TestPartnerRoutesRejectSchemelessAuthorization(t *testing.T) {
	r, _ := newTestServer(t)
	token := loginToken(t, r)

	req := httptest.NewRequest(http.MethodGet, "/partners/incidents", nil)
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Bearer")
}

func TestPartnerLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/partners/login",
		`{"email":"ops@example.org","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/partners/login", `{"email":"","password":""}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartnerDashboardFlow(t *testing.T) {
	r, _ := newTestServer(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"flood","location":"Karen","severity":"high","lat":-1.32,"lng":36.70}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// incidents list
	w = doJSON(t, r, http.MethodGet, "/partners/incidents", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var incidents []incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &incidents))
	require.Len(t, incidents, 1)
	assert.Equal(t, "pending", incidents[0].Status)

	// direct pending -> resolved
	w = doJSON(t, r, http.MethodPatch, "/partners/incidents/"+created.ID+"/status",
		`{"status":"resolved"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "resolved", updated.Status)

	// reflected in subsequent reads, public feed included
	w = doJSON(t, r, http.MethodGet, "/disasters/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed []incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "resolved", feed[0].Status)

	// stats
	w = doJSON(t, r, http.MethodGet, "/partners/stats", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total      int `json:"total"`
		Pending    int `json:"pending"`
		InProgress int `json:"inProgress"`
		Resolved   int `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Resolved)
}

func TestUpdateStatusErrors(t *testing.T) {
	r, _ := newTestServer(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPatch, "/partners/incidents/missing/status",
		`{"status":"resolved"}`, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/disasters/report",
		`{"disasterType":"drought","location":"Kitui","severity":"high"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created incidentJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPatch, "/partners/incidents/"+created.ID+"/status",
		`{"status":"escalated"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "status")
}

// With no API key configured the assistant degrades to the static apology
// instead of failing.
func TestChatFallsBackWithoutUpstream(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"message":"Is the flood in Karen over?"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "assistant is unavailable")

	w = doJSON(t, r, http.MethodPost, "/api/chat", `{"message":""}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/disasters/report", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
