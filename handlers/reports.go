package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"geolert/aggregation"
	"geolert/errs"
	"geolert/query"
	"geolert/types"
)

// ReportRequest is the citizen submission payload.
type ReportRequest struct {
	DisasterType string   `json:"disasterType"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	Severity     string   `json:"severity"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// toReport validates the payload and converts it into a RawReport. Violations
// fail with a ValidationError naming the offending field; nothing is accepted
// partially.
func (r ReportRequest) toReport() (types.RawReport, error) {
	dt := types.DisasterType(r.DisasterType)
	if !dt.IsValid() {
		return types.RawReport{}, errs.Validation("disasterType", "must be one of power-outage, fire, flood, drought")
	}

	sev := types.Severity(r.Severity)
	if !sev.IsValid() {
		return types.RawReport{}, errs.Validation("severity", "must be one of low, medium, high, critical")
	}

	if strings.TrimSpace(r.Location) == "" {
		return types.RawReport{}, errs.Validation("location", "must not be empty")
	}

	report := types.RawReport{
		DisasterType: dt,
		Location:     strings.TrimSpace(r.Location),
		Severity:     sev,
		Description:  strings.TrimSpace(r.Description),
	}

	if r.Lat != nil || r.Lng != nil {
		if r.Lat == nil || r.Lng == nil {
			return types.RawReport{}, errs.Validation("lat", "lat and lng must be supplied together")
		}
		if *r.Lat < -90 || *r.Lat > 90 {
			return types.RawReport{}, errs.Validation("lat", "must be between -90 and 90")
		}
		if *r.Lng < -180 || *r.Lng > 180 {
			return types.RawReport{}, errs.Validation("lng", "must be between -180 and 180")
		}
		report.Coordinates = &types.LatLng{Lat: *r.Lat, Lng: *r.Lng}
	}

	return report, nil
}

// IncidentView is the incident shape the frontend consumes. Type mirrors
// DisasterType because the map and dashboard read either field.
type IncidentView struct {
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

func toView(inc types.Incident) IncidentView {
	view := IncidentView{
		ID:           inc.ID,
		DisasterType: string(inc.DisasterType),
		Type:         string(inc.DisasterType),
		Location:     inc.Location,
		Severity:     string(inc.Severity),
		Status:       string(inc.Status),
		Reports:      inc.ReportCount,
		Timestamp:    inc.LastSeenAt.UTC().Format(time.RFC3339),
		Description:  inc.Description,
	}
	if inc.Coordinates != nil {
		lat, lng := inc.Coordinates.Lat, inc.Coordinates.Lng
		view.Lat = &lat
		view.Lng = &lng
	}
	return view
}

func toViews(incidents []types.Incident) []IncidentView {
	views := make([]IncidentView, 0, len(incidents))
	for _, inc := range incidents {
		views = append(views, toView(inc))
	}
	return views
}

// writeError maps the error taxonomy onto HTTP statuses with plain-text
// bodies, which is what the frontend renders.
func writeError(c *gin.Context, err error) {
	var validation *errs.ValidationError
	var notFound *errs.NotFoundError
	var conflict *errs.ConflictError
	var authErr *errs.AuthError

	switch {
	case errors.As(err, &validation):
		c.String(http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		c.String(http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		c.String(http.StatusConflict, conflict.Error())
	case errors.As(err, &authErr):
		c.String(http.StatusUnauthorized, authErr.Error())
	default:
		c.String(http.StatusInternalServerError, "internal server error")
	}
}

// SubmitReport handles POST /disasters/report: validate, ingest, aggregate,
// and return the resulting incident.
func SubmitReport(c *gin.Context, agg *aggregation.Aggregator) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := req.toReport()
	if err != nil {
		writeError(c, err)
		return
	}

	incident, err := agg.Record(c.Request.Context(), report)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toView(incident))
}

// ListReports handles GET /disasters/reports: the public incident feed,
// newest activity first.
func ListReports(c *gin.Context, svc *query.Service) {
	incidents, err := svc.Feed(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViews(incidents))
}
