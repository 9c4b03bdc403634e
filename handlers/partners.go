package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"geolert/auth"
	"geolert/query"
	"geolert/triage"
	"geolert/types"
)

// PartnerLogin handles POST /partners/login and returns a bearer token on
// success.
func PartnerLogin(c *gin.Context, svc *auth.Service) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// PartnerIncidents handles GET /partners/incidents: the same feed the public
// sees, behind auth so the dashboard and feed can never diverge.
func PartnerIncidents(c *gin.Context, svc *query.Service) {
	incidents, err := svc.Feed(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViews(incidents))
}

// PartnerStats handles GET /partners/stats with counts by triage status.
func PartnerStats(c *gin.Context, svc *query.Service) {
	stats, err := svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateIncidentStatus handles PATCH /partners/incidents/:id/status.
func UpdateIncidentStatus(c *gin.Context, tracker *triage.Tracker) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid JSON body")
		return
	}

	incident, err := tracker.SetStatus(c.Request.Context(), c.Param("id"), types.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toView(incident))
}
