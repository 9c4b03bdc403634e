package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geolert/aggregation"
	"geolert/auth"
	"geolert/config"
	"geolert/handlers"
	"geolert/query"
	"geolert/triage"
)

// corsMiddleware lets the frontend call the API from its own origin. With no
// CLIENT_URL configured any origin is accepted.
func corsMiddleware(clientURL string) gin.HandlerFunc {
	origin := clientURL
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, agg *aggregation.Aggregator, querySvc *query.Service, tracker *triage.Tracker, authSvc *auth.Service) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(cfg.ClientURL))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, welcome to GeoLert!",
		})
	})

	// public citizen routes
	disasters := r.Group("/disasters")
	{
		disasters.POST("/report", func(c *gin.Context) {
			handlers.SubmitReport(c, agg)
		})
		disasters.GET("/reports", func(c *gin.Context) {
			handlers.ListReports(c, querySvc)
		})
	}

	// partner routes; everything past login needs a bearer token
	partners := r.Group("/partners")
	{
		partners.POST("/login", func(c *gin.Context) {
			handlers.PartnerLogin(c, authSvc)
		})

		protected := partners.Group("")
		protected.Use(auth.RequirePartner(authSvc))
		{
			protected.GET("/incidents", func(c *gin.Context) {
				handlers.PartnerIncidents(c, querySvc)
			})
			protected.GET("/stats", func(c *gin.Context) {
				handlers.PartnerStats(c, querySvc)
			})
			protected.PATCH("/incidents/:id/status", func(c *gin.Context) {
				handlers.UpdateIncidentStatus(c, tracker)
			})
		}
	}

	// chat assistant proxy
	api := r.Group("/api")
	{
		api.POST("/chat", func(c *gin.Context) {
			handlers.Chat(c, cfg.OpenAIAPIKey, cfg.ChatModel)
		})
	}

	return r
}
