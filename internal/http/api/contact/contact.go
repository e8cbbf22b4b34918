// Package contact wires the lead form HTTP routes.
package contact

import (
	"net/http"
	"strings"

	internalcontact "github.com/folio-studio/contactgate/internal/contact"
	"github.com/folio-studio/contactgate/internal/http/api/contact/handlers"
	"github.com/gin-gonic/gin"
)

// RegisterContactRoutes registers the form and health routes on r. outcomes
// may be nil when the stats backend keeps its counters elsewhere.
func RegisterContactRoutes(r *gin.Engine, gate *internalcontact.Gatekeeper, limiter handlers.TrackedCounter, outcomes handlers.OutcomeSnapshotter) {
	if r == nil || gate == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(limiter, outcomes)
	r.GET("/healthz", healthHandler.Healthz)

	contactHandler := handlers.NewContactHandler(gate)
	api := r.Group("/api/contact")
	api.POST("", contactHandler.Submit)
	api.POST("/validate", contactHandler.Validate)
	api.GET("/schema", contactHandler.Schema)
}

// CORSMiddleware allows browser calls from the configured site origins.
// An empty list, or the single entry "*", allows any origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := len(origins) == 0
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			wildcard = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, ok := allowed[origin]
			switch {
			case wildcard:
				c.Header("Access-Control-Allow-Origin", "*")
			case ok:
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Accept-Language")
			c.Header("Access-Control-Expose-Headers", "Retry-After")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
