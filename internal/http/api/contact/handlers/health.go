package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TrackedCounter reports how many caller identities the limiter holds.
type TrackedCounter interface {
	Len() int
}

// OutcomeSnapshotter reports submission outcome counters.
type OutcomeSnapshotter interface {
	Snapshot() map[string]int64
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	limiter  TrackedCounter
	outcomes OutcomeSnapshotter
}

// NewHealthHandler constructs a HealthHandler. Both arguments may be nil.
func NewHealthHandler(limiter TrackedCounter, outcomes OutcomeSnapshotter) *HealthHandler {
	return &HealthHandler{limiter: limiter, outcomes: outcomes}
}

// Healthz reports process liveness, tracked identities and outcome counters.
func (h *HealthHandler) Healthz(c *gin.Context) {
	out := gin.H{"status": "ok"}
	if h.limiter != nil {
		out["tracked"] = h.limiter.Len()
	}
	if h.outcomes != nil {
		out["outcomes"] = h.outcomes.Snapshot()
	}
	c.JSON(http.StatusOK, out)
}
