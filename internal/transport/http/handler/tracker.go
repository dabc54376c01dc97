package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecotrace/internal/app"
	"ecotrace/internal/cache"
	"ecotrace/internal/transport/http/middleware"
)

type TrackerHandler struct {
	trackerService *app.TrackerService
	communityStats *cache.CommunityStatsStore
}

// UpdateTrackerRequest is the /update-tracker/ payload. The impact fields are
// optional and default to 0; negative values are rejected before binding
// reaches the service.
type UpdateTrackerRequest struct {
	Action     string `json:"action" binding:"required"`
	DeviceName string `json:"device_name" binding:"required,max=255"`
	DeviceCO2  int64  `json:"device_co2" binding:"gte=0"`
	DeviceKWh  int64  `json:"device_kwh" binding:"gte=0"`
}

func NewTrackerHandler(trackerService *app.TrackerService, communityStats *cache.CommunityStatsStore) *TrackerHandler {
	return &TrackerHandler{
		trackerService: trackerService,
		communityStats: communityStats,
	}
}

// Summary returns the caller's totals and device history, or a zero summary
// when the request carries no valid token.
func (h *TrackerHandler) Summary(c *gin.Context) {
	userID, _ := getUserIDFromContext(c)

	summary, err := h.trackerService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch tracker failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Update records one confirmed disposal/reuse action.
func (h *TrackerHandler) Update(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req UpdateTrackerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON data"})
		return
	}

	total, err := h.trackerService.RecordDisposal(c.Request.Context(), userID, app.RecordDisposalInput{
		Action:     req.Action,
		DeviceName: req.DeviceName,
		DeviceCO2:  req.DeviceCO2,
		DeviceKWh:  req.DeviceKWh,
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "update tracker failed"
		switch {
		case errors.Is(err, app.ErrUnauthenticated):
			status = http.StatusUnauthorized
			message = err.Error()
		case errors.Is(err, app.ErrInvalidAction):
			status = http.StatusBadRequest
			message = "Invalid action"
		case errors.Is(err, app.ErrSentinelRejected):
			status = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, app.ErrInvalidInput):
			status = http.StatusBadRequest
			message = err.Error()
		}
		c.JSON(status, gin.H{"success": false, "error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"total_devices": total,
		"message":       "Tracker updated successfully",
	})
}

// CommunityStats exposes the site-wide counters maintained by the stats
// worker.
func (h *TrackerHandler) CommunityStats(c *gin.Context) {
	stats, err := h.communityStats.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch community stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
