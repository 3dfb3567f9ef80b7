package controllers

import (
	"net/http"
	"strconv"

	"ethics-review-api/services"
	"ethics-review-api/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the caller's role-scoped counts and lists.
// ?status= takes a comma separated filter for the recent list.
func (h *Handler) GetDashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	statuses, err := utils.ParseStatusFilter(c.Query("status"))
	if err != nil {
		badRequest(c, "Invalid status filter")
		return
	}

	query := services.DashboardQuery{Statuses: statuses}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 100 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		query.Limit = limit
	}

	dashboard, err := h.dashboard.GetDashboard(c.Request.Context(), actor, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   dashboard,
	})
}

// ListApprovedProposals lists approved proposals for any signed-in user.
func (h *Handler) ListApprovedProposals(c *gin.Context) {
	proposals, err := h.dashboard.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"proposals": proposals,
		"total":     len(proposals),
	})
}
