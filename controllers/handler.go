package controllers

import (
	"errors"
	"log"
	"net/http"

	"ethics-review-api/middleware"
	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
)

// Handler serves the proposal workflow over HTTP.
type Handler struct {
	workflow  *services.WorkflowService
	dashboard *services.DashboardService
	directory services.Directory
}

func NewHandler(
	workflow *services.WorkflowService,
	dashboard *services.DashboardService,
	directory services.Directory,
) *Handler {
	return &Handler{
		workflow:  workflow,
		dashboard: dashboard,
		directory: directory,
	}
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindInvalidState, services.KindConflict:
		return http.StatusConflict
	case services.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError maps workflow errors to their status; anything else is logged
// and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var wfErr *services.WorkflowError
	if errors.As(err, &wfErr) {
		c.JSON(statusForKind(wfErr.Kind), gin.H{
			"success": false,
			"kind":    wfErr.Kind,
			"error":   wfErr.Error(),
		})
		return
	}
	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "operation failed",
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"kind":    services.KindValidation,
		"error":   message,
	})
}

func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "authentication context missing",
		})
		return services.Actor{}, false
	}
	return actor, true
}
