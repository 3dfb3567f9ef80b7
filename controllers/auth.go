package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProfile returns current user profile
func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	identity, err := h.directory.Lookup(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    identity,
	})
}
