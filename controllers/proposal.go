package controllers

import (
	"net/http"

	"ethics-review-api/models"
	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
)

type ResubmitRequest struct {
	Response string `json:"response"`
}

func proposalResponse(p *models.Proposal, actor services.Actor) gin.H {
	return gin.H{
		"success":           true,
		"proposal":          p,
		"available_actions": services.AvailableActions(p, actor.Role, actor.ID),
	}
}

// CreateProposal starts a draft owned by the caller.
func (h *Handler) CreateProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var content models.ProposalContent
	if err := c.ShouldBindJSON(&content); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	proposal, err := h.workflow.CreateDraft(c.Request.Context(), actor, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposalResponse(proposal, actor))
}

// GetProposal returns one proposal with the actions open to the caller.
func (h *Handler) GetProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	proposal, err := h.workflow.GetProposal(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}

// UpdateProposal patches content sections while the proposal is editable.
func (h *Handler) UpdateProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var patch models.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	proposal, err := h.workflow.UpdateContent(c.Request.Context(), c.Param("id"), actor, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}

func (h *Handler) SubmitProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	proposal, err := h.workflow.Submit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}

// ResubmitProposal sends a revised proposal back with an optional response.
func (h *Handler) ResubmitProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ResubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	proposal, err := h.workflow.Resubmit(c.Request.Context(), c.Param("id"), actor, req.Response)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}
