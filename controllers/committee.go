package controllers

import (
	"net/http"

	"ethics-review-api/models"

	"github.com/gin-gonic/gin"
)

type AssignReviewersRequest struct {
	ReviewerIDs []string `json:"reviewer_ids" binding:"required,min=1"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

// VerifyProposal records the admin check and hands off to scrutiny.
func (h *Handler) VerifyProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	proposal, err := h.workflow.Verify(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response := proposalResponse(proposal, actor)
	if len(proposal.AssignedTo) == 0 {
		response["message"] = "No scrutiny members are available; the proposal is held until reassigned"
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) AssignReviewers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req AssignReviewersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reviewer_ids must list at least one reviewer")
		return
	}

	proposal, err := h.workflow.AssignReviewers(c.Request.Context(), c.Param("id"), actor, req.ReviewerIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}

// ReassignProposal re-resolves committee membership for a held proposal.
func (h *Handler) ReassignProposal(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	proposal, err := h.workflow.Reassign(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}

func (h *Handler) GetAwaitingAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	proposals, err := h.dashboard.AwaitingAssignment(c.Request.Context(), actor)
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

// ListMembers lists committee members; ?role= defaults to reviewer.
func (h *Handler) ListMembers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	role := models.Role(c.DefaultQuery("role", string(models.RoleReviewer)))
	members, err := h.dashboard.ListMembers(c.Request.Context(), actor, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"role":    role,
		"members": members,
	})
}

// ScrutinyDecision applies approve/reject from an assigned scrutiny member.
func (h *Handler) ScrutinyDecision(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	proposal, err := h.workflow.Scrutinize(c.Request.Context(), c.Param("id"), actor, req.Decision, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	response := proposalResponse(proposal, actor)
	if proposal.Status == models.StatusScrutinyVerified {
		response["message"] = "No reviewers are available; the proposal is held until reassigned"
	}
	c.JSON(http.StatusOK, response)
}

// ReviewDecision records an assigned reviewer's decision.
func (h *Handler) ReviewDecision(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	proposal, err := h.workflow.Review(c.Request.Context(), c.Param("id"), actor, req.Decision, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponse(proposal, actor))
}
