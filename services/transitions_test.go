package services

import (
	"testing"

	"ethics-review-api/models"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransitionTable(t *testing.T) {
	owned := func(status models.ProposalStatus) *models.Proposal {
		return &models.Proposal{
			ID:           "p-1",
			ResearcherID: "r-1",
			Status:       status,
			AssignedTo:   []string{"s-1"},
			Content:      models.ProposalContent{Title: "T"},
		}
	}

	cases := []struct {
		name     string
		proposal *models.Proposal
		role     models.Role
		caller   string
		action   Action
		want     error
	}{
		{"owner saves draft", owned(models.StatusDraft), models.RoleResearcher, "r-1", ActionSave, nil},
		{"owner saves revision", owned(models.StatusRevisionRequired), models.RoleResearcher, "r-1", ActionSave, nil},
		{"save while submitted", owned(models.StatusSubmitted), models.RoleResearcher, "r-1", ActionSave, ErrInvalidState},
		{"stranger saves", owned(models.StatusDraft), models.RoleResearcher, "r-2", ActionSave, ErrForbidden},
		{"admin verifies draft", owned(models.StatusDraft), models.RoleAdmin, "a-1", ActionVerify, ErrInvalidState},
		{"admin verifies", owned(models.StatusSubmitted), models.RoleAdmin, "a-1", ActionVerify, nil},
		{"reviewer verifies", owned(models.StatusSubmitted), models.RoleReviewer, "rv-1", ActionVerify, ErrForbidden},
		{"assigned scrutiny", owned(models.StatusAdminVerified), models.RoleScrutiny, "s-1", ActionScrutinize, nil},
		{"unassigned scrutiny", owned(models.StatusAdminVerified), models.RoleScrutiny, "s-9", ActionScrutinize, ErrForbidden},
		{"assign from scrutiny_verified", owned(models.StatusScrutinyVerified), models.RoleAdmin, "a-1", ActionAssignReviewers, nil},
		{"assign from admin_verified", owned(models.StatusAdminVerified), models.RoleAdmin, "a-1", ActionAssignReviewers, ErrInvalidState},
		{"reassign assigned proposal", owned(models.StatusAdminVerified), models.RoleAdmin, "a-1", ActionReassign, ErrInvalidState},
		{"resubmit draft", owned(models.StatusDraft), models.RoleResearcher, "r-1", ActionResubmit, ErrInvalidState},
		{"terminal beats role", owned(models.StatusApproved), models.RoleScrutiny, "s-1", ActionSave, ErrInvalidState},
		{"unknown action", owned(models.StatusDraft), models.RoleResearcher, "r-1", Action("withdraw"), ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(tc.proposal, tc.role, tc.caller, tc.action)
			if tc.want == nil {
				assert.NoError(t, err)
				assert.True(t, CanTransition(tc.proposal, tc.role, tc.caller, tc.action))
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, CanTransition(tc.proposal, tc.role, tc.caller, tc.action))
		})
	}
}

func TestEditableStatusesDriveResearcherActions(t *testing.T) {
	assert.ElementsMatch(t, []models.ProposalStatus{models.StatusDraft, models.StatusRevisionRequired}, editableStatuses)
	for _, status := range models.AllStatuses {
		p := &models.Proposal{ID: "p-1", ResearcherID: "r-1", Status: status}
		for _, action := range []Action{ActionSave, ActionAttachDocument} {
			assert.Equal(t, status.Editable(), CanTransition(p, models.RoleResearcher, "r-1", action), "%s from %s", action, status)
		}
	}
}

func TestSubmitNeedsTitle(t *testing.T) {
	p := &models.Proposal{ID: "p-1", ResearcherID: "r-1", Status: models.StatusDraft}
	assert.ErrorIs(t, CheckTransition(p, models.RoleResearcher, "r-1", ActionSubmit), ErrValidation)
}

func TestReviewAcceptsHistoricalReviewers(t *testing.T) {
	p := &models.Proposal{
		ID:        "p-1",
		Status:    models.StatusUnderReview,
		Reviewers: []string{"rv-1"},
	}
	assert.NoError(t, CheckTransition(p, models.RoleReviewer, "rv-1", ActionReview))
	assert.ErrorIs(t, CheckTransition(p, models.RoleReviewer, "rv-2", ActionReview), ErrForbidden)
}

func TestAvailableActions(t *testing.T) {
	draft := &models.Proposal{ID: "p-1", ResearcherID: "r-1", Status: models.StatusDraft, Content: models.ProposalContent{Title: "T"}}
	assert.Equal(t, []Action{ActionSave, ActionAttachDocument, ActionSubmit}, AvailableActions(draft, models.RoleResearcher, "r-1"))
	assert.Empty(t, AvailableActions(draft, models.RoleAdmin, "a-1"))

	held := &models.Proposal{ID: "p-2", Status: models.StatusScrutinyVerified}
	assert.Equal(t, []Action{ActionAssignReviewers, ActionReassign}, AvailableActions(held, models.RoleAdmin, "a-1"))

	done := &models.Proposal{ID: "p-3", ResearcherID: "r-1", Status: models.StatusRejected}
	assert.Empty(t, AvailableActions(done, models.RoleResearcher, "r-1"))
}

func TestWorkflowErrorMatchesByKind(t *testing.T) {
	err := invalidState("proposal %s is done", "p-1")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "proposal p-1 is done", err.Error())
}
