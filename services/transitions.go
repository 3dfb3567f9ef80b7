package services

import (
	"strings"

	"ethics-review-api/models"
)

// Action names a request against a proposal.
type Action string

const (
	ActionSave            Action = "save"
	ActionAttachDocument  Action = "attach_document"
	ActionSubmit          Action = "submit"
	ActionVerify          Action = "verify"
	ActionScrutinize      Action = "scrutinize"
	ActionAssignReviewers Action = "assign_reviewers"
	ActionReassign        Action = "reassign"
	ActionReview          Action = "review"
	ActionResubmit        Action = "resubmit"
)

type actorCheck int

const (
	actorByRole actorCheck = iota
	actorOwner
	actorAssigned
	actorReviewerOrAssigned
)

type transitionRule struct {
	from  []models.ProposalStatus
	role  models.Role
	actor actorCheck
	guard func(p *models.Proposal) error
}

// editableStatuses are the states in which the researcher owns the content.
var editableStatuses = statusesWhere(models.ProposalStatus.Editable)

func statusesWhere(keep func(models.ProposalStatus) bool) []models.ProposalStatus {
	var out []models.ProposalStatus
	for _, status := range models.AllStatuses {
		if keep(status) {
			out = append(out, status)
		}
	}
	return out
}

var transitionTable = map[Action]transitionRule{
	ActionSave: {
		from:  editableStatuses,
		role:  models.RoleResearcher,
		actor: actorOwner,
	},
	ActionAttachDocument: {
		from:  editableStatuses,
		role:  models.RoleResearcher,
		actor: actorOwner,
	},
	ActionSubmit: {
		from:  editableStatuses,
		role:  models.RoleResearcher,
		actor: actorOwner,
		guard: requireTitle,
	},
	ActionResubmit: {
		from:  []models.ProposalStatus{models.StatusRevisionRequired},
		role:  models.RoleResearcher,
		actor: actorOwner,
		guard: requireTitle,
	},
	ActionVerify: {
		from:  []models.ProposalStatus{models.StatusSubmitted},
		role:  models.RoleAdmin,
		actor: actorByRole,
		guard: func(p *models.Proposal) error {
			if p.Verification != nil {
				return invalidState("proposal %s was already verified by %s", p.ID, p.Verification.By)
			}
			return nil
		},
	},
	ActionScrutinize: {
		from:  []models.ProposalStatus{models.StatusAdminVerified},
		role:  models.RoleScrutiny,
		actor: actorAssigned,
	},
	ActionAssignReviewers: {
		from:  []models.ProposalStatus{models.StatusSubmitted, models.StatusScrutinyVerified},
		role:  models.RoleAdmin,
		actor: actorByRole,
	},
	ActionReassign: {
		from:  []models.ProposalStatus{models.StatusAdminVerified, models.StatusScrutinyVerified},
		role:  models.RoleAdmin,
		actor: actorByRole,
		guard: func(p *models.Proposal) error {
			if p.Status == models.StatusAdminVerified && len(p.AssignedTo) > 0 {
				return invalidState("proposal %s is already assigned to scrutiny", p.ID)
			}
			return nil
		},
	},
	ActionReview: {
		from:  []models.ProposalStatus{models.StatusUnderReview},
		role:  models.RoleReviewer,
		actor: actorReviewerOrAssigned,
	},
}

// CheckTransition evaluates the transition table for the caller and reports
// why the action is refused. The status guard is evaluated before anything
// about the caller, so terminal proposals answer InvalidState to everyone.
func CheckTransition(p *models.Proposal, role models.Role, callerID string, action Action) error {
	rule, ok := transitionTable[action]
	if !ok {
		return validationError("unknown action %q", action)
	}
	if p.Status.Terminal() {
		return invalidState("proposal %s is %s and accepts no further actions", p.ID, p.Status)
	}
	if !statusIn(p.Status, rule.from) {
		return invalidState("cannot %s proposal %s while it is %s", action, p.ID, p.Status)
	}
	if role != rule.role {
		return forbidden("role %q may not %s proposals", role, action)
	}

	switch rule.actor {
	case actorOwner:
		if p.ResearcherID != callerID {
			return forbidden("only the owning researcher may %s proposal %s", action, p.ID)
		}
	case actorAssigned:
		if !p.IsAssigned(callerID) {
			return forbidden("you are not assigned to proposal %s", p.ID)
		}
	case actorReviewerOrAssigned:
		if !p.IsReviewer(callerID) && !p.IsAssigned(callerID) {
			return forbidden("you are not assigned to proposal %s", p.ID)
		}
	}

	if rule.guard != nil {
		return rule.guard(p)
	}
	return nil
}

// CanTransition reports whether the caller may perform action on p right now.
func CanTransition(p *models.Proposal, role models.Role, callerID string, action Action) bool {
	return CheckTransition(p, role, callerID, action) == nil
}

// AvailableActions lists the actions the caller could take on p.
func AvailableActions(p *models.Proposal, role models.Role, callerID string) []Action {
	ordered := []Action{
		ActionSave, ActionAttachDocument, ActionSubmit, ActionResubmit, ActionVerify,
		ActionScrutinize, ActionAssignReviewers, ActionReassign, ActionReview,
	}
	actions := make([]Action, 0, 2)
	for _, action := range ordered {
		if CanTransition(p, role, callerID, action) {
			actions = append(actions, action)
		}
	}
	return actions
}

func statusIn(status models.ProposalStatus, allowed []models.ProposalStatus) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func requireTitle(p *models.Proposal) error {
	if strings.TrimSpace(p.Content.Title) == "" {
		return validationError("title is required before submission")
	}
	return nil
}
