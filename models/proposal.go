package models

import (
	"time"
)

// ProposalStatus is the lifecycle position of a proposal.
type ProposalStatus string

const (
	StatusDraft            ProposalStatus = "draft"
	StatusSubmitted        ProposalStatus = "submitted"
	StatusAdminVerified    ProposalStatus = "admin_verified"
	StatusScrutinyVerified ProposalStatus = "scrutiny_verified"
	StatusUnderReview      ProposalStatus = "under_review"
	StatusRevisionRequired ProposalStatus = "revision_required"
	StatusApproved         ProposalStatus = "approved"
	StatusRejected         ProposalStatus = "rejected"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []ProposalStatus{
	StatusDraft,
	StatusSubmitted,
	StatusAdminVerified,
	StatusScrutinyVerified,
	StatusUnderReview,
	StatusRevisionRequired,
	StatusApproved,
	StatusRejected,
}

// Valid reports whether s is one of the eight known statuses.
func (s ProposalStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is accepted from s.
func (s ProposalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Editable reports whether the researcher may change content while in s.
func (s ProposalStatus) Editable() bool {
	return s == StatusDraft || s == StatusRevisionRequired
}

// Decision values recorded on comments.
const (
	DecisionApproved         = "approved"
	DecisionRevisionRequired = "revision_required"
	DecisionRejected         = "rejected"
)

// Proposal is a research-ethics submission. Everything lives on one row; the
// sections and trails are stored as JSON columns.
type Proposal struct {
	ID           string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ResearcherID string         `gorm:"column:researcher_id;type:varchar(36);index;not null" json:"researcher"`
	Status       ProposalStatus `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	Version      int64          `gorm:"column:version;not null" json:"version"`

	// AssignedTo is the authoritative set of identities expected to act next.
	AssignedTo []string `gorm:"column:assigned_to;type:json;serializer:json" json:"assigned_to"`
	// Reviewers is the historical record of reviewer hand-offs. It is only
	// written together with AssignedTo and never cleared.
	Reviewers []string `gorm:"column:reviewers;type:json;serializer:json" json:"reviewers"`

	Content ProposalContent `gorm:"column:content;type:json;serializer:json" json:"content"`

	Documents []DocumentRef `gorm:"column:documents;type:json;serializer:json" json:"documents"`
	Comments  []Comment     `gorm:"column:comments;type:json;serializer:json" json:"comments"`
	Responses []Response    `gorm:"column:responses;type:json;serializer:json" json:"responses"`

	Verification *Verification `gorm:"column:verification;type:json;serializer:json" json:"verification,omitempty"`
	SubmittedAt  *time.Time    `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt    time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table for Proposal.
func (Proposal) TableName() string {
	return "proposals"
}

// Comment is an immutable reviewer or scrutiny decision entry.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Decision  string    `json:"decision"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is a researcher rebuttal attached at resubmission.
type Response struct {
	ID           string    `json:"id"`
	ResearcherID string    `json:"researcher"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// Verification records the admin check of the current submission round.
type Verification struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// IsAssigned reports whether userID is in the current assignment set.
func (p *Proposal) IsAssigned(userID string) bool {
	return containsID(p.AssignedTo, userID)
}

// IsReviewer reports whether userID was ever handed the proposal as a reviewer.
func (p *Proposal) IsReviewer(userID string) bool {
	return containsID(p.Reviewers, userID)
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	out := *p
	out.AssignedTo = append([]string(nil), p.AssignedTo...)
	out.Reviewers = append([]string(nil), p.Reviewers...)
	out.Documents = append([]DocumentRef(nil), p.Documents...)
	out.Comments = append([]Comment(nil), p.Comments...)
	out.Responses = append([]Response(nil), p.Responses...)
	out.Content = p.Content.Clone()
	if p.Verification != nil {
		v := *p.Verification
		out.Verification = &v
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		out.SubmittedAt = &t
	}
	return &out
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
