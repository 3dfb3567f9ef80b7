package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"ethics-review-api/models"
	"ethics-review-api/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	ID   string
	Role models.Role
}

// Scrutiny committee decisions.
const (
	ScrutinyApprove = "approve"
	ScrutinyReject  = "reject"
)

const defaultScrutinyRejectText = "Rejected by Scrutiny Committee"

// DefaultMaxUploadBytes caps a single document upload.
const DefaultMaxUploadBytes int64 = 50 << 20

// DocumentUpload is an incoming file for AttachDocument.
type DocumentUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// WorkflowService is the only writer of proposal status, assignment and the
// audit trails. Each call is a self-contained unit of work; same-proposal
// races are settled by the store's conditional update.
type WorkflowService struct {
	store          ProposalStore
	directory      Directory
	resolver       *AssignmentResolver
	files          FileStore
	notifier       Notifier
	metrics        *WorkflowMetrics
	validate       *validator.Validate
	now            func() time.Time
	maxUploadBytes int64
}

// WorkflowOption configures a WorkflowService.
type WorkflowOption func(*WorkflowService)

// WithNotifier sets the receiver of committed transitions.
func WithNotifier(n Notifier) WorkflowOption {
	return func(s *WorkflowService) { s.notifier = n }
}

// WithMetrics records outcomes and conflicts on m.
func WithMetrics(m *WorkflowMetrics) WorkflowOption {
	return func(s *WorkflowService) { s.metrics = m }
}

// WithFileStore sets where document bytes are kept.
func WithFileStore(files FileStore) WorkflowOption {
	return func(s *WorkflowService) { s.files = files }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) WorkflowOption {
	return func(s *WorkflowService) { s.now = now }
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes; non-positive values are ignored.
func WithMaxUploadBytes(limit int64) WorkflowOption {
	return func(s *WorkflowService) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

// NewWorkflowService builds the service over store and directory.
func NewWorkflowService(store ProposalStore, directory Directory, opts ...WorkflowOption) *WorkflowService {
	s := &WorkflowService{
		store:          store,
		directory:      directory,
		resolver:       NewAssignmentResolver(directory),
		validate:       validator.New(),
		now:            time.Now,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft stores a new proposal in draft owned by the caller.
func (s *WorkflowService) CreateDraft(ctx context.Context, actor Actor, content models.ProposalContent) (*models.Proposal, error) {
	started := s.now()
	proposal, err := s.createDraft(ctx, actor, content)
	s.metrics.observe(ActionSave, started, err)
	return proposal, err
}

func (s *WorkflowService) createDraft(ctx context.Context, actor Actor, content models.ProposalContent) (*models.Proposal, error) {
	if actor.Role != models.RoleResearcher {
		return nil, forbidden("only researchers may create proposals")
	}
	content.Title = utils.SanitizeInput(content.Title)
	if content.Title == "" {
		return nil, validationError("title is required")
	}
	if err := s.validateContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	proposal := &models.Proposal{
		ID:           uuid.NewString(),
		ResearcherID: actor.ID,
		Status:       models.StatusDraft,
		Version:      1,
		Content:      content.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, proposal); err != nil {
		return nil, err
	}
	log.Printf("proposal %s: created as draft by %s", proposal.ID, actor.ID)
	return proposal.Clone(), nil
}

// UpdateContent patches researcher-owned sections while the proposal is editable.
func (s *WorkflowService) UpdateContent(ctx context.Context, id string, actor Actor, patch models.ContentPatch) (*models.Proposal, error) {
	if patch.Empty() {
		return nil, validationError("nothing to update")
	}
	return s.apply(ctx, id, actor, ActionSave, func(_ context.Context, p *models.Proposal) error {
		next := patch.Apply(p.Content)
		next.Title = utils.SanitizeInput(next.Title)
		if next.Title == "" {
			return validationError("title cannot be blank")
		}
		if err := s.validateContent(next); err != nil {
			return err
		}
		p.Content = next
		return nil
	})
}

// Submit hands a draft (or a revised proposal) to the committee. A proposal
// coming back from reviewers goes straight back to them.
func (s *WorkflowService) Submit(ctx context.Context, id string, actor Actor) (*models.Proposal, error) {
	return s.apply(ctx, id, actor, ActionSubmit, func(_ context.Context, p *models.Proposal) error {
		now := s.now()
		if p.Status == models.StatusRevisionRequired && len(p.Reviewers) > 0 {
			p.Status = models.StatusUnderReview
			p.AssignedTo = append([]string(nil), p.Reviewers...)
		} else {
			p.Status = models.StatusSubmitted
			p.AssignedTo = nil
		}
		p.Verification = nil
		p.SubmittedAt = &now
		return nil
	})
}

// Resubmit returns a revised proposal to the start of the pipeline, recording
// the researcher's response when one is given.
func (s *WorkflowService) Resubmit(ctx context.Context, id string, actor Actor, responseText string) (*models.Proposal, error) {
	text := utils.SanitizeInput(responseText)
	return s.apply(ctx, id, actor, ActionResubmit, func(_ context.Context, p *models.Proposal) error {
		now := s.now()
		if text != "" {
			p.Responses = append(p.Responses, models.Response{
				ID:           uuid.NewString(),
				ResearcherID: actor.ID,
				Text:         text,
				CreatedAt:    now,
			})
		}
		p.Status = models.StatusSubmitted
		p.AssignedTo = nil
		p.Verification = nil
		p.SubmittedAt = &now
		return nil
	})
}

// Verify records the admin check and forwards the proposal to every scrutiny
// member. With nobody holding the scrutiny role the proposal stays
// admin_verified with an empty assignment set until Reassign.
func (s *WorkflowService) Verify(ctx context.Context, id string, actor Actor) (*models.Proposal, error) {
	return s.apply(ctx, id, actor, ActionVerify, func(ctx context.Context, p *models.Proposal) error {
		members, err := s.resolver.Members(ctx, models.RoleScrutiny)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			log.Printf("proposal %s: no scrutiny members available, holding at %s", p.ID, models.StatusAdminVerified)
		}
		p.Status = models.StatusAdminVerified
		p.AssignedTo = members
		p.Verification = &models.Verification{By: actor.ID, At: s.now()}
		return nil
	})
}

// Scrutinize applies an assigned scrutiny member's decision.
func (s *WorkflowService) Scrutinize(ctx context.Context, id string, actor Actor, decision, comment string) (*models.Proposal, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	if decision != ScrutinyApprove && decision != ScrutinyReject {
		return nil, validationError("decision must be either '%s' or '%s'", ScrutinyApprove, ScrutinyReject)
	}
	text := utils.SanitizeInput(comment)

	return s.apply(ctx, id, actor, ActionScrutinize, func(ctx context.Context, p *models.Proposal) error {
		if decision == ScrutinyReject {
			if text == "" {
				text = defaultScrutinyRejectText
			}
			p.Comments = append(p.Comments, models.Comment{
				ID:        uuid.NewString(),
				AuthorID:  actor.ID,
				Role:      actor.Role,
				Text:      text,
				Decision:  models.DecisionRevisionRequired,
				CreatedAt: s.now(),
			})
			p.Status = models.StatusRevisionRequired
			p.AssignedTo = nil
			return nil
		}

		reviewers, err := s.resolver.Members(ctx, models.RoleReviewer)
		if err != nil {
			return err
		}
		if len(reviewers) == 0 {
			log.Printf("proposal %s: no reviewers available, holding at %s", p.ID, models.StatusScrutinyVerified)
			p.Status = models.StatusScrutinyVerified
			p.AssignedTo = nil
			return nil
		}
		p.Status = models.StatusUnderReview
		p.AssignedTo = reviewers
		p.Reviewers = append([]string(nil), reviewers...)
		return nil
	})
}

// AssignReviewers is the admin override that hands a proposal to an explicit
// reviewer set.
func (s *WorkflowService) AssignReviewers(ctx context.Context, id string, actor Actor, reviewerIDs []string) (*models.Proposal, error) {
	if len(normalizeIDs(reviewerIDs)) == 0 {
		return nil, validationError("at least one reviewer must be assigned")
	}
	return s.apply(ctx, id, actor, ActionAssignReviewers, func(ctx context.Context, p *models.Proposal) error {
		reviewers, err := s.resolver.ValidateMembers(ctx, reviewerIDs, models.RoleReviewer)
		if err != nil {
			return err
		}
		p.Status = models.StatusUnderReview
		p.Reviewers = reviewers
		p.AssignedTo = append([]string(nil), reviewers...)
		return nil
	})
}

// Reassign re-resolves role membership for a proposal held because nobody
// was available at hand-off time.
func (s *WorkflowService) Reassign(ctx context.Context, id string, actor Actor) (*models.Proposal, error) {
	return s.apply(ctx, id, actor, ActionReassign, func(ctx context.Context, p *models.Proposal) error {
		if p.Status == models.StatusAdminVerified {
			members, err := s.resolver.Members(ctx, models.RoleScrutiny)
			if err != nil {
				return err
			}
			if len(members) == 0 {
				return invalidState("no scrutiny members are available for proposal %s", p.ID)
			}
			p.AssignedTo = members
			return nil
		}

		reviewers, err := s.resolver.Members(ctx, models.RoleReviewer)
		if err != nil {
			return err
		}
		if len(reviewers) == 0 {
			return invalidState("no reviewers are available for proposal %s", p.ID)
		}
		p.Status = models.StatusUnderReview
		p.AssignedTo = reviewers
		p.Reviewers = append([]string(nil), reviewers...)
		return nil
	})
}

// Review records an assigned reviewer's decision, which becomes the status.
func (s *WorkflowService) Review(ctx context.Context, id string, actor Actor, decision, text string) (*models.Proposal, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	switch decision {
	case models.DecisionApproved, models.DecisionRevisionRequired, models.DecisionRejected:
	default:
		return nil, validationError("invalid decision %q", decision)
	}
	text = utils.SanitizeInput(text)
	if text == "" {
		return nil, validationError("comment text is required")
	}

	return s.apply(ctx, id, actor, ActionReview, func(_ context.Context, p *models.Proposal) error {
		p.Comments = append(p.Comments, models.Comment{
			ID:        uuid.NewString(),
			AuthorID:  actor.ID,
			Role:      actor.Role,
			Text:      text,
			Decision:  decision,
			CreatedAt: s.now(),
		})
		p.Status = models.ProposalStatus(decision)
		p.AssignedTo = nil
		return nil
	})
}

// AttachDocument stores an uploaded PDF and appends its descriptor.
func (s *WorkflowService) AttachDocument(ctx context.Context, id string, actor Actor, upload DocumentUpload) (*models.Proposal, error) {
	if s.files == nil {
		return nil, errors.New("document storage is not configured")
	}
	doc := models.DocumentRef{
		ID:          uuid.NewString(),
		FileName:    utils.SanitizeInput(upload.FileName),
		ContentType: upload.ContentType,
		UploadedBy:  actor.ID,
	}
	if !doc.IsPDF() {
		return nil, validationError("only PDF files are allowed")
	}
	if doc.FileName == "" {
		return nil, validationError("file name is required")
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(current, actor.Role, actor.ID, ActionAttachDocument); err != nil {
		return nil, err
	}

	stored, err := s.files.Store(ctx, io.LimitReader(upload.Body, s.maxUploadBytes+1), doc.FileName)
	if err != nil {
		return nil, err
	}
	if stored.Size > s.maxUploadBytes {
		s.discardUpload(ctx, id, stored.Ref)
		return nil, validationError("file exceeds the %s limit", formatByteLimit(s.maxUploadBytes))
	}

	doc.Size = stored.Size
	doc.Checksum = stored.Checksum
	doc.StoredRef = stored.Ref
	doc.UploadedAt = s.now()
	proposal, err := s.apply(ctx, id, actor, ActionAttachDocument, func(_ context.Context, p *models.Proposal) error {
		p.Documents = append(p.Documents, doc)
		return nil
	})
	if err != nil {
		s.discardUpload(ctx, id, stored.Ref)
		return nil, err
	}
	return proposal, nil
}

// discardUpload removes bytes that never made it onto the proposal.
func (s *WorkflowService) discardUpload(ctx context.Context, id, ref string) {
	if err := s.files.Delete(ctx, ref); err != nil {
		log.Printf("proposal %s: failed to discard upload %s: %v", id, ref, err)
		return
	}
	log.Printf("proposal %s: discarded upload %s", id, ref)
}

func formatByteLimit(limit int64) string {
	if limit < 1<<20 {
		return fmt.Sprintf("%d-byte", limit)
	}
	return fmt.Sprintf("%.1f MB", float64(limit)/(1<<20))
}

// GetProposal returns the proposal if the caller may read it.
func (s *WorkflowService) GetProposal(ctx context.Context, id string, actor Actor) (*models.Proposal, error) {
	proposal, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(proposal, actor) {
		return nil, forbidden("access to proposal %s denied", id)
	}
	return proposal, nil
}

// OpenDocument streams a stored document to a reader of the proposal.
func (s *WorkflowService) OpenDocument(ctx context.Context, id, documentID string, actor Actor) (models.DocumentRef, io.ReadCloser, error) {
	if s.files == nil {
		return models.DocumentRef{}, nil, errors.New("document storage is not configured")
	}
	proposal, err := s.GetProposal(ctx, id, actor)
	if err != nil {
		return models.DocumentRef{}, nil, err
	}
	for _, doc := range proposal.Documents {
		if doc.ID != documentID {
			continue
		}
		body, err := s.files.Retrieve(ctx, doc.StoredRef)
		if err != nil {
			return models.DocumentRef{}, nil, err
		}
		return doc, body, nil
	}
	return models.DocumentRef{}, nil, notFound("document %s not found on proposal %s", documentID, id)
}

// CanRead reports whether actor may see p.
func CanRead(p *models.Proposal, actor Actor) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleResearcher:
		return p.ResearcherID == actor.ID
	case models.RoleReviewer, models.RoleScrutiny:
		if p.IsAssigned(actor.ID) || p.IsReviewer(actor.ID) {
			return true
		}
		for _, comment := range p.Comments {
			if comment.AuthorID == actor.ID {
				return true
			}
		}
	}
	return false
}

type mutation func(ctx context.Context, p *models.Proposal) error

// apply runs one guarded transition. A lost conditional update is retried
// once against a fresh read; a second loss is returned as ErrConflict.
func (s *WorkflowService) apply(ctx context.Context, id string, actor Actor, action Action, mutate mutation) (*models.Proposal, error) {
	started := s.now()
	proposal, err := s.applyWithRetry(ctx, id, actor, action, mutate)
	s.metrics.observe(action, started, err)
	return proposal, err
}

func (s *WorkflowService) applyWithRetry(ctx context.Context, id string, actor Actor, action Action, mutate mutation) (*models.Proposal, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := CheckTransition(current, actor.Role, actor.ID, action); err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := mutate(ctx, next); err != nil {
			return nil, err
		}
		if !next.Status.Valid() {
			return nil, fmt.Errorf("transition %s produced unknown status %q", action, next.Status)
		}
		next.UpdatedAt = s.now()

		saved, err := s.store.Update(ctx, next, current.Status)
		if err == nil {
			log.Printf("proposal %s: %s -> %s by %s (%s)", saved.ID, current.Status, saved.Status, actor.ID, action)
			if s.notifier != nil && current.Status != saved.Status {
				s.notifier.ProposalTransitioned(ctx, TransitionEvent{
					Proposal: saved.Clone(),
					Action:   action,
					From:     current.Status,
					To:       saved.Status,
					Actor:    actor,
				})
			}
			return saved, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.metrics.conflict(action)
		lastErr = err
	}
	return nil, lastErr
}

func (s *WorkflowService) validateContent(content models.ProposalContent) error {
	if err := s.validate.Struct(content); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return validationError("field %s failed '%s' validation", first.Namespace(), first.Tag())
		}
		return validationError("invalid content: %v", err)
	}
	return nil
}
