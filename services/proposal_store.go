package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ethics-review-api/models"

	"gorm.io/gorm"
)

// ProposalQuery scopes list and count projections.
type ProposalQuery struct {
	ResearcherID string
	// Participant matches proposals whose reviewers or assignment set contain the id.
	Participant string
	// AssignedTo matches the current assignment set only.
	AssignedTo     string
	Statuses       []models.ProposalStatus
	UnassignedOnly bool
	Limit          int
}

// ProposalStore persists proposal records. Update is conditional: it applies
// only while the stored row still has expected status and the version the
// caller read, and fails with ErrConflict otherwise.
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	Get(ctx context.Context, id string) (*models.Proposal, error)
	Update(ctx context.Context, proposal *models.Proposal, expected models.ProposalStatus) (*models.Proposal, error)
	List(ctx context.Context, query ProposalQuery) ([]models.Proposal, error)
	CountByStatus(ctx context.Context, query ProposalQuery) (map[models.ProposalStatus]int64, error)
}

// GormProposalStore keeps proposals in a single MySQL table.
type GormProposalStore struct {
	db *gorm.DB
}

func NewGormProposalStore(db *gorm.DB) *GormProposalStore {
	return &GormProposalStore{db: db}
}

func (s *GormProposalStore) Create(ctx context.Context, proposal *models.Proposal) error {
	row := proposal.Clone()
	normalizeLists(row)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

func (s *GormProposalStore) Get(ctx context.Context, id string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("proposal %s not found", id)
		}
		return nil, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}
	return &proposal, nil
}

func (s *GormProposalStore) Update(ctx context.Context, proposal *models.Proposal, expected models.ProposalStatus) (*models.Proposal, error) {
	next := proposal.Clone()
	next.Version = proposal.Version + 1
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}

	result := s.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND status = ? AND version = ?", proposal.ID, expected, proposal.Version).
		Updates(map[string]interface{}{
			"status":       next.Status,
			"version":      next.Version,
			"assigned_to":  jsonList(next.AssignedTo),
			"reviewers":    jsonList(next.Reviewers),
			"content":      jsonColumn(next.Content),
			"documents":    jsonList(next.Documents),
			"comments":     jsonList(next.Comments),
			"responses":    jsonList(next.Responses),
			"verification": jsonColumn(next.Verification),
			"submitted_at": next.SubmittedAt,
			"updated_at":   next.UpdatedAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update proposal %s: %w", proposal.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Proposal{}).Where("id = ?", proposal.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to recheck proposal %s: %w", proposal.ID, err)
		}
		if count == 0 {
			return nil, notFound("proposal %s not found", proposal.ID)
		}
		return nil, &WorkflowError{Kind: KindConflict, Message: fmt.Sprintf("proposal %s changed since it was read", proposal.ID)}
	}
	return next, nil
}

func (s *GormProposalStore) List(ctx context.Context, query ProposalQuery) ([]models.Proposal, error) {
	var proposals []models.Proposal
	tx := s.scoped(ctx, query).Order("updated_at DESC")
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if err := tx.Find(&proposals).Error; err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, nil
}

func (s *GormProposalStore) CountByStatus(ctx context.Context, query ProposalQuery) (map[models.ProposalStatus]int64, error) {
	var rows []struct {
		Status models.ProposalStatus
		Total  int64
	}
	if err := s.scoped(ctx, query).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count proposals: %w", err)
	}

	counts := make(map[models.ProposalStatus]int64, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (s *GormProposalStore) scoped(ctx context.Context, query ProposalQuery) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Proposal{})
	if query.ResearcherID != "" {
		tx = tx.Where("researcher_id = ?", query.ResearcherID)
	}
	if query.Participant != "" {
		tx = tx.Where("(JSON_CONTAINS(reviewers, JSON_QUOTE(?)) OR JSON_CONTAINS(assigned_to, JSON_QUOTE(?)))",
			query.Participant, query.Participant)
	}
	if query.AssignedTo != "" {
		tx = tx.Where("JSON_CONTAINS(assigned_to, JSON_QUOTE(?))", query.AssignedTo)
	}
	if len(query.Statuses) > 0 {
		tx = tx.Where("status IN ?", query.Statuses)
	}
	if query.UnassignedOnly {
		tx = tx.Where("(assigned_to IS NULL OR JSON_TYPE(assigned_to) = 'NULL' OR JSON_LENGTH(assigned_to) = 0)")
	}
	return tx
}

// jsonColumn encodes a value for a JSON column. Map-based updates bypass the
// gorm serializer, so the encoding happens here. The column types are plain
// structs and slices and always marshal.
func jsonColumn(value interface{}) string {
	serialized, _ := json.Marshal(value)
	return string(serialized)
}

// jsonList encodes a list column. A nil slice is stored as [] rather than the
// JSON null literal, which JSON_LENGTH reports as one element.
func jsonList[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	return jsonColumn(items)
}

// normalizeLists replaces nil list fields with empty slices before an insert.
func normalizeLists(p *models.Proposal) {
	if p.AssignedTo == nil {
		p.AssignedTo = []string{}
	}
	if p.Reviewers == nil {
		p.Reviewers = []string{}
	}
	if p.Documents == nil {
		p.Documents = []models.DocumentRef{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	if p.Responses == nil {
		p.Responses = []models.Response{}
	}
}
