package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ethics-review-api/models"
)

// MemoryProposalStore implements ProposalStore in process memory. It backs the
// `STORE_DRIVER=memory` mode and the workflow tests.
type MemoryProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*models.Proposal
}

func NewMemoryProposalStore() *MemoryProposalStore {
	return &MemoryProposalStore{proposals: make(map[string]*models.Proposal)}
}

func (s *MemoryProposalStore) Create(_ context.Context, proposal *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[proposal.ID]; exists {
		return fmt.Errorf("proposal %s already exists", proposal.ID)
	}
	s.proposals[proposal.ID] = proposal.Clone()
	return nil
}

func (s *MemoryProposalStore) Get(_ context.Context, id string) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.proposals[id]
	if !ok {
		return nil, notFound("proposal %s not found", id)
	}
	return stored.Clone(), nil
}

func (s *MemoryProposalStore) Update(_ context.Context, proposal *models.Proposal, expected models.ProposalStatus) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.proposals[proposal.ID]
	if !ok {
		return nil, notFound("proposal %s not found", proposal.ID)
	}
	if stored.Status != expected || stored.Version != proposal.Version {
		return nil, &WorkflowError{Kind: KindConflict, Message: fmt.Sprintf("proposal %s changed since it was read", proposal.ID)}
	}

	next := proposal.Clone()
	next.Version = stored.Version + 1
	next.ResearcherID = stored.ResearcherID
	next.CreatedAt = stored.CreatedAt
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}
	s.proposals[proposal.ID] = next
	return next.Clone(), nil
}

func (s *MemoryProposalStore) List(_ context.Context, query ProposalQuery) ([]models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Proposal, 0)
	for _, stored := range s.proposals {
		if matchesQuery(stored, query) {
			matched = append(matched, *stored.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

func (s *MemoryProposalStore) CountByStatus(_ context.Context, query ProposalQuery) (map[models.ProposalStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.ProposalStatus]int64, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, stored := range s.proposals {
		if matchesQuery(stored, query) {
			counts[stored.Status]++
		}
	}
	return counts, nil
}

func matchesQuery(p *models.Proposal, query ProposalQuery) bool {
	if query.ResearcherID != "" && p.ResearcherID != query.ResearcherID {
		return false
	}
	if query.Participant != "" && !p.IsReviewer(query.Participant) && !p.IsAssigned(query.Participant) {
		return false
	}
	if query.AssignedTo != "" && !p.IsAssigned(query.AssignedTo) {
		return false
	}
	if query.UnassignedOnly && len(p.AssignedTo) > 0 {
		return false
	}
	if len(query.Statuses) > 0 {
		for _, status := range query.Statuses {
			if p.Status == status {
				return true
			}
		}
		return false
	}
	return true
}
