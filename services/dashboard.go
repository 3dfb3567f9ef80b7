package services

import (
	"context"
	"sort"
	"time"

	"ethics-review-api/models"

	"golang.org/x/sync/errgroup"
)

const (
	defaultRecentLimit  = 10
	defaultPendingLimit = 50
)

// DashboardQuery narrows the recent list. Counts are always over the full scope.
type DashboardQuery struct {
	Statuses []models.ProposalStatus
	Limit    int
}

// ProposalSummary is the list projection of a proposal.
type ProposalSummary struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	ResearcherID string                `json:"researcher"`
	Status       models.ProposalStatus `json:"status"`
	AssignedTo   []string              `json:"assigned_to"`
	SubmittedAt  *time.Time            `json:"submitted_at,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type Dashboard struct {
	Role        models.Role                     `json:"role"`
	Counts      map[models.ProposalStatus]int64 `json:"counts"`
	Total       int64                           `json:"total"`
	Pending     []ProposalSummary               `json:"pending"`
	Recent      []ProposalSummary               `json:"recent"`
	Members     map[models.Role]int             `json:"members,omitempty"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// DashboardService builds read-only projections over the proposal store.
type DashboardService struct {
	store     ProposalStore
	directory Directory
	now       func() time.Time
}

func NewDashboardService(store ProposalStore, directory Directory) *DashboardService {
	return &DashboardService{store: store, directory: directory, now: time.Now}
}

// GetDashboard returns counts, the caller's pending work and recent activity
// within the caller's scope.
func (s *DashboardService) GetDashboard(ctx context.Context, actor Actor, query DashboardQuery) (*Dashboard, error) {
	scope, err := dashboardScope(actor)
	if err != nil {
		return nil, err
	}

	recentQuery := scope
	recentQuery.Statuses = query.Statuses
	recentQuery.Limit = query.Limit
	if recentQuery.Limit <= 0 {
		recentQuery.Limit = defaultRecentLimit
	}

	var (
		counts  map[models.ProposalStatus]int64
		pending []models.Proposal
		recent  []models.Proposal
		members map[models.Role]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.store.CountByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.pending(gctx, actor)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.store.List(gctx, recentQuery)
		return err
	})
	if actor.Role == models.RoleAdmin {
		g.Go(func() (err error) {
			members, err = s.memberCounts(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &Dashboard{
		Role:        actor.Role,
		Counts:      counts,
		Total:       total,
		Pending:     summarize(pending),
		Recent:      summarize(recent),
		Members:     members,
		GeneratedAt: s.now(),
	}, nil
}

func (s *DashboardService) memberCounts(ctx context.Context) (map[models.Role]int, error) {
	members := make(map[models.Role]int, 3)
	for _, role := range []models.Role{models.RoleScrutiny, models.RoleReviewer, models.RoleResearcher} {
		identities, err := s.directory.MembersByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		members[role] = len(identities)
	}
	return members, nil
}

// ListApproved lists approved proposals for any authenticated caller.
func (s *DashboardService) ListApproved(ctx context.Context) ([]ProposalSummary, error) {
	proposals, err := s.store.List(ctx, ProposalQuery{Statuses: []models.ProposalStatus{models.StatusApproved}})
	if err != nil {
		return nil, err
	}
	return summarize(proposals), nil
}

// AwaitingAssignment lists proposals held because nobody could be assigned
// at hand-off time.
func (s *DashboardService) AwaitingAssignment(ctx context.Context, actor Actor) ([]ProposalSummary, error) {
	if actor.Role != models.RoleAdmin {
		return nil, forbidden("only admins may view unassigned proposals")
	}
	proposals, err := s.awaitingAssignment(ctx, 0)
	if err != nil {
		return nil, err
	}
	return summarize(proposals), nil
}

// ListMembers returns the identities currently holding role.
func (s *DashboardService) ListMembers(ctx context.Context, actor Actor, role models.Role) ([]Identity, error) {
	if actor.Role != models.RoleAdmin {
		return nil, forbidden("only admins may list %s members", role)
	}
	if !role.Valid() {
		return nil, validationError("unknown role %q", role)
	}
	return s.directory.MembersByRole(ctx, role)
}

func (s *DashboardService) pending(ctx context.Context, actor Actor) ([]models.Proposal, error) {
	switch actor.Role {
	case models.RoleResearcher:
		return s.store.List(ctx, ProposalQuery{
			ResearcherID: actor.ID,
			Statuses:     []models.ProposalStatus{models.StatusDraft, models.StatusRevisionRequired},
			Limit:        defaultPendingLimit,
		})
	case models.RoleScrutiny:
		return s.store.List(ctx, ProposalQuery{
			AssignedTo: actor.ID,
			Statuses:   []models.ProposalStatus{models.StatusAdminVerified},
			Limit:      defaultPendingLimit,
		})
	case models.RoleReviewer:
		return s.store.List(ctx, ProposalQuery{
			AssignedTo: actor.ID,
			Statuses:   []models.ProposalStatus{models.StatusUnderReview},
			Limit:      defaultPendingLimit,
		})
	case models.RoleAdmin:
		submitted, err := s.store.List(ctx, ProposalQuery{
			Statuses: []models.ProposalStatus{models.StatusSubmitted},
			Limit:    defaultPendingLimit,
		})
		if err != nil {
			return nil, err
		}
		held, err := s.awaitingAssignment(ctx, defaultPendingLimit)
		if err != nil {
			return nil, err
		}
		return mergeByRecency(submitted, held, defaultPendingLimit), nil
	}
	return nil, forbidden("role %q has no dashboard", actor.Role)
}

func (s *DashboardService) awaitingAssignment(ctx context.Context, limit int) ([]models.Proposal, error) {
	unassigned, err := s.store.List(ctx, ProposalQuery{
		Statuses:       []models.ProposalStatus{models.StatusAdminVerified},
		UnassignedOnly: true,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}
	scrutinized, err := s.store.List(ctx, ProposalQuery{
		Statuses: []models.ProposalStatus{models.StatusScrutinyVerified},
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return mergeByRecency(unassigned, scrutinized, limit), nil
}

func dashboardScope(actor Actor) (ProposalQuery, error) {
	switch actor.Role {
	case models.RoleResearcher:
		return ProposalQuery{ResearcherID: actor.ID}, nil
	case models.RoleScrutiny, models.RoleReviewer:
		return ProposalQuery{Participant: actor.ID}, nil
	case models.RoleAdmin:
		return ProposalQuery{}, nil
	}
	return ProposalQuery{}, forbidden("role %q has no dashboard", actor.Role)
}

func mergeByRecency(a, b []models.Proposal, limit int) []models.Proposal {
	merged := make([]models.Proposal, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].UpdatedAt.Equal(merged[j].UpdatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func summarize(proposals []models.Proposal) []ProposalSummary {
	summaries := make([]ProposalSummary, 0, len(proposals))
	for _, p := range proposals {
		summaries = append(summaries, ProposalSummary{
			ID:           p.ID,
			Title:        p.Content.Title,
			ResearcherID: p.ResearcherID,
			Status:       p.Status,
			AssignedTo:   append([]string{}, p.AssignedTo...),
			SubmittedAt:  p.SubmittedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return summaries
}
