package services

import (
	"context"
	"testing"

	"ethics-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardScopesByRole(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(t)
	dashboards := NewDashboardService(f.store, f.directory)

	reviewing := f.underReview(t)
	drafting := f.draft(t, "Still drafting")
	_, err := f.svc.CreateDraft(ctx, otherAuthor, models.ProposalContent{Title: "Not mine"})
	require.NoError(t, err)
	submitted := f.draft(t, "Waiting for admin")
	_, err = f.svc.Submit(ctx, submitted.ID, researcher)
	require.NoError(t, err)

	mine, err := dashboards.GetDashboard(ctx, researcher, DashboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)
	assert.Equal(t, int64(1), mine.Counts[models.StatusUnderReview])
	assert.Equal(t, int64(1), mine.Counts[models.StatusDraft])
	assert.Equal(t, int64(0), mine.Counts[models.StatusApproved])
	require.Len(t, mine.Pending, 1)
	assert.Equal(t, drafting.ID, mine.Pending[0].ID)
	assert.Len(t, mine.Recent, 3)
	assert.Nil(t, mine.Members)

	rv, err := dashboards.GetDashboard(ctx, reviewerOne, DashboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rv.Total)
	require.Len(t, rv.Pending, 1)
	assert.Equal(t, reviewing.ID, rv.Pending[0].ID)

	sc, err := dashboards.GetDashboard(ctx, scrutinyOne, DashboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), sc.Total, "scrutiny no longer holds a proposal handed to reviewers")
	assert.Empty(t, sc.Pending)

	all, err := dashboards.GetDashboard(ctx, admin, DashboardQuery{Statuses: []models.ProposalStatus{models.StatusDraft}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	assert.Len(t, all.Recent, 2)
	require.Len(t, all.Pending, 1)
	assert.Equal(t, submitted.ID, all.Pending[0].ID)
	assert.Equal(t, 2, all.Members[models.RoleScrutiny])
	assert.Equal(t, 2, all.Members[models.RoleReviewer])
	assert.Equal(t, 2, all.Members[models.RoleResearcher])
}

func TestDashboardDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(t)
	p := f.underReview(t)
	before, err := f.store.Get(ctx, p.ID)
	require.NoError(t, err)

	dashboards := NewDashboardService(f.store, f.directory)
	for _, actor := range []Actor{researcher, admin, scrutinyOne, reviewerOne} {
		_, err := dashboards.GetDashboard(ctx, actor, DashboardQuery{Limit: 1})
		require.NoError(t, err)
	}

	after, err := f.store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDashboardUnknownRole(t *testing.T) {
	f := newWorkflowFixture(t)
	dashboards := NewDashboardService(f.store, f.directory)
	_, err := dashboards.GetDashboard(context.Background(), Actor{ID: "x", Role: "guest"}, DashboardQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAwaitingAssignmentAndApprovedList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProposalStore()
	directory := NewStaticDirectory(identityOf(researcher), identityOf(admin), identityOf(scrutinyOne))
	svc := NewWorkflowService(store, directory, WithClock(tickingClock()))
	dashboards := NewDashboardService(store, directory)

	held, err := svc.CreateDraft(ctx, researcher, models.ProposalContent{Title: "No reviewers yet"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, held.ID, researcher)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, held.ID, admin)
	require.NoError(t, err)
	_, err = svc.Scrutinize(ctx, held.ID, scrutinyOne, ScrutinyApprove, "")
	require.NoError(t, err)

	waiting, err := dashboards.AwaitingAssignment(ctx, admin)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, models.StatusScrutinyVerified, waiting[0].Status)

	_, err = dashboards.AwaitingAssignment(ctx, researcher)
	assert.ErrorIs(t, err, ErrForbidden)

	directory.Put(identityOf(reviewerOne))
	_, err = svc.AssignReviewers(ctx, held.ID, admin, []string{reviewerOne.ID})
	require.NoError(t, err)
	_, err = svc.Review(ctx, held.ID, reviewerOne, models.DecisionApproved, "ok")
	require.NoError(t, err)

	approved, err := dashboards.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "No reviewers yet", approved[0].Title)

	waiting, err = dashboards.AwaitingAssignment(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, waiting)
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	dashboards := NewDashboardService(NewMemoryProposalStore(), committeeDirectory())

	members, err := dashboards.ListMembers(ctx, admin, models.RoleReviewer)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "rv-1", members[0].ID)

	_, err = dashboards.ListMembers(ctx, admin, "janitor")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = dashboards.ListMembers(ctx, reviewerOne, models.RoleReviewer)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignmentResolverReadsMembershipEachTime(t *testing.T) {
	ctx := context.Background()
	directory := NewStaticDirectory(identityOf(scrutinyOne))
	resolver := NewAssignmentResolver(directory)

	members, err := resolver.Members(ctx, models.RoleScrutiny)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, members)

	directory.Put(identityOf(scrutinyTwo))
	members, err = resolver.Members(ctx, models.RoleScrutiny)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, members)

	directory.Remove("s-1")
	members, err = resolver.Members(ctx, models.RoleScrutiny)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-2"}, members)
}
