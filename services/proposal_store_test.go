package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"ethics-review-api/models"
)

var proposalColumns = []string{
	"id", "researcher_id", "status", "version", "assigned_to", "reviewers", "content",
	"documents", "comments", "responses", "verification", "submitted_at", "created_at", "updated_at",
}

func proposalRow(id string, status models.ProposalStatus, version int64, assigned string) []driver.Value {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "r-1", string(status), version, []byte(assigned), []byte(`[]`),
		[]byte(`{"title":"Sleep study"}`), []byte(`[]`), []byte(`[]`), []byte(`[]`),
		[]byte(`null`), nil, created, created,
	}
}

func TestGormProposalStoreGetDecodesJSONColumns(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `proposals` WHERE id = \\?"),
			columns: proposalColumns,
			rows:    [][]driver.Value{proposalRow("p-1", models.StatusAdminVerified, 3, `["s-1","s-2"]`)},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	store := NewGormProposalStore(db)
	proposal, err := store.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if proposal.Status != models.StatusAdminVerified || proposal.Version != 3 {
		t.Fatalf("unexpected status/version: %s/%d", proposal.Status, proposal.Version)
	}
	if len(proposal.AssignedTo) != 2 || proposal.AssignedTo[1] != "s-2" {
		t.Fatalf("assigned_to not decoded: %v", proposal.AssignedTo)
	}
	if proposal.Content.Title != "Sleep study" {
		t.Fatalf("content not decoded: %+v", proposal.Content)
	}
	if proposal.Verification != nil {
		t.Fatalf("expected no verification, got %+v", proposal.Verification)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestGormProposalStoreGetMissingIsNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `proposals`"),
			columns: proposalColumns,
			rows:    [][]driver.Value{},
		},
	}
	db, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewGormProposalStore(db).Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGormProposalStoreUpdateIsConditional(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `proposals` SET .* WHERE \\(?id = \\? AND status = \\? AND version = \\?\\)?"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	proposal := &models.Proposal{
		ID:         "p-1",
		Status:     models.StatusUnderReview,
		Version:    4,
		AssignedTo: []string{"rv-1"},
		UpdatedAt:  time.Now(),
	}
	saved, err := NewGormProposalStore(db).Update(context.Background(), proposal, models.StatusScrutinyVerified)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if saved.Version != 5 {
		t.Fatalf("expected version 5, got %d", saved.Version)
	}
	if proposal.Version != 4 {
		t.Fatalf("caller's copy must not change, got version %d", proposal.Version)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

// countArgs reports how many bound values equal want.
func countArgs(args []driver.NamedValue, want string) int {
	n := 0
	for _, arg := range args {
		if v, ok := arg.Value.(string); ok && v == want {
			n++
		}
	}
	return n
}

func TestGormProposalStoreWritesEmptyListsAsArrays(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `proposals`"),
			inspect: func(args []driver.NamedValue) error {
				if got := countArgs(args, "[]"); got != 5 {
					return fmt.Errorf("expected 5 empty list columns, got %d", got)
				}
				return nil
			},
			result: scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `proposals` SET"),
			inspect: func(args []driver.NamedValue) error {
				if got := countArgs(args, "[]"); got != 5 {
					return fmt.Errorf("expected 5 empty list columns, got %d", got)
				}
				// verification is the only column allowed to hold null
				if got := countArgs(args, "null"); got != 1 {
					return fmt.Errorf("expected only verification to be null, got %d null values", got)
				}
				return nil
			},
			result: scriptedResult{rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()
	store := NewGormProposalStore(db)

	now := time.Now()
	draft := &models.Proposal{ID: "p-9", ResearcherID: "r-1", Status: models.StatusDraft, Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := store.Create(context.Background(), draft); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if draft.AssignedTo != nil {
		t.Fatalf("caller's copy must not change, got %v", draft.AssignedTo)
	}

	// A verify with no scrutiny members leaves the assignment empty.
	held := &models.Proposal{ID: "p-9", ResearcherID: "r-1", Status: models.StatusAdminVerified, Version: 2, UpdatedAt: now}
	if _, err := store.Update(context.Background(), held, models.StatusSubmitted); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestGormProposalStoreUnassignedOnlyMatchesNullAndEmpty(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("status IN \\(\\?\\).*\\(assigned_to IS NULL OR JSON_TYPE\\(assigned_to\\) = 'NULL' OR JSON_LENGTH\\(assigned_to\\) = 0\\)"),
			columns: proposalColumns,
			rows:    [][]driver.Value{proposalRow("p-3", models.StatusAdminVerified, 2, `null`)},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	proposals, err := NewGormProposalStore(db).List(context.Background(), ProposalQuery{
		Statuses:       []models.ProposalStatus{models.StatusAdminVerified},
		UnassignedOnly: true,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(proposals) != 1 || len(proposals[0].AssignedTo) != 0 {
		t.Fatalf("unexpected proposals: %+v", proposals)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestGormProposalStoreUpdateLostRace(t *testing.T) {
	cases := []struct {
		name   string
		exists int64
		want   error
	}{
		{name: "row changed", exists: 1, want: ErrConflict},
		{name: "row gone", exists: 0, want: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			steps := []*queryStep{
				{
					kind:    kindExec,
					pattern: regexp.MustCompile("UPDATE `proposals`"),
					result:  scriptedResult{rowsAffected: 0},
				},
				{
					kind:    kindQuery,
					pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `proposals` WHERE id = \\?"),
					args:    []driver.Value{"p-1"},
					columns: []string{"count(*)"},
					rows:    [][]driver.Value{{tc.exists}},
				},
			}
			db, state, cleanup := newScriptedGormDB(t, steps)
			defer cleanup()

			proposal := &models.Proposal{ID: "p-1", Status: models.StatusApproved, Version: 2}
			_, err := NewGormProposalStore(db).Update(context.Background(), proposal, models.StatusUnderReview)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if err := state.verifyComplete(); err != nil {
				t.Fatalf("unexpected remaining steps: %v", err)
			}
		})
	}
}

func TestGormProposalStoreCountByStatusZeroFills(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT status, COUNT\\(\\*\\) AS total FROM `proposals` WHERE researcher_id = \\? GROUP BY `?status`?"),
			args:    []driver.Value{"r-1"},
			columns: []string{"status", "total"},
			rows: [][]driver.Value{
				{"draft", int64(2)},
				{"approved", int64(1)},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	counts, err := NewGormProposalStore(db).CountByStatus(context.Background(), ProposalQuery{ResearcherID: "r-1"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if len(counts) != len(models.AllStatuses) {
		t.Fatalf("expected every status to be present, got %v", counts)
	}
	if counts[models.StatusDraft] != 2 || counts[models.StatusApproved] != 1 || counts[models.StatusUnderReview] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestGormProposalStoreListScopesByParticipant(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("JSON_CONTAINS\\(reviewers, JSON_QUOTE\\(\\?\\)\\) OR JSON_CONTAINS\\(assigned_to, JSON_QUOTE\\(\\?\\)\\).*status IN \\(\\?\\).*ORDER BY updated_at DESC"),
			columns: proposalColumns,
			rows: [][]driver.Value{
				proposalRow("p-2", models.StatusUnderReview, 6, `["rv-1"]`),
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	proposals, err := NewGormProposalStore(db).List(context.Background(), ProposalQuery{
		Participant: "rv-1",
		Statuses:    []models.ProposalStatus{models.StatusUnderReview},
		Limit:       5,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(proposals) != 1 || proposals[0].ID != "p-2" {
		t.Fatalf("unexpected proposals: %+v", proposals)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestGormProposalStoreHonoursContext(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `proposals`"),
			delay:   time.Second,
			columns: proposalColumns,
		},
	}
	db, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewGormProposalStore(db).Get(ctx, "p-1")
	if err == nil {
		t.Fatal("expected the store to surface the cancelled context")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("a timeout must not look like a missing proposal: %v", err)
	}
}

func TestGormDirectoryLookupUnknownUser(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `users` WHERE user_id = \\? AND delete_at IS NULL"),
			columns: []string{"user_id", "name", "email", "role"},
			rows:    [][]driver.Value{},
		},
	}
	db, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewGormDirectory(db).Lookup(context.Background(), "ghost")
	if !errors.Is(err, ErrUnknownIdentity) {
		t.Fatalf("expected unknown identity, got %v", err)
	}
}

func TestGormDirectoryMembersByRole(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `users` WHERE role = \\? AND delete_at IS NULL ORDER BY user_id ASC"),
			args:    []driver.Value{"scrutiny"},
			columns: []string{"user_id", "name", "email", "role"},
			rows: [][]driver.Value{
				{"s-1", "Anan", "anan@example.org", "scrutiny"},
				{"s-2", "Busaba", "busaba@example.org", "scrutiny"},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	members, err := NewGormDirectory(db).MembersByRole(context.Background(), models.RoleScrutiny)
	if err != nil {
		t.Fatalf("members failed: %v", err)
	}
	if len(members) != 2 || members[0].ID != "s-1" || members[1].Email != "busaba@example.org" {
		t.Fatalf("unexpected members: %+v", members)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}
