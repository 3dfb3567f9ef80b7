package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ethics-review-api/models"
)

// AssignmentResolver turns a role into the concrete set of identities that
// become responsible for a proposal. Membership is read from the directory on
// every call so role changes apply from the next hand-off onwards.
type AssignmentResolver struct {
	directory Directory
}

func NewAssignmentResolver(directory Directory) *AssignmentResolver {
	return &AssignmentResolver{directory: directory}
}

// Members returns the sorted ids currently holding role.
func (r *AssignmentResolver) Members(ctx context.Context, role models.Role) ([]string, error) {
	identities, err := r.directory.MembersByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(identities))
	for _, identity := range identities {
		ids = append(ids, identity.ID)
	}
	return normalizeIDs(ids), nil
}

// ValidateMembers checks that every id resolves to an identity holding role
// and returns the normalized set.
func (r *AssignmentResolver) ValidateMembers(ctx context.Context, ids []string, role models.Role) ([]string, error) {
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return nil, validationError("at least one %s must be assigned", role)
	}
	for _, id := range normalized {
		identity, err := r.directory.Lookup(ctx, id)
		if err != nil {
			if errors.Is(err, ErrUnknownIdentity) {
				return nil, validationError("user %s does not exist", id)
			}
			return nil, fmt.Errorf("failed to resolve %s: %w", id, err)
		}
		if identity.Role != role {
			return nil, validationError("user %s is not a %s", id, role)
		}
	}
	return normalized, nil
}

// normalizeIDs trims, de-duplicates and sorts ids.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
