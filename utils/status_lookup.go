package utils

import (
	"fmt"
	"strings"

	"ethics-review-api/models"
)

var (
	// statusSynonyms lists the spellings clients send for each status filter.
	statusSynonyms = map[models.ProposalStatus][]string{
		models.StatusDraft: {
			"draft",
		},
		models.StatusSubmitted: {
			"submitted",
			"pending",
		},
		models.StatusAdminVerified: {
			"admin_verified",
			"verified",
		},
		models.StatusScrutinyVerified: {
			"scrutiny_verified",
			"scrutinized",
		},
		models.StatusUnderReview: {
			"under_review",
			"in_review",
			"review",
		},
		models.StatusRevisionRequired: {
			"revision_required",
			"revision",
			"needs_revision",
		},
		models.StatusApproved: {
			"approved",
		},
		models.StatusRejected: {
			"rejected",
		},
	}
	statusAliasToCanonical = buildStatusAliasMap()
)

func buildStatusAliasMap() map[string]models.ProposalStatus {
	aliasMap := make(map[string]models.ProposalStatus)
	for canonical, synonyms := range statusSynonyms {
		aliasMap[normalizeStatusCode(string(canonical))] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatusCode(alias); normalized != "" {
				aliasMap[normalized] = canonical
			}
		}
	}
	return aliasMap
}

// normalizeStatusCode folds case, spaces and dashes so "Under-Review" and
// "under review" both match under_review.
func normalizeStatusCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.NewReplacer("-", "_", " ", "_").Replace(code)
	return code
}

// ParseStatus resolves a status name or alias.
func ParseStatus(code string) (models.ProposalStatus, error) {
	if status, ok := statusAliasToCanonical[normalizeStatusCode(code)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", code)
}

// ParseStatusFilter resolves a comma separated status filter. Blank input
// yields no filter; duplicates are dropped.
func ParseStatusFilter(raw string) ([]models.ProposalStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	seen := make(map[models.ProposalStatus]struct{})
	statuses := make([]models.ProposalStatus, 0, 1)
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		if _, exists := seen[status]; exists {
			continue
		}
		seen[status] = struct{}{}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
