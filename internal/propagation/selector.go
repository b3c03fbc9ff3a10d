package propagation

import (
	"hubops/internal/directory/models"
)

// SelectCanonical identifies the membership that is the authoritative holder
// of a tenant's automation set.
//
// Resolution order:
//  1. A configured override for the tenant code wins, provided that
//     membership actually holds a non-empty automation list.
//  2. Otherwise a single best candidate is tracked across one scan: any
//     non-alias candidate beats any alias candidate, and within a class the
//     longer automation list wins. Ties keep the earliest-seen candidate;
//     scan order is the iteration order of the underlying query and carries
//     no meaning.
//
// Returns nil when no membership holds a non-empty automation list. This is
// a heuristic: it assumes each tenant has exactly one meaningful source of
// truth. Two non-alias members with different non-empty sets resolve by scan
// order, deliberately left as-is pending product input.
func SelectCanonical(memberships []*models.Membership, tenantCode string, overrides map[string]string, isAlias func(string) bool) *models.Membership {
	if email, ok := overrides[tenantCode]; ok {
		for _, m := range memberships {
			if m.Email == email && m.HasAutomations() {
				return m
			}
		}
	}

	var (
		best        *models.Membership
		bestIsAlias bool
		bestLen     int
	)
	for _, m := range memberships {
		if !m.HasAutomations() {
			continue
		}
		candidateIsAlias := isAlias(m.Email)
		count := len(m.AutomationIDs)

		if !candidateIsAlias {
			if best == nil || bestIsAlias || count > bestLen {
				best = m
				bestIsAlias = false
				bestLen = count
			}
		} else {
			if best == nil || (bestIsAlias && count > bestLen) {
				best = m
				bestIsAlias = true
				bestLen = count
			}
		}
	}
	return best
}
