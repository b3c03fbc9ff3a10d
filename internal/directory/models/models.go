// Package models holds the document-store aggregates: tenant partitions,
// their membership records, and the canonical user directory profiles.
package models

import "time"

// Tenant is one named partition of user records. Cross-tenant logic always
// looks tenants up by Code, never by the generated ID.
//
// Duplicate codes are a data-integrity precondition, not a handled case: a
// lookup returns the first match.
type Tenant struct {
	ID   string
	Code string
	Name string
}

// Membership is one principal's record inside a tenant partition.
//
// Invariants upheld by the propagation engine:
//   - every alias membership of a tenant carries the same automation-id set
//     as the tenant's canonical member (eventual, enforced by explicit re-run)
//   - automation lists are overwritten whole, never merged
type Membership struct {
	ID               string
	Email            string
	Name             string
	Active           bool
	ProfileID        string
	AutomationIDs    []string
	AutomationFields []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasAutomations reports whether the membership holds a non-empty
// automation-id list.
func (m *Membership) HasAutomations() bool {
	return len(m.AutomationIDs) > 0
}

// Profile is a principal's record in the canonical user directory.
type Profile struct {
	ID                string
	Email             string
	Active            bool
	FirstName         string
	LastName          string
	IdentityUID       string
	AliasOf           string
	CompanyName       string
	PortalAdminAccess bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SameAutomationSet compares two automation-id lists as sets, order- and
// duplicate-insensitive. An equal set means the propagation engine skips the
// write entirely.
func SameAutomationSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}
