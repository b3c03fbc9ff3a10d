// Package models holds the Identity Directory record shape.
package models

import "hubops/pkg/attrs"

// Claim keys used by the admin portal.
const (
	ClaimInternal      = "internal"
	ClaimRole          = "role"
	ClaimAllowedRoutes = "allowedRoutes"
)

// Record is one principal in the authentication service. Claims is the
// custom-attribute map attached to the principal; writes to it replace the
// whole map server-side, so callers merge before writing.
type Record struct {
	UID         string
	Email       string
	Verified    bool
	DisplayName string
	Claims      map[string]any
}

// Internal reports whether the internal-access claim is set.
func (r *Record) Internal() bool {
	return attrs.Bool(r.Claims, ClaimInternal)
}

// Role returns the role claim, empty when absent.
func (r *Record) Role() string {
	return attrs.String(r.Claims, ClaimRole)
}

// AllowedRoutes returns the allowed-route claim list. The claims map comes
// back from the backend as decoded JSON, so the list may be []any.
func (r *Record) AllowedRoutes() []string {
	return attrs.Strings(r.Claims, ClaimAllowedRoutes)
}

// HasPortalClaims reports whether the record carries the complete claim set
// required for admin portal access.
func (r *Record) HasPortalClaims() bool {
	return r.Internal() && r.Role() != ""
}
