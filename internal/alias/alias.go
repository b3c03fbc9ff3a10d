// Package alias recognizes alias identities by naming convention. An alias
// identity is a secondary account tied to a tenant, meant to inherit the
// permissions of that tenant's canonical account.
package alias

import (
	"strings"

	pstrings "hubops/pkg/platform/strings"
)

// Classifier checks emails against a fixed set of local-part suffix markers.
// The set is configuration, not code: new alias conventions are added through
// config, never by editing this package.
type Classifier struct {
	suffixes []string
}

// NewClassifier builds a classifier from the given suffix set. Suffixes are
// matched case-insensitively and must sit immediately before the '@'.
func NewClassifier(suffixes []string) *Classifier {
	return &Classifier{suffixes: pstrings.DedupeAndTrimLower(suffixes)}
}

// IsAlias reports whether the email belongs to the alias naming convention.
// Pure and total: any string is a valid input.
func (c *Classifier) IsAlias(email string) bool {
	lowered := strings.ToLower(email)
	for _, suffix := range c.suffixes {
		if strings.Contains(lowered, suffix+"@") {
			return true
		}
	}
	return false
}

// BaseEmail returns the canonical address an alias stands in for, with the
// suffix marker removed from the local part. Non-alias addresses come back
// unchanged, casing preserved.
func (c *Classifier) BaseEmail(email string) string {
	lowered := strings.ToLower(email)
	for _, suffix := range c.suffixes {
		if i := strings.Index(lowered, suffix+"@"); i >= 0 {
			return email[:i] + email[i+len(suffix):]
		}
	}
	return email
}

// Suffixes returns the normalized marker set, for reporting.
func (c *Classifier) Suffixes() []string {
	out := make([]string, len(c.suffixes))
	copy(out, c.suffixes)
	return out
}
