package propagation

import (
	"fmt"
	"strings"
)

// TenantReport is the narrative of one tenant's propagation pass.
type TenantReport struct {
	TenantCode      string
	TenantName      string
	MemberCount     int
	CanonicalEmail  string
	AutomationCount int
	AliasCount      int
	Updated         int
	Skipped         int
	Errored         int
	// Lines is the per-alias narrative, one entry per alias membership.
	Lines []string
}

func (r *TenantReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tenant %s (%s): %d members, %d aliases\n",
		r.TenantCode, r.TenantName, r.MemberCount, r.AliasCount)
	if r.CanonicalEmail != "" {
		fmt.Fprintf(&b, "  canonical source: %s (%d automations)\n",
			r.CanonicalEmail, r.AutomationCount)
	}
	for _, line := range r.Lines {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprintf(&b, "  updated=%d skipped=%d errored=%d", r.Updated, r.Skipped, r.Errored)
	return b.String()
}

// BatchReport aggregates a whole run. Skipped tenants are those with nothing
// to do or nothing to copy from; Failed tenants hit an infrastructure error.
type BatchReport struct {
	Reports     []*TenantReport
	Succeeded   []string
	Skipped     []string
	SkipReasons []string
	Failed      []string
	FailReasons []string
}

// Summary renders the final tally printed at the end of a run.
func (b *BatchReport) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "succeeded: %d", len(b.Succeeded))
	if len(b.Succeeded) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(b.Succeeded, ", "))
	}
	fmt.Fprintf(&sb, "\nskipped: %d", len(b.Skipped))
	for _, reason := range b.SkipReasons {
		fmt.Fprintf(&sb, "\n  - %s", reason)
	}
	fmt.Fprintf(&sb, "\nfailed: %d", len(b.Failed))
	for _, reason := range b.FailReasons {
		fmt.Fprintf(&sb, "\n  - %s", reason)
	}
	return sb.String()
}

// TotalUpdated sums membership updates across all tenants.
func (b *BatchReport) TotalUpdated() int {
	total := 0
	for _, r := range b.Reports {
		total += r.Updated
	}
	return total
}
