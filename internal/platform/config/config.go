// Package config builds the run configuration from environment variables so
// command mains stay lean. There is no hidden global state: the Config and
// the clients constructed from it are passed down explicitly.
package config

import (
	"fmt"
	"os"
	"strings"

	dErrors "hubops/pkg/domain-errors"
	pstrings "hubops/pkg/platform/strings"
)

// Defaults mirror the production deployment; every one of them can be
// overridden through the environment.
var (
	DefaultAliasSuffixes = []string{"-ai", "-gp", "-ra", "-pz"}
	DefaultPortalRoutes  = []string{"/projects", "/equipo"}
)

// Config carries everything a single run needs.
type Config struct {
	// ServiceAccountPath points at the backend credential file. Required;
	// its absence aborts the run before any processing.
	ServiceAccountPath string
	// ProjectID selects the backend project.
	ProjectID string
	// AuraTenantCode is the code of the tenant partition that acts as the
	// canonical user directory.
	AuraTenantCode string
	// AliasSuffixes is the set of local-part markers that classify an email
	// as an alias identity.
	AliasSuffixes []string
	// CanonicalSources maps tenant code to the statically known canonical
	// email for that tenant. Tenants not listed fall back to the scored
	// heuristic.
	CanonicalSources map[string]string
	// PortalRole is the role claim granted by portal-access repairs.
	PortalRole string
	// PortalRoutes is the allowed-route list granted by portal-access repairs.
	PortalRoutes []string
	// RequireCanonicalSource makes provisioning fail a membership creation
	// when the target tenant has no canonical source to seed automations
	// from, instead of creating the membership with an empty list.
	RequireCanonicalSource bool
}

// FromEnv reads HUBOPS_* variables and validates the result. Only
// configuration-level failures are reported here; entity-level problems
// surface later, per record.
func FromEnv() (Config, error) {
	cfg := Config{
		ServiceAccountPath:     os.Getenv("HUBOPS_SERVICE_ACCOUNT"),
		ProjectID:              os.Getenv("HUBOPS_PROJECT_ID"),
		AuraTenantCode:         os.Getenv("HUBOPS_AURA_TENANT"),
		PortalRole:             os.Getenv("HUBOPS_PORTAL_ROLE"),
		RequireCanonicalSource: os.Getenv("HUBOPS_REQUIRE_CANONICAL") == "true",
	}

	if cfg.AuraTenantCode == "" {
		cfg.AuraTenantCode = "aura"
	}
	if cfg.PortalRole == "" {
		cfg.PortalRole = "admin"
	}

	cfg.AliasSuffixes = splitList(os.Getenv("HUBOPS_ALIAS_SUFFIXES"))
	if len(cfg.AliasSuffixes) == 0 {
		cfg.AliasSuffixes = DefaultAliasSuffixes
	}
	cfg.AliasSuffixes = pstrings.DedupeAndTrimLower(cfg.AliasSuffixes)

	cfg.PortalRoutes = splitList(os.Getenv("HUBOPS_PORTAL_ROUTES"))
	if len(cfg.PortalRoutes) == 0 {
		cfg.PortalRoutes = DefaultPortalRoutes
	}
	cfg.PortalRoutes = pstrings.DedupeAndTrim(cfg.PortalRoutes)

	sources, err := parsePairs(os.Getenv("HUBOPS_CANONICAL_SOURCES"))
	if err != nil {
		return Config{}, err
	}
	cfg.CanonicalSources = sources

	if cfg.ServiceAccountPath == "" {
		return Config{}, dErrors.New(dErrors.CodeConfiguration,
			"HUBOPS_SERVICE_ACCOUNT is required")
	}
	if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
		return Config{}, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("service account file %q is not readable", cfg.ServiceAccountPath))
	}
	if cfg.ProjectID == "" {
		return Config{}, dErrors.New(dErrors.CodeConfiguration,
			"HUBOPS_PROJECT_ID is required")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// parsePairs decodes "code=email,code=email" into a map.
func parsePairs(raw string) (map[string]string, error) {
	pairs := splitList(raw)
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, email, ok := strings.Cut(pair, "=")
		if !ok || code == "" || email == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("malformed HUBOPS_CANONICAL_SOURCES entry %q, want code=email", pair))
		}
		out[strings.TrimSpace(code)] = strings.TrimSpace(email)
	}
	return out, nil
}
