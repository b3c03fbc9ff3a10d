// Package portal inspects and repairs admin-portal access, which spans two
// backends: authorization claims on the Identity Record and the
// portal-access flag on the directory profile. The two drift independently;
// Repair converges both.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hubops/internal/audit"
	dirmodels "hubops/internal/directory/models"
	idmodels "hubops/internal/identity/models"
	"hubops/internal/platform/metrics"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/email"
	"hubops/pkg/platform/sentinel"
	pstrings "hubops/pkg/platform/strings"
)

type IdentityDirectory interface {
	GetByEmail(ctx context.Context, email string) (*idmodels.Record, error)
	SetClaims(ctx context.Context, uid string, claims map[string]any) error
}

type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*dirmodels.Profile, error)
	Create(ctx context.Context, p *dirmodels.Profile) (string, error)
	SetPortalAccess(ctx context.Context, profileID string, enabled bool) error
	ListPortalFlagged(ctx context.Context) ([]*dirmodels.Profile, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Report is the read-only picture Inspect assembles.
type Report struct {
	Email         string
	IdentityFound bool
	UID           string
	Verified      bool
	Internal      bool
	Role          string
	AllowedRoutes []string
	ProfileFound  bool
	ProfileID     string
	PortalAccess  bool
	Active        bool
}

// FullyConfigured reports whether both backends agree the principal has
// portal access.
func (r *Report) FullyConfigured() bool {
	return r.IdentityFound && r.Internal && r.Role != "" && r.ProfileFound && r.PortalAccess
}

// RepairResult reports what Repair changed for one principal.
type RepairResult struct {
	Email          string
	ClaimsChanged  bool
	ProfileChanged bool
	ProfileCreated bool
}

func (r *RepairResult) Changed() bool {
	return r.ClaimsChanged || r.ProfileChanged || r.ProfileCreated
}

// BatchResult tallies a repair-all pass.
type BatchResult struct {
	Examined int
	Repaired int
	Correct  int
	Errored  int
	Lines    []string
}

// Service grants and verifies admin-portal access.
type Service struct {
	identity IdentityDirectory
	profiles ProfileStore
	role     string
	routes   []string
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds the service. role and routes are what a repair grants: the role
// claim and the allowed-route list merged into the identity record.
func New(identity IdentityDirectory, profiles ProfileStore, role string, routes []string, opts ...Option) *Service {
	s := &Service{
		identity: identity,
		profiles: profiles,
		role:     role,
		routes:   pstrings.DedupeAndTrim(routes),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inspect reads both backends and reports, without writing anything.
func (s *Service) Inspect(ctx context.Context, addr string) (*Report, error) {
	report := &Report{Email: addr}

	record, err := s.identity.GetByEmail(ctx, addr)
	switch {
	case err == nil:
		report.IdentityFound = true
		report.UID = record.UID
		report.Verified = record.Verified
		report.Internal = record.Internal()
		report.Role = record.Role()
		report.AllowedRoutes = record.AllowedRoutes()
	case errors.Is(err, sentinel.ErrNotFound):
		// reported, not fatal
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	profile, err := s.profiles.FindByEmail(ctx, addr)
	switch {
	case err == nil:
		report.ProfileFound = true
		report.ProfileID = profile.ID
		report.PortalAccess = profile.PortalAdminAccess
		report.Active = profile.Active
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}

	return report, nil
}

// Repair converges one principal: merges the required claims onto the
// identity record and raises the portal flag on the profile, creating the
// profile when absent. The identity record must already exist; portal access
// cannot be granted to a principal that never registered.
func (s *Service) Repair(ctx context.Context, addr string) (*RepairResult, error) {
	record, err := s.identity.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("identity record for %q not found; the principal must register first", addr))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	result := &RepairResult{Email: addr}

	if err := s.repairClaims(ctx, record, result); err != nil {
		return nil, err
	}
	if err := s.repairProfile(ctx, record, result); err != nil {
		return nil, err
	}
	return result, nil
}

// repairClaims merges onto the existing claim map, never replaces it: claims
// set by other tooling survive a repair.
func (s *Service) repairClaims(ctx context.Context, record *idmodels.Record, result *RepairResult) error {
	merged := make(map[string]any, len(record.Claims)+3)
	for k, v := range record.Claims {
		merged[k] = v
	}
	merged[idmodels.ClaimInternal] = true
	if record.Role() == "" {
		merged[idmodels.ClaimRole] = s.role
	}
	routes := pstrings.DedupeAndTrim(append(record.AllowedRoutes(), s.routes...))
	merged[idmodels.ClaimAllowedRoutes] = routes

	if record.Internal() && record.Role() != "" && sameRoutes(record.AllowedRoutes(), routes) {
		return nil
	}

	if err := s.identity.SetClaims(ctx, record.UID, merged); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set claims")
	}
	result.ClaimsChanged = true
	s.incrementClaimsSet()
	s.emit(ctx, audit.Event{
		Action:  audit.ActionClaimsSet,
		Subject: record.Email,
		Detail:  fmt.Sprintf("internal=true role=%v routes=%d", merged[idmodels.ClaimRole], len(routes)),
	})
	return nil
}

func (s *Service) repairProfile(ctx context.Context, record *idmodels.Record, result *RepairResult) error {
	profile, err := s.profiles.FindByEmail(ctx, record.Email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
		}
		first, last := email.DeriveNameFromEmail(record.Email)
		if record.DisplayName != "" {
			first, last = email.SplitDisplayName(record.DisplayName)
		}
		id, err := s.profiles.Create(ctx, &dirmodels.Profile{
			Email:             record.Email,
			Active:            true,
			FirstName:         first,
			LastName:          last,
			IdentityUID:       record.UID,
			PortalAdminAccess: true,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "profile create failed")
		}
		result.ProfileCreated = true
		s.emit(ctx, audit.Event{Action: audit.ActionProfileCreated, Subject: record.Email, Detail: "profile " + id})
		s.emit(ctx, audit.Event{Action: audit.ActionPortalAccessSet, Subject: record.Email})
		return nil
	}

	if profile.PortalAdminAccess {
		return nil
	}
	if err := s.profiles.SetPortalAccess(ctx, profile.ID, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set portal access flag")
	}
	result.ProfileChanged = true
	s.emit(ctx, audit.Event{Action: audit.ActionPortalAccessSet, Subject: record.Email})
	return nil
}

// RepairAll scans profiles already flagged for portal access and converges
// those whose identity claims are missing or incomplete; complete claim sets
// are left untouched even when their route lists differ from the configured
// defaults. Per-principal failures are counted and do not stop the pass.
func (s *Service) RepairAll(ctx context.Context) (*BatchResult, error) {
	flagged, err := s.profiles.ListPortalFlagged(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flagged profiles")
	}

	batch := &BatchResult{}
	for _, profile := range flagged {
		batch.Examined++
		record, err := s.identity.GetByEmail(ctx, profile.Email)
		if err == nil && record.HasPortalClaims() {
			batch.Correct++
			batch.Lines = append(batch.Lines, fmt.Sprintf("%s: already correct", profile.Email))
			continue
		}
		result, err := s.Repair(ctx, profile.Email)
		if err != nil {
			batch.Errored++
			batch.Lines = append(batch.Lines, fmt.Sprintf("%s: %v", profile.Email, err))
			s.logger.ErrorContext(ctx, "portal repair failed", "email", profile.Email, "error", err)
			continue
		}
		if result.Changed() {
			batch.Repaired++
			batch.Lines = append(batch.Lines, fmt.Sprintf("%s: repaired", profile.Email))
		} else {
			batch.Correct++
			batch.Lines = append(batch.Lines, fmt.Sprintf("%s: already correct", profile.Email))
		}
	}
	return batch, nil
}

func sameRoutes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementClaimsSet() {
	if s.metrics != nil {
		s.metrics.ClaimsSet.Inc()
	}
}
