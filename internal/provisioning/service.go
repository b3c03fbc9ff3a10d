// Package provisioning ensures a principal exists across the three backends:
// the Identity Directory, the canonical user directory, and a target tenant
// partition. Every step checks existence before creating, so a partial prior
// run is resumed rather than duplicated.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hubops/internal/alias"
	"hubops/internal/audit"
	dirmodels "hubops/internal/directory/models"
	idmodels "hubops/internal/identity/models"
	"hubops/internal/platform/metrics"
	"hubops/internal/propagation"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/email"
	"hubops/pkg/platform/sentinel"
)

type IdentityDirectory interface {
	GetByEmail(ctx context.Context, email string) (*idmodels.Record, error)
	Create(ctx context.Context, record *idmodels.Record) (string, error)
}

type TenantStore interface {
	FindByCode(ctx context.Context, code string) (*dirmodels.Tenant, error)
}

type MembershipStore interface {
	FindByEmail(ctx context.Context, tenantID, email string) (*dirmodels.Membership, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*dirmodels.Membership, error)
	Create(ctx context.Context, tenantID string, m *dirmodels.Membership) (string, error)
}

type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*dirmodels.Profile, error)
	Create(ctx context.Context, p *dirmodels.Profile) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Request names one principal to provision into one tenant.
type Request struct {
	Email       string
	DisplayName string
	TenantCode  string
}

// Result reports what each step found or created. All three ids are set on
// success regardless of whether the step created or resumed.
type Result struct {
	IdentityUID       string
	IdentityCreated   bool
	ProfileID         string
	ProfileCreated    bool
	MembershipID      string
	MembershipCreated bool
	// SeededAutomations is the number of automation ids copied from the
	// tenant's canonical source into a newly created membership.
	SeededAutomations int
}

// Service runs the provisioning workflow. There is no transactional undo:
// a failure partway leaves earlier side effects in place, and the next run
// completes the remaining steps.
type Service struct {
	identity    IdentityDirectory
	tenants     TenantStore
	memberships MembershipStore
	profiles    ProfileStore
	classifier  *alias.Classifier
	overrides   map[string]string
	// requireCanonical makes membership creation fail when the target
	// tenant has no canonical source to seed from.
	requireCanonical bool
	logger           *slog.Logger
	audit            AuditPublisher
	metrics          *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithOverrides(overrides map[string]string) Option {
	return func(s *Service) { s.overrides = overrides }
}

// WithRequireCanonicalSource makes EnsureUser fail membership creation when
// no canonical source exists, instead of creating it with an empty list.
func WithRequireCanonicalSource(require bool) Option {
	return func(s *Service) { s.requireCanonical = require }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(identity IdentityDirectory, tenants TenantStore, memberships MembershipStore, profiles ProfileStore, classifier *alias.Classifier, opts ...Option) *Service {
	s := &Service{
		identity:    identity,
		tenants:     tenants,
		memberships: memberships,
		profiles:    profiles,
		classifier:  classifier,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureUser provisions one principal end to end. Each step is idempotent;
// running twice with identical input creates nothing the second time.
func (s *Service) EnsureUser(ctx context.Context, req Request) (*Result, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if !email.Valid(req.Email) {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid email %q", req.Email))
	}
	if req.TenantCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant code is required")
	}

	tenant, err := s.tenants.FindByCode(ctx, req.TenantCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("tenant %q not found", req.TenantCode))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve tenant")
	}

	result := &Result{}

	if err := s.ensureIdentity(ctx, req, result); err != nil {
		return nil, err
	}
	if err := s.ensureProfile(ctx, req, result); err != nil {
		return nil, err
	}
	if err := s.ensureMembership(ctx, req, tenant, result); err != nil {
		return nil, err
	}

	if result.IdentityCreated || result.ProfileCreated || result.MembershipCreated {
		s.incrementProvisioned()
	}
	return result, nil
}

func (s *Service) ensureIdentity(ctx context.Context, req Request, result *Result) error {
	record, err := s.identity.GetByEmail(ctx, req.Email)
	if err == nil {
		result.IdentityUID = record.UID
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	uid, err := s.identity.Create(ctx, &idmodels.Record{
		Email:       req.Email,
		Verified:    true,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity create failed")
	}
	result.IdentityUID = uid
	result.IdentityCreated = true
	s.logger.InfoContext(ctx, "identity record created", "email", req.Email, "uid", uid)
	s.emit(ctx, audit.Event{Action: audit.ActionIdentityCreated, Subject: req.Email, Detail: "uid " + uid})
	return nil
}

func (s *Service) ensureProfile(ctx context.Context, req Request, result *Result) error {
	profile, err := s.profiles.FindByEmail(ctx, req.Email)
	if err == nil {
		result.ProfileID = profile.ID
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}

	first, last := email.SplitDisplayName(req.DisplayName)
	profile = &dirmodels.Profile{
		Email:       req.Email,
		Active:      true,
		FirstName:   first,
		LastName:    last,
		IdentityUID: result.IdentityUID,
	}
	// Alias profiles keep a back-reference to the address they stand in for.
	if s.classifier.IsAlias(req.Email) {
		profile.AliasOf = s.classifier.BaseEmail(req.Email)
	}
	id, err := s.profiles.Create(ctx, profile)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile create failed")
	}
	result.ProfileID = id
	result.ProfileCreated = true
	s.logger.InfoContext(ctx, "directory profile created", "email", req.Email, "profile_id", id)
	s.emit(ctx, audit.Event{Action: audit.ActionProfileCreated, Subject: req.Email, Detail: "profile " + id})
	return nil
}

func (s *Service) ensureMembership(ctx context.Context, req Request, tenant *dirmodels.Tenant, result *Result) error {
	existing, err := s.memberships.FindByEmail(ctx, tenant.ID, req.Email)
	if err == nil {
		result.MembershipID = existing.ID
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "membership lookup failed")
	}

	membership := &dirmodels.Membership{
		Email:     req.Email,
		Name:      req.DisplayName,
		Active:    true,
		ProfileID: result.ProfileID,
	}

	// Best-effort seeding from the tenant's current canonical source.
	members, err := s.memberships.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships for seeding")
	}
	canonical := propagation.SelectCanonical(members, tenant.Code, s.overrides, s.classifier.IsAlias)
	switch {
	case canonical != nil:
		membership.AutomationIDs = append([]string(nil), canonical.AutomationIDs...)
		membership.AutomationFields = append([]string(nil), canonical.AutomationFields...)
		result.SeededAutomations = len(canonical.AutomationIDs)
	case s.requireCanonical:
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("tenant %q has no canonical source to seed automations from", tenant.Code))
	}

	id, err := s.memberships.Create(ctx, tenant.ID, membership)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "membership create failed")
	}
	result.MembershipID = id
	result.MembershipCreated = true
	s.logger.InfoContext(ctx, "tenant membership created",
		"email", req.Email, "tenant", tenant.Code, "membership_id", id,
		"seeded_automations", result.SeededAutomations)
	s.emit(ctx, audit.Event{
		Action:  audit.ActionMembershipCreated,
		Subject: req.Email,
		Tenant:  tenant.Code,
		Detail:  fmt.Sprintf("membership %s, %d automations seeded", id, result.SeededAutomations),
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementProvisioned() {
	if s.metrics != nil {
		s.metrics.UsersProvisioned.Inc()
	}
}
