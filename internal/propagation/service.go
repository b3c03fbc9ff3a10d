// Package propagation keeps alias memberships in sync with their tenant's
// canonical automation set. One run is one explicit pass; nothing here is
// continuous.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hubops/internal/alias"
	"hubops/internal/audit"
	"hubops/internal/directory/models"
	"hubops/internal/platform/metrics"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/platform/sentinel"
)

var (
	// ErrTenantNotFound: the tenant code resolves to nothing.
	ErrTenantNotFound = dErrors.New(dErrors.CodeNotFound, "tenant not found")
	// ErrNoCanonicalSource: no membership of the tenant holds a non-empty
	// automation list. Non-fatal for a batch; the caller records it and
	// moves on.
	ErrNoCanonicalSource = dErrors.New(dErrors.CodeNotFound, "no canonical source with automations")
)

type TenantStore interface {
	FindByCode(ctx context.Context, code string) (*models.Tenant, error)
}

type MembershipStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Membership, error)
	SetAutomations(ctx context.Context, tenantID, membershipID string, ids, fields []string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates one propagation pass per tenant.
type Service struct {
	tenants     TenantStore
	memberships MembershipStore
	classifier  *alias.Classifier
	overrides   map[string]string
	logger      *slog.Logger
	audit       AuditPublisher
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithOverrides injects the known canonical-email-per-tenant mapping.
func WithOverrides(overrides map[string]string) Option {
	return func(s *Service) { s.overrides = overrides }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(tenants TenantStore, memberships MembershipStore, classifier *alias.Classifier, opts ...Option) *Service {
	s := &Service{
		tenants:     tenants,
		memberships: memberships,
		classifier:  classifier,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PropagateTenant copies the canonical member's automation lists onto every
// alias membership of the tenant that differs. Writes are full replacements.
// A write failure for one alias is counted and does not stop the others.
func (s *Service) PropagateTenant(ctx context.Context, code string) (*TenantReport, error) {
	tenant, err := s.tenants.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fmt.Errorf("tenant %q: %w", code, ErrTenantNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to resolve tenant %q", code))
	}

	members, err := s.memberships.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to list memberships of %q", code))
	}

	report := &TenantReport{
		TenantCode:  code,
		TenantName:  tenant.Name,
		MemberCount: len(members),
	}

	canonical := SelectCanonical(members, code, s.overrides, s.classifier.IsAlias)
	if canonical == nil {
		return report, fmt.Errorf("tenant %q: %w", code, ErrNoCanonicalSource)
	}
	report.CanonicalEmail = canonical.Email
	report.AutomationCount = len(canonical.AutomationIDs)

	// The field list travels with the ids only when the source carries one.
	var fields []string
	if len(canonical.AutomationFields) > 0 {
		fields = canonical.AutomationFields
	}

	for _, member := range members {
		if !s.classifier.IsAlias(member.Email) {
			continue
		}
		report.AliasCount++

		if models.SameAutomationSet(member.AutomationIDs, canonical.AutomationIDs) {
			report.Skipped++
			report.Lines = append(report.Lines, fmt.Sprintf("%s: already correct", member.Email))
			continue
		}

		if err := s.memberships.SetAutomations(ctx, tenant.ID, member.ID, canonical.AutomationIDs, fields); err != nil {
			report.Errored++
			report.Lines = append(report.Lines, fmt.Sprintf("%s: write failed: %v", member.Email, err))
			s.logger.ErrorContext(ctx, "automation write failed",
				"tenant", code, "email", member.Email, "error", err)
			continue
		}

		report.Updated++
		report.Lines = append(report.Lines, fmt.Sprintf("%s: %d automations assigned", member.Email, len(canonical.AutomationIDs)))
		s.incrementUpdated()
		s.emit(ctx, audit.Event{
			Action:  audit.ActionAutomationsPropagated,
			Subject: member.Email,
			Tenant:  code,
			Detail:  fmt.Sprintf("copied %d automation ids from %s", len(canonical.AutomationIDs), canonical.Email),
		})
	}

	return report, nil
}

// PropagateAll processes tenant codes strictly in order, isolating per-tenant
// failures: a tenant that cannot be processed is recorded and the batch moves
// on.
func (s *Service) PropagateAll(ctx context.Context, codes []string) *BatchReport {
	batch := &BatchReport{}
	for _, code := range codes {
		report, err := s.PropagateTenant(ctx, code)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) || errors.Is(err, ErrNoCanonicalSource) {
				batch.Skipped = append(batch.Skipped, code)
				batch.SkipReasons = append(batch.SkipReasons, err.Error())
			} else {
				batch.Failed = append(batch.Failed, code)
				batch.FailReasons = append(batch.FailReasons, err.Error())
				s.logger.ErrorContext(ctx, "tenant propagation failed", "tenant", code, "error", err)
			}
			if report != nil {
				batch.Reports = append(batch.Reports, report)
			}
			continue
		}
		batch.Succeeded = append(batch.Succeeded, code)
		batch.Reports = append(batch.Reports, report)
	}
	return batch
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementUpdated() {
	if s.metrics != nil {
		s.metrics.MembershipsUpdated.Inc()
	}
}
