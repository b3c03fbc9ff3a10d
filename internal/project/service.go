// Package project backfills missing team-membership entries: a fixed list
// of member emails is appended to every active project that lacks them.
// Archived and finished projects are never touched.
package project

import (
	"context"
	"fmt"
	"log/slog"

	"hubops/internal/audit"
	"hubops/internal/platform/metrics"
	"hubops/internal/project/models"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/email"
	pstrings "hubops/pkg/platform/strings"
)

type ProjectStore interface {
	List(ctx context.Context) ([]*models.Project, error)
	SetTeamMembers(ctx context.Context, projectID string, members []string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// DefaultDoneStatuses marks projects no longer accepting team changes.
var DefaultDoneStatuses = []string{"Finalizado"}

// Report tallies one backfill pass.
type Report struct {
	Examined     int
	Updated      int
	Unchanged    int
	Skipped      int
	Errored      int
	MembersAdded int
	Lines        []string
}

func (r *Report) Summary() string {
	return fmt.Sprintf("examined %d projects: %d updated (%d members added), %d unchanged, %d skipped, %d errors",
		r.Examined, r.Updated, r.MembersAdded, r.Unchanged, r.Skipped, r.Errored)
}

// Service appends missing members to active project teams.
type Service struct {
	projects     ProjectStore
	doneStatuses []string
	logger       *slog.Logger
	audit        AuditPublisher
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDoneStatuses overrides the status values treated as finished.
func WithDoneStatuses(statuses []string) Option {
	return func(s *Service) { s.doneStatuses = pstrings.DedupeAndTrim(statuses) }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(projects ProjectStore, opts ...Option) *Service {
	s := &Service{
		projects:     projects,
		doneStatuses: DefaultDoneStatuses,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backfill appends the given emails to every active project team missing
// them. Existing member order is preserved and new members go at the end.
// Per-project write failures are counted and do not stop the pass.
func (s *Service) Backfill(ctx context.Context, emails []string) (*Report, error) {
	emails = pstrings.DedupeAndTrim(emails)
	if len(emails) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one member email is required")
	}
	for _, addr := range emails {
		if !email.Valid(addr) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("%q is not a plausible email address", addr))
		}
	}

	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "project list failed")
	}

	report := &Report{}
	for _, project := range all {
		report.Examined++
		if project.Archived || s.done(project.Status) {
			report.Skipped++
			continue
		}

		members := append([]string(nil), project.TeamMembers...)
		added := 0
		for _, addr := range emails {
			if !project.HasMember(addr) {
				members = append(members, addr)
				added++
			}
		}
		if added == 0 {
			report.Unchanged++
			continue
		}

		if err := s.projects.SetTeamMembers(ctx, project.ID, members); err != nil {
			report.Errored++
			report.Lines = append(report.Lines, fmt.Sprintf("%s (%s): %v", project.Name, project.ID, err))
			s.logger.ErrorContext(ctx, "team backfill failed", "project", project.ID, "error", err)
			continue
		}
		report.Updated++
		report.MembersAdded += added
		report.Lines = append(report.Lines, fmt.Sprintf("%s (%s): %d members added, team size %d",
			project.Name, project.ID, added, len(members)))
		if s.metrics != nil {
			s.metrics.TeamMembersAdded.Add(float64(added))
		}
		s.emit(ctx, audit.Event{
			Action:  audit.ActionTeamMembersAdded,
			Subject: project.ID,
			Detail:  fmt.Sprintf("project %q, %d members added", project.Name, added),
		})
	}
	return report, nil
}

func (s *Service) done(status string) bool {
	for _, done := range s.doneStatuses {
		if status == done {
			return true
		}
	}
	return false
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
