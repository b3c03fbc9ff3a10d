// Package billing re-links expense records to their customer. Expenses are
// captured by company name before the customer record exists; once the
// customer is known, every matching expense gets its customer reference set.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hubops/internal/audit"
	"hubops/internal/billing/models"
	"hubops/internal/platform/metrics"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/platform/sentinel"
)

type CustomerStore interface {
	FindByName(ctx context.Context, name string) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) (string, error)
}

type ExpenseStore interface {
	List(ctx context.Context) ([]*models.Expense, error)
	SetCustomer(ctx context.Context, expenseID, customerID, companyNormal string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CustomerSpec describes how to locate one customer. Resolution tries each
// strategy in order and stops at the first hit: exact name variants, tax-id
// substring, then normalized keyword substring over name and legal name.
// When nothing matches and Template is set, the customer is created from it.
type CustomerSpec struct {
	NameVariants []string
	TaxID        string
	Keywords     []string
	Template     *models.Customer
}

// ErrCustomerNotFound is returned when no strategy matched and the
// CustomerSpec carries no creation template.
var ErrCustomerNotFound = dErrors.New(dErrors.CodeNotFound, "customer not found and creation is disabled")

// RelinkReport tallies one relink pass.
type RelinkReport struct {
	CustomerID      string
	CustomerName    string
	CustomerCreated bool
	Matched         int
	Relinked        int
	AlreadyLinked   int
	Errored         int
	Lines           []string
}

func (r *RelinkReport) Summary() string {
	return fmt.Sprintf("customer %q (%s): %d matched, %d relinked, %d already linked, %d errors",
		r.CustomerName, r.CustomerID, r.Matched, r.Relinked, r.AlreadyLinked, r.Errored)
}

// Service resolves customers and relinks their expenses.
type Service struct {
	customers CustomerStore
	expenses  ExpenseStore
	logger    *slog.Logger
	audit     AuditPublisher
	metrics   *metrics.Metrics
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

func New(customers CustomerStore, expenses ExpenseStore, opts ...Option) *Service {
	s := &Service{
		customers: customers,
		expenses:  expenses,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveCustomer locates the customer a spec describes, creating it from
// the template when nothing matches. The second return reports creation.
func (s *Service) ResolveCustomer(ctx context.Context, spec CustomerSpec) (*models.Customer, bool, error) {
	for _, name := range spec.NameVariants {
		customer, err := s.customers.FindByName(ctx, name)
		if err == nil {
			return customer, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "customer lookup failed")
		}
	}

	all, err := s.customers.List(ctx)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "customer list failed")
	}

	if spec.TaxID != "" {
		want := strings.ToUpper(spec.TaxID)
		for _, customer := range all {
			if customer.TaxID != "" && strings.Contains(strings.ToUpper(customer.TaxID), want) {
				s.logger.InfoContext(ctx, "customer matched by tax id", "name", customer.Name, "taxId", customer.TaxID)
				return customer, false, nil
			}
		}
	}

	for _, customer := range all {
		name := models.NormalizeName(customer.Name)
		legal := models.NormalizeName(customer.LegalName)
		for _, keyword := range spec.Keywords {
			k := models.NormalizeName(keyword)
			if k == "" {
				continue
			}
			if strings.Contains(name, k) || strings.Contains(legal, k) {
				s.logger.InfoContext(ctx, "customer matched by keyword", "name", customer.Name, "keyword", keyword)
				return customer, false, nil
			}
		}
	}

	if spec.Template == nil {
		return nil, false, ErrCustomerNotFound
	}

	created := *spec.Template
	id, err := s.customers.Create(ctx, &created)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "customer create failed")
	}
	created.ID = id
	s.logger.InfoContext(ctx, "customer created", "name", created.Name, "id", id)
	return &created, true, nil
}

// RelinkExpenses scans every expense whose company matches the keyword and
// points those not already linked at the customer, pinning companyNormal in
// the same write. Per-expense failures are counted and do not stop the pass.
func (s *Service) RelinkExpenses(ctx context.Context, keyword, companyNormal string, customer *models.Customer) (*RelinkReport, error) {
	if keyword == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company keyword is required")
	}

	all, err := s.expenses.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "expense list failed")
	}

	report := &RelinkReport{CustomerID: customer.ID, CustomerName: customer.Name}
	for _, expense := range all {
		if !expense.MatchesKeyword(keyword) {
			continue
		}
		report.Matched++
		if expense.CustomerID == customer.ID {
			report.AlreadyLinked++
			continue
		}
		if err := s.expenses.SetCustomer(ctx, expense.ID, customer.ID, companyNormal); err != nil {
			report.Errored++
			report.Lines = append(report.Lines, fmt.Sprintf("%s: %v", expense.ID, err))
			s.logger.ErrorContext(ctx, "expense relink failed", "expense", expense.ID, "error", err)
			continue
		}
		report.Relinked++
		report.Lines = append(report.Lines, fmt.Sprintf("%s: %s (%s) linked to %s",
			expense.ID, expense.Company, expense.Month, customer.Name))
		if s.metrics != nil {
			s.metrics.ExpensesRelinked.Inc()
		}
		s.emit(ctx, audit.Event{
			Action:  audit.ActionExpenseRelinked,
			Subject: expense.ID,
			Detail:  fmt.Sprintf("company=%s customer=%s", expense.Company, customer.ID),
		})
	}
	return report, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
