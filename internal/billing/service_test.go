package billing

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"hubops/internal/audit"
	"hubops/internal/billing/models"
	"hubops/internal/billing/store/memory"
	"hubops/internal/platform/metrics"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/testutil"
)

type BillingSuite struct {
	suite.Suite
	customers *memory.CustomerStore
	expenses  *memory.ExpenseStore
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
}

func (s *BillingSuite) SetupTest() {
	s.customers = memory.NewCustomerStore()
	s.expenses = memory.NewExpenseStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.customers, s.expenses,
		WithAuditPublisher(audit.NewPublisher(audit.NewMemoryStore())),
		WithMetrics(s.metrics),
	)
	s.ctx = testutil.Context()
}

func TestBillingSuite(t *testing.T) {
	suite.Run(t, new(BillingSuite))
}

func (s *BillingSuite) TestResolveCustomer() {
	s.Run("matches an exact name variant first", func() {
		_, err := s.customers.Create(s.ctx, &models.Customer{Name: "INVOMEX"})
		s.Require().NoError(err)

		customer, created, err := s.service.ResolveCustomer(s.ctx, CustomerSpec{
			NameVariants: []string{"invomex", "Invomex", "INVOMEX"},
		})
		s.Require().NoError(err)
		s.False(created)
		s.Equal("INVOMEX", customer.Name)
	})

	s.Run("falls back to tax id substring", func() {
		_, err := s.customers.Create(s.ctx, &models.Customer{Name: "Otro Nombre SA", TaxID: "iv0100127gi5"})
		s.Require().NoError(err)

		customer, created, err := s.service.ResolveCustomer(s.ctx, CustomerSpec{
			NameVariants: []string{"Invomex"},
			TaxID:        "IV0100127GI5",
		})
		s.Require().NoError(err)
		s.False(created)
		s.Equal("Otro Nombre SA", customer.Name)
	})

	s.Run("falls back to keyword match on the legal name", func() {
		_, err := s.customers.Create(s.ctx, &models.Customer{
			Name:      "IVM",
			LegalName: "Integración de Valor Orientado a México",
		})
		s.Require().NoError(err)

		customer, created, err := s.service.ResolveCustomer(s.ctx, CustomerSpec{
			NameVariants: []string{"Invomex"},
			Keywords:     []string{"orientado a méxico"},
		})
		s.Require().NoError(err)
		s.False(created)
		s.Equal("IVM", customer.Name)
	})

	s.Run("creates from the template when nothing matches", func() {
		customer, created, err := s.service.ResolveCustomer(s.ctx, CustomerSpec{
			NameVariants: []string{"Invomex"},
			Template:     &models.Customer{Name: "Invomex", TaxID: "IV0100127GI5"},
		})
		s.Require().NoError(err)
		s.True(created)
		s.NotEmpty(customer.ID)

		found, err := s.customers.FindByName(s.ctx, "Invomex")
		s.Require().NoError(err)
		s.Equal(customer.ID, found.ID)
	})

	s.Run("fails without a template when nothing matches", func() {
		_, _, err := s.service.ResolveCustomer(s.ctx, CustomerSpec{NameVariants: []string{"nadie"}})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *BillingSuite) TestRelinkExpenses() {
	customerID, err := s.customers.Create(s.ctx, &models.Customer{Name: "Invomex"})
	s.Require().NoError(err)
	customer := &models.Customer{ID: customerID, Name: "Invomex"}

	unlinked := s.expenses.Add(&models.Expense{Company: "SGAC Platform", Month: "2025-10"})
	stale := s.expenses.Add(&models.Expense{Company: "sgac platform", CustomerID: "old-customer"})
	s.expenses.Add(&models.Expense{Company: "SGAC Platform", CustomerID: customerID})
	s.expenses.Add(&models.Expense{Company: "Otra Empresa"})

	report, err := s.service.RelinkExpenses(s.ctx, "sgac", "SGAC Platform", customer)
	s.Require().NoError(err)
	s.Equal(3, report.Matched)
	s.Equal(2, report.Relinked)
	s.Equal(1, report.AlreadyLinked)
	s.Equal(0, report.Errored)

	for _, id := range []string{unlinked, stale} {
		expense, err := s.expenses.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(customerID, expense.CustomerID)
		s.Equal("SGAC Platform", expense.CompanyNormal)
	}
	s.Equal(float64(2), promtest.ToFloat64(s.metrics.ExpensesRelinked))
}

func (s *BillingSuite) TestRelinkMatchesNormalizedCompany() {
	customer := &models.Customer{ID: "c-1", Name: "Invomex"}
	id := s.expenses.Add(&models.Expense{Company: "S.G.A.C.", CompanyNormal: "SGAC Platform"})

	report, err := s.service.RelinkExpenses(s.ctx, "sgac", "SGAC Platform", customer)
	s.Require().NoError(err)
	s.Equal(1, report.Relinked)

	expense, err := s.expenses.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("c-1", expense.CustomerID)
}

func (s *BillingSuite) TestRelinkRequiresKeyword() {
	_, err := s.service.RelinkExpenses(s.ctx, "", "x", &models.Customer{ID: "c"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
