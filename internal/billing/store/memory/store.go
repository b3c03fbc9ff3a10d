// Package memory implements the billing stores against process memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hubops/internal/billing/models"
	"hubops/pkg/platform/sentinel"
)

type CustomerStore struct {
	mu        sync.RWMutex
	customers []*models.Customer
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{}
}

func (s *CustomerStore) FindByName(_ context.Context, name string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Name == name {
			found := *c
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *CustomerStore) List(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		found := *c
		out = append(out, &found)
	}
	return out, nil
}

func (s *CustomerStore) Create(_ context.Context, c *models.Customer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stored := *c
	s.customers = append(s.customers, &stored)
	return stored.ID, nil
}

type ExpenseStore struct {
	mu       sync.RWMutex
	expenses []*models.Expense
}

func NewExpenseStore() *ExpenseStore {
	return &ExpenseStore{}
}

// Add seeds an expense, generating an ID when absent.
func (s *ExpenseStore) Add(e *models.Expense) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	stored := *e
	s.expenses = append(s.expenses, &stored)
	return e.ID
}

func (s *ExpenseStore) List(_ context.Context) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		found := *e
		out = append(out, &found)
	}
	return out, nil
}

// SetCustomer links an expense to a customer and pins the normalized company
// name in the same write.
func (s *ExpenseStore) SetCustomer(_ context.Context, expenseID, customerID, companyNormal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == expenseID {
			e.CustomerID = customerID
			e.CompanyNormal = companyNormal
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *ExpenseStore) Get(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.expenses {
		if e.ID == expenseID {
			found := *e
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
