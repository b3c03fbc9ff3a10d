// Package firestore adapts the hosted document store to the billing ports.
// Customers live in the clientes collection, expenses in egresos.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"hubops/internal/billing/models"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/platform/sentinel"
)

const (
	customerCollection = "clientes"
	expenseCollection  = "egresos"
)

type customerDoc struct {
	Name           string `firestore:"empresa"`
	LegalName      string `firestore:"razonSocial"`
	TaxID          string `firestore:"rfc"`
	BillingContact string `firestore:"personaCobranza"`
	BillingEmail   string `firestore:"correoCobranza"`
}

type expenseDoc struct {
	Company       string `firestore:"empresa"`
	CompanyNormal string `firestore:"empresaNormalizada"`
	Category      string `firestore:"categoria"`
	Kind          string `firestore:"tipoEgreso"`
	CustomerID    string `firestore:"clienteId"`
	Concept       string `firestore:"concepto"`
	Month         string `firestore:"mes"`
}

type CustomerStore struct {
	client *firestore.Client
}

func NewCustomerStore(client *firestore.Client) *CustomerStore {
	return &CustomerStore{client: client}
}

func (s *CustomerStore) FindByName(ctx context.Context, name string) (*models.Customer, error) {
	iter := s.client.Collection(customerCollection).Where("empresa", "==", name).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "customer query failed")
	}
	return customerFrom(snap)
}

func (s *CustomerStore) List(ctx context.Context) ([]*models.Customer, error) {
	iter := s.client.Collection(customerCollection).Documents(ctx)
	defer iter.Stop()

	var out []*models.Customer
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "customer list failed")
		}
		c, err := customerFrom(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}

func (s *CustomerStore) Create(ctx context.Context, c *models.Customer) (string, error) {
	ref := s.client.Collection(customerCollection).NewDoc()
	data := map[string]any{
		"empresa":         c.Name,
		"razonSocial":     c.LegalName,
		"rfc":             c.TaxID,
		"personaCobranza": c.BillingContact,
		"correoCobranza":  c.BillingEmail,
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "customer create failed")
	}
	return ref.ID, nil
}

type ExpenseStore struct {
	client *firestore.Client
}

func NewExpenseStore(client *firestore.Client) *ExpenseStore {
	return &ExpenseStore{client: client}
}

func (s *ExpenseStore) List(ctx context.Context) ([]*models.Expense, error) {
	iter := s.client.Collection(expenseCollection).Documents(ctx)
	defer iter.Stop()

	var out []*models.Expense
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "expense list failed")
		}
		var doc expenseDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed expense document")
		}
		out = append(out, &models.Expense{
			ID:            snap.Ref.ID,
			Company:       doc.Company,
			CompanyNormal: doc.CompanyNormal,
			Category:      doc.Category,
			Kind:          doc.Kind,
			CustomerID:    doc.CustomerID,
			Concept:       doc.Concept,
			Month:         doc.Month,
		})
	}
}

func (s *ExpenseStore) SetCustomer(ctx context.Context, expenseID, customerID, companyNormal string) error {
	_, err := s.client.Collection(expenseCollection).Doc(expenseID).Update(ctx, []firestore.Update{
		{Path: "clienteId", Value: customerID},
		{Path: "empresaNormalizada", Value: companyNormal},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "expense update failed")
	}
	return nil
}

func customerFrom(snap *firestore.DocumentSnapshot) (*models.Customer, error) {
	var doc customerDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed customer document")
	}
	return &models.Customer{
		ID:             snap.Ref.ID,
		Name:           doc.Name,
		LegalName:      doc.LegalName,
		TaxID:          doc.TaxID,
		BillingContact: doc.BillingContact,
		BillingEmail:   doc.BillingEmail,
	}, nil
}
