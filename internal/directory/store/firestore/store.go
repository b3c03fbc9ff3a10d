// Package firestore adapts the hosted document store to the directory
// ports. Tenants live in the platforms collection; memberships in each
// platform's users subcollection; profiles in the users subcollection of the
// fixed user-directory tenant.
package firestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"hubops/internal/directory/models"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/platform/sentinel"
)

const (
	tenantCollection = "platforms"
	memberCollection = "users"
)

type tenantDoc struct {
	Code string `firestore:"code"`
	Name string `firestore:"name"`
}

type membershipDoc struct {
	Email            string   `firestore:"email"`
	Name             string   `firestore:"name"`
	Active           bool     `firestore:"isActive"`
	ProfileID        string   `firestore:"auraUserId"`
	AutomationIDs    []string `firestore:"allowedAutomationsIds"`
	AutomationFields []string `firestore:"allowedAutomationsFields"`
}

type profileDoc struct {
	Email             string `firestore:"email"`
	Active            bool   `firestore:"isActive"`
	FirstName         string `firestore:"firstName"`
	LastName          string `firestore:"lastName"`
	IdentityUID       string `firestore:"visionariesFirebaseUserId"`
	AliasOf           string `firestore:"aliasOf"`
	CompanyName       string `firestore:"companyName"`
	PortalAdminAccess bool   `firestore:"hasPortalAdminAccess"`
}

type TenantStore struct {
	client *firestore.Client
}

func NewTenantStore(client *firestore.Client) *TenantStore {
	return &TenantStore{client: client}
}

func (s *TenantStore) FindByCode(ctx context.Context, code string) (*models.Tenant, error) {
	iter := s.client.Collection(tenantCollection).Where("code", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tenant query failed")
	}

	var doc tenantDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed tenant document")
	}
	return &models.Tenant{ID: snap.Ref.ID, Code: doc.Code, Name: doc.Name}, nil
}

type MembershipStore struct {
	client *firestore.Client
}

func NewMembershipStore(client *firestore.Client) *MembershipStore {
	return &MembershipStore{client: client}
}

func (s *MembershipStore) members(tenantID string) *firestore.CollectionRef {
	return s.client.Collection(tenantCollection).Doc(tenantID).Collection(memberCollection)
}

func (s *MembershipStore) Create(ctx context.Context, tenantID string, m *models.Membership) (string, error) {
	data := map[string]any{
		"email":                 m.Email,
		"name":                  m.Name,
		"isActive":              m.Active,
		"auraUserId":            m.ProfileID,
		"allowedAutomationsIds": append([]string{}, m.AutomationIDs...),
		"createdAt":             firestore.ServerTimestamp,
		"updatedAt":             firestore.ServerTimestamp,
	}
	if m.AutomationFields != nil {
		data["allowedAutomationsFields"] = append([]string{}, m.AutomationFields...)
	}

	ref := s.members(tenantID).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "membership create failed")
	}
	return ref.ID, nil
}

func (s *MembershipStore) FindByEmail(ctx context.Context, tenantID, email string) (*models.Membership, error) {
	iter := s.members(tenantID).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "membership query failed")
	}
	return membershipFrom(snap)
}

func (s *MembershipStore) ListByTenant(ctx context.Context, tenantID string) ([]*models.Membership, error) {
	iter := s.members(tenantID).Documents(ctx)
	defer iter.Stop()

	var out []*models.Membership
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "membership list failed")
		}
		m, err := membershipFrom(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
}

// SetAutomations overwrites the automation-id list whole. A nil fields list
// leaves the stored field list untouched.
func (s *MembershipStore) SetAutomations(ctx context.Context, tenantID, membershipID string, ids, fields []string) error {
	updates := []firestore.Update{
		{Path: "allowedAutomationsIds", Value: append([]string{}, ids...)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if fields != nil {
		updates = append(updates, firestore.Update{
			Path: "allowedAutomationsFields", Value: append([]string{}, fields...),
		})
	}

	if _, err := s.members(tenantID).Doc(membershipID).Update(ctx, updates); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "membership update failed")
	}
	return nil
}

// ProfileStore reads and writes the users subcollection of the fixed
// user-directory tenant, resolving and caching that tenant's document id on
// first use.
type ProfileStore struct {
	client     *firestore.Client
	tenantCode string

	mu         sync.Mutex
	platformID string
}

func NewProfileStore(client *firestore.Client, tenantCode string) *ProfileStore {
	return &ProfileStore{client: client, tenantCode: tenantCode}
}

func (s *ProfileStore) profiles(ctx context.Context) (*firestore.CollectionRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platformID == "" {
		iter := s.client.Collection(tenantCollection).Where("code", "==", s.tenantCode).Limit(1).Documents(ctx)
		defer iter.Stop()

		snap, err := iter.Next()
		if err == iterator.Done {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("user directory tenant %q not found", s.tenantCode))
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "user directory tenant query failed")
		}
		s.platformID = snap.Ref.ID
	}
	return s.client.Collection(tenantCollection).Doc(s.platformID).Collection(memberCollection), nil
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return nil, err
	}

	iter := profiles.Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile query failed")
	}
	return profileFrom(snap)
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) (string, error) {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return "", err
	}

	data := map[string]any{
		"email":                     p.Email,
		"isActive":                  p.Active,
		"providerId":                p.Email,
		"visionariesFirebaseUserId": p.IdentityUID,
		"onboardedAt":               "",
		"firstName":                 p.FirstName,
		"lastName":                  p.LastName,
		"companyName":               p.CompanyName,
		"hasPortalAdminAccess":      p.PortalAdminAccess,
		"createdAt":                 firestore.ServerTimestamp,
		"updatedAt":                 firestore.ServerTimestamp,
	}
	if p.AliasOf != "" {
		data["aliasOf"] = p.AliasOf
	}

	ref := profiles.NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "profile create failed")
	}
	return ref.ID, nil
}

func (s *ProfileStore) SetPortalAccess(ctx context.Context, profileID string, enabled bool) error {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return err
	}

	_, err = profiles.Doc(profileID).Update(ctx, []firestore.Update{
		{Path: "hasPortalAdminAccess", Value: enabled},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile update failed")
	}
	return nil
}

func (s *ProfileStore) ListPortalFlagged(ctx context.Context) ([]*models.Profile, error) {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return nil, err
	}

	iter := profiles.Where("hasPortalAdminAccess", "==", true).Documents(ctx)
	defer iter.Stop()

	var out []*models.Profile
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile list failed")
		}
		p, err := profileFrom(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

func membershipFrom(snap *firestore.DocumentSnapshot) (*models.Membership, error) {
	var doc membershipDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed membership document")
	}
	data := snap.Data()
	return &models.Membership{
		ID:               snap.Ref.ID,
		Email:            doc.Email,
		Name:             doc.Name,
		Active:           doc.Active,
		ProfileID:        doc.ProfileID,
		AutomationIDs:    doc.AutomationIDs,
		AutomationFields: doc.AutomationFields,
		CreatedAt:        readTime(data, "createdAt"),
		UpdatedAt:        readTime(data, "updatedAt"),
	}, nil
}

func profileFrom(snap *firestore.DocumentSnapshot) (*models.Profile, error) {
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed profile document")
	}
	data := snap.Data()
	return &models.Profile{
		ID:                snap.Ref.ID,
		Email:             doc.Email,
		Active:            doc.Active,
		FirstName:         doc.FirstName,
		LastName:          doc.LastName,
		IdentityUID:       doc.IdentityUID,
		AliasOf:           doc.AliasOf,
		CompanyName:       doc.CompanyName,
		PortalAdminAccess: doc.PortalAdminAccess,
		CreatedAt:         readTime(data, "createdAt"),
		UpdatedAt:         readTime(data, "updatedAt"),
	}, nil
}

// readTime tolerates the two timestamp encodings found in the collections:
// native timestamps and RFC3339 strings written by older tooling.
func readTime(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
