// Package memory implements the directory stores against process memory.
// The adapters mimic the wire boundary of the hosted document store: every
// read returns a copy, so callers never share state with the store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hubops/internal/directory/models"
	"hubops/pkg/platform/sentinel"
	"hubops/pkg/requestcontext"
)

// TenantStore keeps tenant partitions in insertion order, which makes
// first-match-wins lookups deterministic in tests.
type TenantStore struct {
	mu      sync.RWMutex
	tenants []*models.Tenant
}

func NewTenantStore() *TenantStore {
	return &TenantStore{}
}

// Add seeds a tenant, generating an ID when absent, and returns the ID.
func (s *TenantStore) Add(tenant *models.Tenant) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	stored := *tenant
	s.tenants = append(s.tenants, &stored)
	return tenant.ID
}

func (s *TenantStore) FindByCode(_ context.Context, code string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tenant := range s.tenants {
		if tenant.Code == code {
			found := *tenant
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// MembershipStore keeps per-tenant membership collections in insertion
// order; the scan order of ListByTenant is the iteration order selectors
// see.
type MembershipStore struct {
	mu          sync.RWMutex
	memberships map[string][]*models.Membership
}

func NewMembershipStore() *MembershipStore {
	return &MembershipStore{memberships: make(map[string][]*models.Membership)}
}

func (s *MembershipStore) Create(ctx context.Context, tenantID string, m *models.Membership) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := requestcontext.Now(ctx)
	stored := *m
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.AutomationIDs = append([]string(nil), m.AutomationIDs...)
	stored.AutomationFields = append([]string(nil), m.AutomationFields...)
	s.memberships[tenantID] = append(s.memberships[tenantID], &stored)
	return stored.ID, nil
}

func (s *MembershipStore) FindByEmail(_ context.Context, tenantID, email string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships[tenantID] {
		if m.Email == email {
			return copyMembership(m), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MembershipStore) ListByTenant(_ context.Context, tenantID string) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.memberships[tenantID]
	out := make([]*models.Membership, 0, len(list))
	for _, m := range list {
		out = append(out, copyMembership(m))
	}
	return out, nil
}

// SetAutomations overwrites the automation-id list and, when fields is
// non-nil, the automation-field list. A nil fields leaves the stored field
// list untouched.
func (s *MembershipStore) SetAutomations(ctx context.Context, tenantID, membershipID string, ids, fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships[tenantID] {
		if m.ID == membershipID {
			m.AutomationIDs = append([]string(nil), ids...)
			if fields != nil {
				m.AutomationFields = append([]string(nil), fields...)
			}
			m.UpdatedAt = requestcontext.Now(ctx)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// ProfileStore is the canonical user directory.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles []*models.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := requestcontext.Now(ctx)
	stored := *p
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.profiles = append(s.profiles, &stored)
	return stored.ID, nil
}

func (s *ProfileStore) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.Email == email {
			found := *p
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *ProfileStore) SetPortalAccess(ctx context.Context, profileID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ID == profileID {
			p.PortalAdminAccess = enabled
			p.UpdatedAt = requestcontext.Now(ctx)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *ProfileStore) ListPortalFlagged(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.PortalAdminAccess {
			found := *p
			out = append(out, &found)
		}
	}
	return out, nil
}

func copyMembership(m *models.Membership) *models.Membership {
	out := *m
	out.AutomationIDs = append([]string(nil), m.AutomationIDs...)
	out.AutomationFields = append([]string(nil), m.AutomationFields...)
	return &out
}
