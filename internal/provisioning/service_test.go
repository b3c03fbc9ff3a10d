package provisioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"hubops/internal/alias"
	dirmodels "hubops/internal/directory/models"
	dirmemory "hubops/internal/directory/store/memory"
	idmodels "hubops/internal/identity/models"
	idmemory "hubops/internal/identity/store/memory"
	"hubops/internal/platform/config"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/testutil"
)

type EnsureUserSuite struct {
	suite.Suite
	identity    *idmemory.Directory
	tenants     *dirmemory.TenantStore
	memberships *dirmemory.MembershipStore
	profiles    *dirmemory.ProfileStore
	service     *Service
	ctx         context.Context
	tenantID    string
}

func (s *EnsureUserSuite) SetupTest() {
	s.identity = idmemory.New()
	s.tenants = dirmemory.NewTenantStore()
	s.memberships = dirmemory.NewMembershipStore()
	s.profiles = dirmemory.NewProfileStore()
	s.service = New(s.identity, s.tenants, s.memberships, s.profiles,
		alias.NewClassifier(config.DefaultAliasSuffixes))
	s.ctx = testutil.Context()
	s.tenantID = s.tenants.Add(&dirmodels.Tenant{Code: "sgac", Name: "SGAC"})
}

func TestEnsureUserSuite(t *testing.T) {
	suite.Run(t, new(EnsureUserSuite))
}

func (s *EnsureUserSuite) TestCreatesAllThreeRecords() {
	result, err := s.service.EnsureUser(s.ctx, Request{
		Email:       "sgac-ai@example.com",
		DisplayName: "SGAC AI",
		TenantCode:  "sgac",
	})
	s.Require().NoError(err)
	s.True(result.IdentityCreated)
	s.True(result.ProfileCreated)
	s.True(result.MembershipCreated)

	record, err := s.identity.GetByEmail(s.ctx, "sgac-ai@example.com")
	s.Require().NoError(err)
	s.True(record.Verified)
	s.Equal(result.IdentityUID, record.UID)

	profile, err := s.profiles.FindByEmail(s.ctx, "sgac-ai@example.com")
	s.Require().NoError(err)
	s.Equal("SGAC", profile.FirstName)
	s.Equal("AI", profile.LastName)
	s.Equal(result.IdentityUID, profile.IdentityUID)
	s.True(profile.Active)

	membership, err := s.memberships.FindByEmail(s.ctx, s.tenantID, "sgac-ai@example.com")
	s.Require().NoError(err)
	s.Equal(result.ProfileID, membership.ProfileID)
	s.True(membership.Active)
}

func (s *EnsureUserSuite) TestAliasProfileKeepsBackReference() {
	_, err := s.service.EnsureUser(s.ctx, Request{
		Email:      "sgac-pz@example.com",
		TenantCode: "sgac",
	})
	s.Require().NoError(err)

	profile, err := s.profiles.FindByEmail(s.ctx, "sgac-pz@example.com")
	s.Require().NoError(err)
	s.Equal("sgac@example.com", profile.AliasOf)

	_, err = s.service.EnsureUser(s.ctx, Request{
		Email:      "directo@example.com",
		TenantCode: "sgac",
	})
	s.Require().NoError(err)

	direct, err := s.profiles.FindByEmail(s.ctx, "directo@example.com")
	s.Require().NoError(err)
	s.Empty(direct.AliasOf)
}

func (s *EnsureUserSuite) TestDoubleRunCreatesNothingTwice() {
	req := Request{Email: "sgac-gp@example.com", DisplayName: "SGAC GP", TenantCode: "sgac"}

	first, err := s.service.EnsureUser(s.ctx, req)
	s.Require().NoError(err)

	second, err := s.service.EnsureUser(s.ctx, req)
	s.Require().NoError(err)
	s.False(second.IdentityCreated)
	s.False(second.ProfileCreated)
	s.False(second.MembershipCreated)
	s.Equal(first.IdentityUID, second.IdentityUID)
	s.Equal(first.ProfileID, second.ProfileID)
	s.Equal(first.MembershipID, second.MembershipID)

	members, err := s.memberships.ListByTenant(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *EnsureUserSuite) TestResumesPartialState() {
	// A prior run got as far as the identity record and the profile.
	uid, err := s.identity.Create(s.ctx, &idmodels.Record{Email: "partial@example.com", Verified: true})
	s.Require().NoError(err)
	profileID, err := s.profiles.Create(s.ctx, &dirmodels.Profile{
		Email: "partial@example.com", Active: true, IdentityUID: uid,
	})
	s.Require().NoError(err)

	result, err := s.service.EnsureUser(s.ctx, Request{
		Email: "partial@example.com", DisplayName: "Partial User", TenantCode: "sgac",
	})
	s.Require().NoError(err)
	s.False(result.IdentityCreated)
	s.False(result.ProfileCreated)
	s.True(result.MembershipCreated)
	s.Equal(uid, result.IdentityUID)
	s.Equal(profileID, result.ProfileID)
}

func (s *EnsureUserSuite) TestSeedsAutomationsFromCanonicalSource() {
	_, err := s.memberships.Create(s.ctx, s.tenantID, &dirmodels.Membership{
		Email:            "owner@example.com",
		AutomationIDs:    []string{"a", "b", "c"},
		AutomationFields: []string{"f1"},
	})
	s.Require().NoError(err)

	result, err := s.service.EnsureUser(s.ctx, Request{
		Email: "sgac-ra@example.com", DisplayName: "SGAC RA", TenantCode: "sgac",
	})
	s.Require().NoError(err)
	s.Equal(3, result.SeededAutomations)

	membership, err := s.memberships.FindByEmail(s.ctx, s.tenantID, "sgac-ra@example.com")
	s.Require().NoError(err)
	s.True(dirmodels.SameAutomationSet([]string{"a", "b", "c"}, membership.AutomationIDs))
	s.Equal([]string{"f1"}, membership.AutomationFields)
}

func (s *EnsureUserSuite) TestMissingCanonicalSource() {
	s.Run("creates membership with empty list by default", func() {
		result, err := s.service.EnsureUser(s.ctx, Request{
			Email: "sgac-pz@example.com", DisplayName: "SGAC PZ", TenantCode: "sgac",
		})
		s.Require().NoError(err)
		s.True(result.MembershipCreated)
		s.Zero(result.SeededAutomations)
	})

	s.Run("fails when a canonical source is required", func() {
		strict := New(s.identity, s.tenants, s.memberships, s.profiles,
			alias.NewClassifier(config.DefaultAliasSuffixes),
			WithRequireCanonicalSource(true))

		_, err := strict.EnsureUser(s.ctx, Request{
			Email: "strict@example.com", DisplayName: "Strict", TenantCode: "sgac",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		// The earlier steps' side effects stay in place for a later re-run.
		_, err = s.identity.GetByEmail(s.ctx, "strict@example.com")
		s.Require().NoError(err)
	})
}

func (s *EnsureUserSuite) TestValidation() {
	s.Run("rejects malformed email", func() {
		_, err := s.service.EnsureUser(s.ctx, Request{Email: "not-an-email", TenantCode: "sgac"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects empty tenant code", func() {
		_, err := s.service.EnsureUser(s.ctx, Request{Email: "a@x.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown tenant is a not-found error", func() {
		_, err := s.service.EnsureUser(s.ctx, Request{Email: "a@x.com", TenantCode: "ghost"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EnsureUserSuite) TestEmptyDisplayNameLeavesNamesEmpty() {
	_, err := s.service.EnsureUser(s.ctx, Request{Email: "noname@example.com", TenantCode: "sgac"})
	s.Require().NoError(err)

	profile, err := s.profiles.FindByEmail(s.ctx, "noname@example.com")
	s.Require().NoError(err)
	s.Empty(profile.FirstName)
	s.Empty(profile.LastName)
}
