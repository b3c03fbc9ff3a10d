package propagation

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hubops/internal/alias"
	"hubops/internal/audit"
	"hubops/internal/directory/models"
	"hubops/internal/directory/store/memory"
	"hubops/internal/platform/config"
	"hubops/internal/platform/metrics"
	"hubops/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	tenants     *memory.TenantStore
	memberships *memory.MembershipStore
	auditStore  *audit.MemoryStore
	metrics     *metrics.Metrics
	service     *Service
	ctx         context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.tenants = memory.NewTenantStore()
	s.memberships = memory.NewMembershipStore()
	s.auditStore = audit.NewMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.tenants, s.memberships,
		alias.NewClassifier(config.DefaultAliasSuffixes),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
		WithMetrics(s.metrics),
	)
	s.ctx = testutil.Context()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seedTenant(code string, members ...*models.Membership) string {
	tenantID := s.tenants.Add(&models.Tenant{Code: code, Name: code})
	for _, m := range members {
		_, err := s.memberships.Create(s.ctx, tenantID, m)
		s.Require().NoError(err)
	}
	return tenantID
}

func (s *ServiceSuite) TestPropagateTenant() {
	s.Run("copies canonical automations onto differing aliases", func() {
		tenantID := s.seedTenant("finsa",
			&models.Membership{Email: "owner@x.com", AutomationIDs: []string{"a", "b"}, AutomationFields: []string{"f1", "f2"}},
			&models.Membership{Email: "finsa-ai@x.com"},
			&models.Membership{Email: "finsa-gp@x.com", AutomationIDs: []string{"stale"}},
		)

		report, err := s.service.PropagateTenant(s.ctx, "finsa")
		s.Require().NoError(err)
		s.Equal(2, report.Updated)
		s.Equal(0, report.Skipped)
		s.Equal(0, report.Errored)
		s.Equal("owner@x.com", report.CanonicalEmail)

		for _, email := range []string{"finsa-ai@x.com", "finsa-gp@x.com"} {
			m, err := s.memberships.FindByEmail(s.ctx, tenantID, email)
			s.Require().NoError(err)
			s.True(models.SameAutomationSet([]string{"a", "b"}, m.AutomationIDs), email)
			s.Equal([]string{"f1", "f2"}, m.AutomationFields, email)
		}
	})

	s.Run("equal sets are skipped without a write", func() {
		tenantID := s.seedTenant("edc",
			&models.Membership{Email: "owner@x.com", AutomationIDs: []string{"a", "b"}},
			// same set, different order: must not be rewritten
			&models.Membership{Email: "edc-ra@x.com", AutomationIDs: []string{"b", "a"}},
		)

		before, err := s.memberships.FindByEmail(s.ctx, tenantID, "edc-ra@x.com")
		s.Require().NoError(err)

		report, err := s.service.PropagateTenant(s.ctx, "edc")
		s.Require().NoError(err)
		s.Equal(0, report.Updated)
		s.Equal(1, report.Skipped)

		after, err := s.memberships.FindByEmail(s.ctx, tenantID, "edc-ra@x.com")
		s.Require().NoError(err)
		s.Equal(before.UpdatedAt, after.UpdatedAt)
		s.Equal([]string{"b", "a"}, after.AutomationIDs)
	})

	s.Run("second run is idempotent", func() {
		s.seedTenant("tauro",
			&models.Membership{Email: "owner@x.com", AutomationIDs: []string{"a"}},
			&models.Membership{Email: "tauro-pz@x.com"},
		)

		first, err := s.service.PropagateTenant(s.ctx, "tauro")
		s.Require().NoError(err)
		s.Equal(1, first.Updated)

		second, err := s.service.PropagateTenant(s.ctx, "tauro")
		s.Require().NoError(err)
		s.Equal(0, second.Updated)
		s.Equal(1, second.Skipped)
	})

	s.Run("unknown tenant fails with ErrTenantNotFound", func() {
		_, err := s.service.PropagateTenant(s.ctx, "ghost")
		s.Require().ErrorIs(err, ErrTenantNotFound)
	})

	s.Run("tenant without automations fails with ErrNoCanonicalSource", func() {
		s.seedTenant("empty",
			&models.Membership{Email: "someone@x.com"},
			&models.Membership{Email: "empty-ai@x.com"},
		)
		report, err := s.service.PropagateTenant(s.ctx, "empty")
		s.Require().ErrorIs(err, ErrNoCanonicalSource)
		s.NotNil(report)
	})

	s.Run("emits audit events and counts metrics for each update", func() {
		s.seedTenant("gefe",
			&models.Membership{Email: "rodolfo@x.com", AutomationIDs: []string{"a"}},
			&models.Membership{Email: "gefe-ai@x.com"},
			&models.Membership{Email: "gefe-gp@x.com"},
		)

		before := promtest.ToFloat64(s.metrics.MembershipsUpdated)
		_, err := s.service.PropagateTenant(s.ctx, "gefe")
		s.Require().NoError(err)
		s.Equal(before+2, promtest.ToFloat64(s.metrics.MembershipsUpdated))

		events, err := s.auditStore.List(s.ctx)
		s.Require().NoError(err)
		var propagated int
		for _, e := range events {
			if e.Action == audit.ActionAutomationsPropagated && e.Tenant == "gefe" {
				propagated++
				s.Equal(testutil.FixedTime, e.Timestamp)
			}
		}
		s.Equal(2, propagated)
	})
}

// failingMembershipStore injects a write failure for one email to verify
// per-entity error isolation.
type failingMembershipStore struct {
	*memory.MembershipStore
	failID string
}

func (f *failingMembershipStore) SetAutomations(ctx context.Context, tenantID, membershipID string, ids, fields []string) error {
	if membershipID == f.failID {
		return errors.New("backend write rejected")
	}
	return f.MembershipStore.SetAutomations(ctx, tenantID, membershipID, ids, fields)
}

func TestWriteFailureDoesNotAbortSiblings(t *testing.T) {
	ctx := testutil.Context()
	tenants := memory.NewTenantStore()
	inner := memory.NewMembershipStore()
	tenantID := tenants.Add(&models.Tenant{Code: "finsa", Name: "Finsa"})

	_, err := inner.Create(ctx, tenantID, &models.Membership{Email: "owner@x.com", AutomationIDs: []string{"a"}})
	require.NoError(t, err)
	badID, err := inner.Create(ctx, tenantID, &models.Membership{Email: "finsa-ai@x.com"})
	require.NoError(t, err)
	_, err = inner.Create(ctx, tenantID, &models.Membership{Email: "finsa-gp@x.com"})
	require.NoError(t, err)

	store := &failingMembershipStore{MembershipStore: inner, failID: badID}
	service := New(tenants, store, alias.NewClassifier(config.DefaultAliasSuffixes))

	report, err := service.PropagateTenant(ctx, "finsa")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Errored)

	healthy, err := inner.FindByEmail(ctx, tenantID, "finsa-gp@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, healthy.AutomationIDs)
}

func TestPropagateAllIsolatesTenants(t *testing.T) {
	ctx := testutil.Context()
	tenants := memory.NewTenantStore()
	memberships := memory.NewMembershipStore()

	okID := tenants.Add(&models.Tenant{Code: "ok", Name: "OK"})
	_, err := memberships.Create(ctx, okID, &models.Membership{Email: "owner@x.com", AutomationIDs: []string{"a"}})
	require.NoError(t, err)
	_, err = memberships.Create(ctx, okID, &models.Membership{Email: "ok-ai@x.com"})
	require.NoError(t, err)

	emptyID := tenants.Add(&models.Tenant{Code: "empty", Name: "Empty"})
	_, err = memberships.Create(ctx, emptyID, &models.Membership{Email: "empty-ai@x.com"})
	require.NoError(t, err)

	service := New(tenants, memberships, alias.NewClassifier(config.DefaultAliasSuffixes))
	batch := service.PropagateAll(ctx, []string{"ghost", "empty", "ok"})

	assert.Equal(t, []string{"ok"}, batch.Succeeded)
	assert.ElementsMatch(t, []string{"ghost", "empty"}, batch.Skipped)
	assert.Empty(t, batch.Failed)
	assert.Equal(t, 1, batch.TotalUpdated())
}
