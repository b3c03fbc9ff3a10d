package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters incremented by successful mutations.
// Services treat the struct as optional; a nil Metrics disables collection.
type Metrics struct {
	MembershipsUpdated prometheus.Counter
	UsersProvisioned   prometheus.Counter
	ClaimsSet          prometheus.Counter
	ExpensesRelinked   prometheus.Counter
	TeamMembersAdded   prometheus.Counter
}

// New creates and registers all counters on the given registerer. Commands
// pass prometheus.DefaultRegisterer; tests pass a private registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembershipsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hubops_memberships_updated_total",
			Help: "Total number of tenant memberships whose automation lists were overwritten",
		}),
		UsersProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "hubops_users_provisioned_total",
			Help: "Total number of principals fully provisioned across the three backends",
		}),
		ClaimsSet: factory.NewCounter(prometheus.CounterOpts{
			Name: "hubops_claims_set_total",
			Help: "Total number of identity records whose authorization claims were written",
		}),
		ExpensesRelinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "hubops_expenses_relinked_total",
			Help: "Total number of expense records re-linked to a customer",
		}),
		TeamMembersAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "hubops_team_members_added_total",
			Help: "Total number of member entries added to project teams",
		}),
	}
}
