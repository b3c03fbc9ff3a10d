// Package audit captures what an administrative run changed. Every mutation
// a service performs is emitted as an Event; the command prints the trail at
// the end of the run alongside the counts summary.
package audit

import (
	"context"
	"sync"
	"time"

	"hubops/pkg/requestcontext"
)

// Actions emitted by the services.
const (
	ActionAutomationsPropagated = "membership.automations_propagated"
	ActionIdentityCreated       = "identity.created"
	ActionProfileCreated        = "profile.created"
	ActionMembershipCreated     = "membership.created"
	ActionClaimsSet             = "identity.claims_set"
	ActionPortalAccessSet       = "profile.portal_access_set"
	ActionExpenseRelinked       = "expense.relinked"
	ActionTeamMembersAdded      = "project.team_members_added"
)

// Event is emitted from domain logic to capture one mutation. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string
	Tenant    string
	Detail    string
}

// Store is the append-only sink behind a Publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher stamps and persists events. It is append-only and uses the store
// interface for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}

// MemoryStore keeps the trail for the lifetime of one run. Single-run
// commands have no need for durable audit storage.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}
