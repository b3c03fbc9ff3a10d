// Package memory implements the project store against process memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hubops/internal/project/models"
	"hubops/pkg/platform/sentinel"
	"hubops/pkg/requestcontext"
)

type ProjectStore struct {
	mu       sync.RWMutex
	projects []*models.Project
}

func New() *ProjectStore {
	return &ProjectStore{}
}

// Add seeds a project, generating an ID when absent.
func (s *ProjectStore) Add(p *models.Project) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := *p
	stored.TeamMembers = append([]string(nil), p.TeamMembers...)
	s.projects = append(s.projects, &stored)
	return p.ID
}

func (s *ProjectStore) List(_ context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		found := *p
		found.TeamMembers = append([]string(nil), p.TeamMembers...)
		out = append(out, &found)
	}
	return out, nil
}

// SetTeamMembers overwrites the member list whole and stamps UpdatedAt.
func (s *ProjectStore) SetTeamMembers(ctx context.Context, projectID string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == projectID {
			p.TeamMembers = append([]string(nil), members...)
			p.UpdatedAt = requestcontext.Now(ctx)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *ProjectStore) Get(_ context.Context, projectID string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == projectID {
			found := *p
			found.TeamMembers = append([]string(nil), p.TeamMembers...)
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
