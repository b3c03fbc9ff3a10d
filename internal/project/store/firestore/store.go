// Package firestore adapts the hosted document store to the project store
// port. Projects live in the top-level projects collection.
package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"hubops/internal/project/models"
	dErrors "hubops/pkg/domain-errors"
)

const projectCollection = "projects"

type projectDoc struct {
	Name        string   `firestore:"name"`
	Status      string   `firestore:"status"`
	Archived    bool     `firestore:"archived"`
	TeamMembers []string `firestore:"teamMembers"`
}

type ProjectStore struct {
	client *firestore.Client
}

func New(client *firestore.Client) *ProjectStore {
	return &ProjectStore{client: client}
}

func (s *ProjectStore) List(ctx context.Context) ([]*models.Project, error) {
	iter := s.client.Collection(projectCollection).Documents(ctx)
	defer iter.Stop()

	var out []*models.Project
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "project list failed")
		}
		var doc projectDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed project document")
		}
		out = append(out, &models.Project{
			ID:          snap.Ref.ID,
			Name:        doc.Name,
			Status:      doc.Status,
			Archived:    doc.Archived,
			TeamMembers: doc.TeamMembers,
			UpdatedAt:   readTime(snap.Data(), "updatedAt"),
		})
	}
}

func (s *ProjectStore) SetTeamMembers(ctx context.Context, projectID string, members []string) error {
	_, err := s.client.Collection(projectCollection).Doc(projectID).Update(ctx, []firestore.Update{
		{Path: "teamMembers", Value: append([]string{}, members...)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "project update failed")
	}
	return nil
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
