// Package backend dials the hosted document store and the authentication
// service from one service-account credential.
package backend

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"hubops/internal/platform/config"
	dErrors "hubops/pkg/domain-errors"
)

// Clients bundles the two backend handles every command wires its stores
// from. Close when the run is done.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

func Dial(ctx context.Context, cfg *config.Config) (*Clients, error) {
	creds := option.WithCredentialsFile(cfg.ServiceAccountPath)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, creds)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to initialize app")
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to initialize auth client")
	}

	store, err := firestore.NewClient(ctx, cfg.ProjectID, creds)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to initialize document store client")
	}

	return &Clients{Firestore: store, Auth: authClient}, nil
}

func (c *Clients) Close() error {
	return c.Firestore.Close()
}
