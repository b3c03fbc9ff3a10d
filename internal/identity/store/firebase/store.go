// Package firebase adapts the authentication service to the Identity
// Directory port.
package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"hubops/internal/identity/models"
	dErrors "hubops/pkg/domain-errors"
	"hubops/pkg/platform/sentinel"
)

type Directory struct {
	client *auth.Client
}

func New(client *auth.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*models.Record, error) {
	user, err := d.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	return recordFrom(user), nil
}

func (d *Directory) Create(ctx context.Context, r *models.Record) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(r.Email).
		EmailVerified(r.Verified)
	if r.DisplayName != "" {
		params = params.DisplayName(r.DisplayName)
	}

	user, err := d.client.CreateUser(ctx, params)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "identity create failed")
	}
	if len(r.Claims) > 0 {
		if err := d.client.SetCustomUserClaims(ctx, user.UID, r.Claims); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to set claims on new identity")
		}
	}
	return user.UID, nil
}

// SetClaims replaces the whole claims map server-side. Callers merge first.
func (d *Directory) SetClaims(ctx context.Context, uid string, claims map[string]any) error {
	if err := d.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		if auth.IsUserNotFound(err) {
			return sentinel.ErrNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set claims")
	}
	return nil
}

func recordFrom(user *auth.UserRecord) *models.Record {
	return &models.Record{
		UID:         user.UID,
		Email:       user.Email,
		Verified:    user.EmailVerified,
		DisplayName: user.DisplayName,
		Claims:      user.CustomClaims,
	}
}
