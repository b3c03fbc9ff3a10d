// Package memory implements the Identity Directory against process memory,
// for tests and dry runs. Reads return copies so callers can merge claims
// without mutating store state.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hubops/internal/identity/models"
	"hubops/pkg/platform/sentinel"
)

type Directory struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	byEmail map[string]string
}

func New() *Directory {
	return &Directory{
		records: make(map[string]*models.Record),
		byEmail: make(map[string]string),
	}
}

func (d *Directory) GetByEmail(_ context.Context, email string) (*models.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	uid, ok := d.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(d.records[uid]), nil
}

func (d *Directory) Create(_ context.Context, r *models.Record) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[r.Email]; exists {
		return "", sentinel.ErrConflict
	}
	stored := copyRecord(r)
	if stored.UID == "" {
		stored.UID = uuid.NewString()
	}
	d.records[stored.UID] = stored
	d.byEmail[stored.Email] = stored.UID
	return stored.UID, nil
}

// SetClaims replaces the whole claims map, matching the backend semantics.
// Merging with existing claims is the caller's job.
func (d *Directory) SetClaims(_ context.Context, uid string, claims map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.records[uid]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Claims = copyClaims(claims)
	return nil
}

func copyRecord(r *models.Record) *models.Record {
	out := *r
	out.Claims = copyClaims(r.Claims)
	return &out
}

func copyClaims(claims map[string]any) map[string]any {
	if claims == nil {
		return nil
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
