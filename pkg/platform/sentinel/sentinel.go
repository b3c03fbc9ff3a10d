package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about remote resources, not validation
// failures:
// - ErrNotFound: the record does not exist in the backend
// - ErrConflict: a record with the same key already exists
// - ErrUnavailable: the backend rejected or dropped the operation
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
