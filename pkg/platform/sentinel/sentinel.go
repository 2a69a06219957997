package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These describe factual resource states, not validation outcomes:
//   - ErrNotFound: row or credential does not exist
//   - ErrConflict: unique constraint hit (duplicate invoice number, second active cert)
//   - ErrExpired: onboarding session or certificate past its deadline
//   - ErrInvalidState: entity in the wrong status for the requested transition
//   - ErrUnavailable: backing service temporarily unreachable
//
// For input validation use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
