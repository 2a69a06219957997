package models

import (
	"strings"
	"time"

	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// TenantStatus is the lifecycle state of a tenant account.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo reports whether the status change is allowed. The only
// legal moves are active to inactive and back.
func (s TenantStatus) CanTransitionTo(next TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return next == TenantStatusInactive
	case TenantStatusInactive:
		return next == TenantStatusActive
	default:
		return false
	}
}

// Tenant is a taxpayer organization enrolled with the engine.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - SecretHash holds a bcrypt hash, never the plaintext secret
//   - DefaultEnvironment is the environment used when a token request does
//     not name one
//
// Deactivating a tenant is an immediate boundary: every request carrying its
// credentials fails at the auth middleware, regardless of token validity.
type Tenant struct {
	ID                 id.TenantID    `json:"id"`
	Name               string         `json:"name"`
	SecretHash         string         `json:"-"`
	DefaultEnvironment id.Environment `json:"default_environment"`
	Status             TenantStatus   `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

func (t *Tenant) CanDeactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusInactive) {
		return derrors.New(derrors.CodeInvariantViolation, "tenant is already inactive")
	}
	return nil
}

func (t *Tenant) ApplyDeactivation(now time.Time) {
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
}

func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return derrors.New(derrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}

// NewTenant builds an active tenant, validating invariants.
func NewTenant(tenantID id.TenantID, name, secretHash string, defaultEnv id.Environment, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "tenant name must not be empty")
	}
	if len(name) > 128 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "tenant name must be at most 128 characters")
	}
	if secretHash == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "tenant secret hash must not be empty")
	}
	if !defaultEnv.Valid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "default environment is invalid")
	}
	return &Tenant{
		ID:                 tenantID,
		Name:               name,
		SecretHash:         secretHash,
		DefaultEnvironment: defaultEnv,
		Status:             TenantStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
