// Package credstore holds the raw signing credential (certificate + private
// key) per tenant and environment. The relational certificate table carries
// metadata only; PEM material lives exclusively here.
package credstore

import (
	"context"

	id "fatoora/pkg/domain"
)

// Credential is a certificate and its matching private key.
type Credential struct {
	CertPEM []byte
	KeyPEM  []byte
}

// Store is the credential storage contract. Implementations must keep
// tenants and environments strictly isolated and must swap credentials
// atomically: a reader never observes a certificate from one credential
// paired with the key of another.
type Store interface {
	Put(ctx context.Context, tenantID id.TenantID, env id.Environment, cred Credential) error
	Get(ctx context.Context, tenantID id.TenantID, env id.Environment) (Credential, error)
	Delete(ctx context.Context, tenantID id.TenantID, env id.Environment) error
}
