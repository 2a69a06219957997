package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatoora/internal/tenant/models"
	"fatoora/internal/tenant/service"
	"fatoora/internal/tenant/store"
	"fatoora/internal/tenant/token"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

func newService(t *testing.T) (*service.Service, *token.Service) {
	t.Helper()
	issuer := token.NewService("test-signing-key-0123456789abcdef", "fatoora-test")
	return service.New(store.NewInMemory(), issuer), issuer
}

func TestCreateReturnsSecretOnce(t *testing.T) {
	svc, _ := newService(t)

	tenant, secret, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Equal(t, models.TenantStatusActive, tenant.Status)
	assert.NotEqual(t, secret, tenant.SecretHash, "only the hash is stored")
	assert.NotContains(t, tenant.SecretHash, secret)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)

	_, _, err = svc.Create(context.Background(), "acme trading llc", id.EnvironmentSandbox)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeConflict))
}

func TestCreateValidatesName(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Create(context.Background(), "   ", id.EnvironmentSandbox)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
}

func TestAuthenticateIssuesEnvironmentBoundToken(t *testing.T) {
	svc, issuer := newService(t)
	tenant, secret, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)

	tokenString, err := svc.Authenticate(context.Background(), tenant.ID, secret, id.EnvironmentProduction)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, id.EnvironmentProduction, claims.Environment)
}

func TestAuthenticateFallsBackToDefaultEnvironment(t *testing.T) {
	svc, issuer := newService(t)
	tenant, secret, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)

	tokenString, err := svc.Authenticate(context.Background(), tenant.ID, secret, "")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, id.EnvironmentSandbox, claims.Environment)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	svc, _ := newService(t)
	tenant, _, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tenant.ID, "wrong-secret", "")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func TestAuthenticateRejectsUnknownTenant(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Authenticate(context.Background(), id.TenantID(uuid.New()), "secret", "")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func TestDeactivatedTenantCannotAuthenticateOrResolve(t *testing.T) {
	svc, _ := newService(t)
	tenant, secret, err := svc.Create(context.Background(), "Acme Trading LLC", id.EnvironmentSandbox)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), tenant.ID))

	_, err = svc.Authenticate(context.Background(), tenant.ID, secret, "")
	assert.True(t, derrors.HasCode(err, derrors.CodeForbidden))

	err = svc.ResolveActive(context.Background(), tenant.ID)
	assert.True(t, derrors.HasCode(err, derrors.CodeForbidden))

	// Double deactivation is an invariant violation.
	err = svc.Deactivate(context.Background(), tenant.ID)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))

	// Reactivation restores access.
	require.NoError(t, svc.Reactivate(context.Background(), tenant.ID))
	require.NoError(t, svc.ResolveActive(context.Background(), tenant.ID))
	_, err = svc.Authenticate(context.Background(), tenant.ID, secret, "")
	require.NoError(t, err)
}

func TestResolveActiveUnknownTenant(t *testing.T) {
	svc, _ := newService(t)
	err := svc.ResolveActive(context.Background(), id.TenantID(uuid.New()))
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}
