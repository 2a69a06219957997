package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatoora/internal/audit"
	auditstore "fatoora/internal/audit/store"
	"fatoora/internal/certificate/credstore"
	"fatoora/internal/certificate/models"
	"fatoora/internal/certificate/service"
	"fatoora/internal/certificate/store"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
	"fatoora/pkg/testutil/certtest"
)

func newService(t *testing.T) (*service.Service, *credstore.InMemory, *store.InMemory, *auditstore.InMemory) {
	t.Helper()
	creds := credstore.NewInMemory()
	metadata := store.NewInMemory()
	auditSt := auditstore.NewInMemory()
	svc := service.New(creds, metadata, service.WithAuditPublisher(audit.NewPublisher(auditSt)))
	return svc, creds, metadata, auditSt
}

func TestUploadActivatesCertificate(t *testing.T) {
	svc, creds, metadata, auditSt := newService(t)
	tenant := id.TenantID(uuid.New())
	cred := certtest.NewCredential(t, "upload-test")

	cert, err := svc.Upload(context.Background(), tenant, id.EnvironmentSandbox, cred.CertPEM, cred.KeyPEM)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusActive, cert.Status)
	assert.Equal(t, tenant, cert.TenantID)
	assert.NotEmpty(t, cert.SerialNumber)

	stored, err := creds.Get(context.Background(), tenant, id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, cred.CertPEM, stored.CertPEM)

	active, err := metadata.FindActive(context.Background(), tenant, id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, active.ID)

	events := auditSt.All()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCertificateActivated, events[0].Action)
}

func TestUploadRejectsMismatchedKey(t *testing.T) {
	svc, creds, _, _ := newService(t)
	tenant := id.TenantID(uuid.New())
	certCred := certtest.NewCredential(t, "cert-holder")
	otherCred := certtest.NewCredential(t, "key-holder")

	_, err := svc.Upload(context.Background(), tenant, id.EnvironmentSandbox, certCred.CertPEM, otherCred.KeyPEM)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))

	_, err = creds.Get(context.Background(), tenant, id.EnvironmentSandbox)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUploadRejectsExpiredCertificate(t *testing.T) {
	svc, _, _, _ := newService(t)
	expired := certtest.NewExpiredCredential(t, "expired")

	_, err := svc.Upload(context.Background(), id.TenantID(uuid.New()), id.EnvironmentProduction, expired.CertPEM, expired.KeyPEM)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
}

func TestUploadReplacesPreviousCertificate(t *testing.T) {
	svc, creds, metadata, _ := newService(t)
	tenant := id.TenantID(uuid.New())

	first := certtest.NewCredential(t, "first")
	firstCert, err := svc.Upload(context.Background(), tenant, id.EnvironmentProduction, first.CertPEM, first.KeyPEM)
	require.NoError(t, err)

	second := certtest.NewCredential(t, "second")
	secondCert, err := svc.Upload(context.Background(), tenant, id.EnvironmentProduction, second.CertPEM, second.KeyPEM)
	require.NoError(t, err)

	active, err := metadata.FindActive(context.Background(), tenant, id.EnvironmentProduction)
	require.NoError(t, err)
	assert.Equal(t, secondCert.ID, active.ID)

	all, err := metadata.ListByTenant(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, c := range all {
		if c.ID == firstCert.ID {
			assert.Equal(t, models.CertificateStatusRevoked, c.Status)
		}
	}

	stored, err := creds.Get(context.Background(), tenant, id.EnvironmentProduction)
	require.NoError(t, err)
	assert.Equal(t, second.CertPEM, stored.CertPEM)
}

type failingSwapStore struct {
	*store.InMemory
}

func (f *failingSwapStore) ActivateSwap(context.Context, *models.Certificate) error {
	return errors.New("swap failed")
}

func TestUploadRestoresCredentialWhenSwapFails(t *testing.T) {
	creds := credstore.NewInMemory()
	tenant := id.TenantID(uuid.New())

	previous := certtest.NewCredential(t, "previous")
	require.NoError(t, creds.Put(context.Background(), tenant, id.EnvironmentSandbox, credstore.Credential{
		CertPEM: previous.CertPEM,
		KeyPEM:  previous.KeyPEM,
	}))

	svc := service.New(creds, &failingSwapStore{store.NewInMemory()})
	next := certtest.NewCredential(t, "next")
	_, err := svc.Upload(context.Background(), tenant, id.EnvironmentSandbox, next.CertPEM, next.KeyPEM)
	require.Error(t, err)

	stored, err := creds.Get(context.Background(), tenant, id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, previous.CertPEM, stored.CertPEM, "previous credential restored after failed swap")
}

func TestUploadRemovesCredentialWhenSwapFailsWithNoPrevious(t *testing.T) {
	creds := credstore.NewInMemory()
	svc := service.New(creds, &failingSwapStore{store.NewInMemory()})
	tenant := id.TenantID(uuid.New())

	next := certtest.NewCredential(t, "next")
	_, err := svc.Upload(context.Background(), tenant, id.EnvironmentSandbox, next.CertPEM, next.KeyPEM)
	require.Error(t, err)

	_, err = creds.Get(context.Background(), tenant, id.EnvironmentSandbox)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestActiveMarksExpiredOnRead(t *testing.T) {
	svc, _, metadata, _ := newService(t)
	tenant := id.TenantID(uuid.New())

	cred := certtest.NewCredential(t, "soon-expired")
	cert, err := svc.Upload(context.Background(), tenant, id.EnvironmentSandbox, cred.CertPEM, cred.KeyPEM)
	require.NoError(t, err)

	// Read well past the certificate's validity window.
	ctx := requestcontext.WithTime(context.Background(), cert.ExpiresAt.Add(time.Hour))
	got, err := svc.Active(ctx, tenant, id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusExpired, got.Status)

	_, err = metadata.FindActive(context.Background(), tenant, id.EnvironmentSandbox)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestActiveWithoutCertificate(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Active(context.Background(), id.TenantID(uuid.New()), id.EnvironmentSandbox)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
}
