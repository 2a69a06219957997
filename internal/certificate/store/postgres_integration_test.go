//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fatoora/internal/certificate/models"
	"fatoora/internal/certificate/store"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/testutil/containers"
)

type PostgresCertStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresCertStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCertStoreSuite))
}

func (s *PostgresCertStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresCertStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "certificates"))
}

func (s *PostgresCertStoreSuite) newCert(tenantID id.TenantID, env id.Environment, serial string) *models.Certificate {
	cert, err := models.NewCertificate(
		id.CertificateID(uuid.New()), tenantID, env, serial, "CN=integration-ca",
		time.Now().Add(90*24*time.Hour), time.Now(),
	)
	s.Require().NoError(err)
	return cert
}

func (s *PostgresCertStoreSuite) TestSwapKeepsSingleActive() {
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())

	s.Require().NoError(s.store.ActivateSwap(ctx, s.newCert(tenant, id.EnvironmentProduction, "serial-1")))
	s.Require().NoError(s.store.ActivateSwap(ctx, s.newCert(tenant, id.EnvironmentProduction, "serial-2")))

	active, err := s.store.FindActive(ctx, tenant, id.EnvironmentProduction)
	s.Require().NoError(err)
	s.Equal("serial-2", active.SerialNumber)

	all, err := s.store.ListByTenant(ctx, tenant)
	s.Require().NoError(err)
	s.Len(all, 2)

	activeCount := 0
	for _, c := range all {
		if c.IsActive() {
			activeCount++
		}
	}
	s.Equal(1, activeCount)
}

func (s *PostgresCertStoreSuite) TestFindActiveMissing() {
	_, err := s.store.FindActive(context.Background(), id.TenantID(uuid.New()), id.EnvironmentSandbox)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresCertStoreSuite) TestMarkExpired() {
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())
	cert := s.newCert(tenant, id.EnvironmentSandbox, "serial-1")

	s.Require().NoError(s.store.ActivateSwap(ctx, cert))
	s.Require().NoError(s.store.MarkExpired(ctx, cert.ID))

	_, err := s.store.FindActive(ctx, tenant, id.EnvironmentSandbox)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	s.True(errors.Is(s.store.MarkExpired(ctx, cert.ID), sentinel.ErrInvalidState))
}
