//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fatoora/internal/document"
	"fatoora/internal/invoice/models"
	"fatoora/internal/invoice/store"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/testutil/containers"
)

type PostgresInvoiceStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	logs     *store.LogPostgres
	tenantID id.TenantID
}

func TestPostgresInvoiceStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresInvoiceStoreSuite))
}

func (s *PostgresInvoiceStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.logs = store.NewLogPostgres(s.postgres.DB)
}

func (s *PostgresInvoiceStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "invoices", "processing_log"))
	s.tenantID = id.TenantID(uuid.New())
}

func (s *PostgresInvoiceStoreSuite) newInvoice(number string, env id.Environment) *models.Invoice {
	inv, err := models.NewInvoice(
		id.InvoiceID(uuid.New()), s.tenantID, number, env,
		id.InvoiceTypeStandard, time.Now().UTC().Truncate(time.Millisecond),
	)
	s.Require().NoError(err)
	return inv
}

func (s *PostgresInvoiceStoreSuite) clear(inv *models.Invoice, signedHash string, at time.Time) {
	inv.ApplyProcessing(at)
	s.Require().NoError(inv.ApplyCleared(models.ClearedArtifacts{
		DocumentUUID:   uuid.NewString(),
		DocumentHash:   "doc-hash",
		PreviousHash:   document.SentinelPreviousHash,
		SignedDocument: "<Invoice/>",
		SignedHash:     signedHash,
	}, at))
	s.Require().NoError(s.store.Update(context.Background(), inv))
}

func (s *PostgresInvoiceStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	inv := s.newInvoice("INV-1", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, inv))

	got, err := s.store.FindByID(ctx, s.tenantID, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.InvoiceNumber, got.InvoiceNumber)
	s.Equal(models.InvoiceStatusCreated, got.Status)
	s.Equal(id.EnvironmentSandbox, got.Environment)

	byNumber, err := s.store.FindByNumber(ctx, s.tenantID, "INV-1")
	s.Require().NoError(err)
	s.Equal(inv.ID, byNumber.ID)
}

func (s *PostgresInvoiceStoreSuite) TestCreateRejectsDuplicateNumber() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfAbsent(ctx, s.newInvoice("INV-1", id.EnvironmentSandbox)))

	err := s.store.CreateIfAbsent(ctx, s.newInvoice("INV-1", id.EnvironmentSandbox))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresInvoiceStoreSuite) TestFindScopedToTenant() {
	ctx := context.Background()
	inv := s.newInvoice("INV-1", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, inv))

	_, err := s.store.FindByID(ctx, id.TenantID(uuid.New()), inv.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInvoiceStoreSuite) TestUpdatePersistsClearedArtifacts() {
	ctx := context.Background()
	inv := s.newInvoice("INV-1", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, inv))
	s.clear(inv, "chain-hash-1", time.Now().UTC())

	got, err := s.store.FindByID(ctx, s.tenantID, inv.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusCleared, got.Status)
	s.Equal("chain-hash-1", got.SignedHash)
	s.Equal(document.SentinelPreviousHash, got.PreviousInvoiceHash)
	s.NotEmpty(got.DocumentUUID)
}

func (s *PostgresInvoiceStoreSuite) TestLatestChainHash() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.store.LatestChainHash(ctx, s.tenantID, id.EnvironmentSandbox)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	first := s.newInvoice("INV-1", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, first))
	s.clear(first, "chain-hash-1", base)

	second := s.newInvoice("INV-2", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, second))
	s.clear(second, "chain-hash-2", base.Add(time.Second))

	// Production chains independently of sandbox.
	other := s.newInvoice("INV-3", id.EnvironmentProduction)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, other))

	head, err := s.store.LatestChainHash(ctx, s.tenantID, id.EnvironmentSandbox)
	s.Require().NoError(err)
	s.Equal("chain-hash-2", head)

	_, err = s.store.LatestChainHash(ctx, s.tenantID, id.EnvironmentProduction)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInvoiceStoreSuite) TestProcessingLogRoundTrip() {
	ctx := context.Background()
	inv := s.newInvoice("INV-1", id.EnvironmentSandbox)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, inv))

	payload := models.Payload{
		InvoiceNumber: "INV-1",
		InvoiceType:   string(id.InvoiceTypeStandard),
		IssueDate:     "2026-08-30",
		Currency:      "SAR",
		Counter:       1,
		Supplier:      document.Party{Name: "Acme LLC", VATNumber: "300000000000003"},
		Customer:      document.Party{Name: "Customer Co"},
		Lines:         []document.Line{{Description: "widget", Quantity: 1, UnitPrice: 100, TaxRate: 15}},
	}

	started := time.Now().UTC().Truncate(time.Millisecond)
	entry := models.NewLogEntry(inv.ID, s.tenantID, models.LogActionSubmit, payload, started)
	entry.Finalize(models.InvoiceStatusFailed, "<Invoice/>", "timeout", started.Add(time.Second))
	s.Require().NoError(s.logs.Append(ctx, entry))

	retry := models.NewLogEntry(inv.ID, s.tenantID, models.LogActionRetry, payload, started.Add(2*time.Second))
	retry.Finalize(models.InvoiceStatusCleared, "<Invoice/>", "ok", started.Add(3*time.Second))
	s.Require().NoError(s.logs.Append(ctx, retry))

	latest, err := s.logs.Latest(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(models.LogActionRetry, latest.Action)
	s.Equal(payload, latest.Payload)
	s.False(latest.FinishedAt.IsZero())

	entries, err := s.logs.ListByInvoice(ctx, inv.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(models.LogActionSubmit, entries[0].Action)
	s.Equal(models.InvoiceStatusFailed, entries[0].ResultStatus)
}

func (s *PostgresInvoiceStoreSuite) TestLatestOnEmptyLog() {
	_, err := s.logs.Latest(context.Background(), id.InvoiceID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
