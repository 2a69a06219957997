package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatoora/internal/document"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(
		id.InvoiceID(uuid.New()), id.TenantID(uuid.New()),
		"INV-001", id.EnvironmentSandbox, id.InvoiceTypeStandard, time.Now(),
	)
	require.NoError(t, err)
	return inv
}

func clearedInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv := newTestInvoice(t)
	require.NoError(t, inv.CanProcess())
	inv.ApplyProcessing(time.Now())
	require.NoError(t, inv.ApplyCleared(ClearedArtifacts{
		DocumentUUID: uuid.NewString(),
		DocumentHash: "hash",
		PreviousHash: document.SentinelPreviousHash,
		SignedHash:   "chain",
	}, time.Now()))
	return inv
}

func TestNewInvoiceValidation(t *testing.T) {
	now := time.Now()
	tenant := id.TenantID(uuid.New())

	_, err := NewInvoice(id.InvoiceID(uuid.New()), id.TenantID{}, "INV-1", id.EnvironmentSandbox, id.InvoiceTypeStandard, now)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))

	_, err = NewInvoice(id.InvoiceID(uuid.New()), tenant, "", id.EnvironmentSandbox, id.InvoiceTypeStandard, now)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))

	_, err = NewInvoice(id.InvoiceID(uuid.New()), tenant, "INV-1", id.Environment("STAGING"), id.InvoiceTypeStandard, now)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))
}

func TestInvoiceLifecycle(t *testing.T) {
	inv := newTestInvoice(t)
	assert.Equal(t, InvoiceStatusCreated, inv.Status)

	require.NoError(t, inv.CanProcess())
	inv.ApplyProcessing(time.Now())
	assert.Equal(t, InvoiceStatusProcessing, inv.Status)

	require.NoError(t, inv.ApplyRejected("bad payload", time.Now()))
	assert.Equal(t, InvoiceStatusRejected, inv.Status)
	assert.Equal(t, "bad payload", inv.RegulatorResponse)

	// Rejected rows re-enter processing via retry.
	require.NoError(t, inv.CanRetry())
	require.NoError(t, inv.CanProcess())
	inv.ApplyProcessing(time.Now())

	require.NoError(t, inv.ApplyFailed("regulator unreachable", time.Now()))
	assert.Equal(t, InvoiceStatusFailed, inv.Status)
	require.NoError(t, inv.CanRetry())
}

func TestClearRequiresProcessing(t *testing.T) {
	inv := newTestInvoice(t)
	err := inv.ApplyCleared(ClearedArtifacts{}, time.Now())
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))
}

func TestClearedInvoiceIsImmutable(t *testing.T) {
	inv := clearedInvoice(t)

	assert.True(t, derrors.HasCode(inv.CanProcess(), derrors.CodeInvariantViolation))
	assert.True(t, derrors.HasCode(inv.ApplyRejected("x", time.Now()), derrors.CodeInvariantViolation))
	assert.True(t, derrors.HasCode(inv.ApplyFailed("x", time.Now()), derrors.CodeInvariantViolation))
	assert.True(t, derrors.HasCode(inv.ApplyCleared(ClearedArtifacts{}, time.Now()), derrors.CodeInvariantViolation))
	assert.True(t, derrors.HasCode(inv.CanRetry(), derrors.CodeInvariantViolation))

	assert.Equal(t, InvoiceStatusCleared, inv.Status)
}

func TestRetryGate(t *testing.T) {
	inv := newTestInvoice(t)

	// CREATED and PROCESSING are not retryable; the first attempt owns them.
	assert.True(t, derrors.HasCode(inv.CanRetry(), derrors.CodeConflict))
	inv.ApplyProcessing(time.Now())
	assert.True(t, derrors.HasCode(inv.CanRetry(), derrors.CodeConflict))
}

func TestPayloadValidate(t *testing.T) {
	valid := Payload{
		InvoiceNumber: "INV-7",
		InvoiceType:   string(id.InvoiceTypeStandard),
		IssueDate:     "2026-08-30",
		Currency:      "SAR",
		Counter:       7,
		Supplier:      document.Party{Name: "Acme LLC", VATNumber: "300000000000003"},
		Customer:      document.Party{Name: "Customer Co"},
		Lines:         []document.Line{{Description: "widget", Quantity: 2, UnitPrice: 10, TaxRate: 15}},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(p *Payload){
		"missing number":       func(p *Payload) { p.InvoiceNumber = "" },
		"unknown type":         func(p *Payload) { p.InvoiceType = "PROFORMA" },
		"missing issue date":   func(p *Payload) { p.IssueDate = "" },
		"missing currency":     func(p *Payload) { p.Currency = "" },
		"non-positive counter": func(p *Payload) { p.Counter = 0 },
		"missing supplier vat": func(p *Payload) { p.Supplier.VATNumber = "" },
		"missing customer":     func(p *Payload) { p.Customer.Name = "" },
		"no lines":             func(p *Payload) { p.Lines = nil },
		"zero quantity":        func(p *Payload) { p.Lines[0].Quantity = 0 },
		"negative price":       func(p *Payload) { p.Lines[0].UnitPrice = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := valid
			p.Lines = append([]document.Line(nil), valid.Lines...)
			mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
		})
	}
}
