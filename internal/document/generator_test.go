package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

func testInvoice() Invoice {
	return Invoice{
		Number:    "INV-0001",
		Type:      id.InvoiceTypeStandard,
		IssueDate: "2026-03-14",
		Currency:  "SAR",
		Counter:   1,
		Customer: Party{
			Name:      "Desert Trading LLC",
			VATNumber: "310122393500003",
			Street:    "King Fahd Road",
			Country:   "SA",
		},
		Lines: []Line{
			{Description: "Consulting", Quantity: 2, UnitPrice: 500, TaxRate: 15},
		},
	}
}

func testProfile() TenantProfile {
	return TenantProfile{
		Supplier: Party{
			Name:      "Acme Software",
			VATNumber: "301121971500003",
			Street:    "Olaya Street",
			Country:   "SA",
		},
	}
}

func TestGenerate(t *testing.T) {
	doc, err := Generate(testInvoice(), testProfile(), SentinelPreviousHash)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.UUID)
	assert.Equal(t, "INV-0001", doc.InvoiceNumber)
	assert.Equal(t, SentinelPreviousHash, doc.PreviousHash)

	xml := string(doc.XML)
	assert.Contains(t, xml, `<cbc:ID>INV-0001</cbc:ID>`)
	assert.Contains(t, xml, SentinelPreviousHash, "previous hash must be embedded")
	assert.Contains(t, xml, "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2")
	assert.Contains(t, xml, "<cbc:InvoiceTypeCode>388</cbc:InvoiceTypeCode>")
	assert.Contains(t, xml, "Acme Software")
	assert.Contains(t, xml, "Desert Trading LLC")
}

func TestGenerateEmbedsChainPointer(t *testing.T) {
	previous := "h0O5QswDzBD3rPGWb/Z8QmfcdYGkKI3wGBAiFoCH8M0="
	doc, err := Generate(testInvoice(), testProfile(), previous)
	require.NoError(t, err)
	assert.Contains(t, string(doc.XML), previous)
	assert.Equal(t, previous, doc.PreviousHash)
}

func TestGenerateRejectsMissingPreviousHash(t *testing.T) {
	_, err := Generate(testInvoice(), testProfile(), "")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))
}

func TestGenerateRejectsSurvivingPlaceholder(t *testing.T) {
	inv := testInvoice()
	inv.Note = "{{.SellerName}}" // simulates an unresolved template marker
	_, err := Generate(inv, testProfile(), SentinelPreviousHash)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvariantViolation))
}

func TestGenerateValidation(t *testing.T) {
	t.Run("missing invoice number", func(t *testing.T) {
		inv := testInvoice()
		inv.Number = ""
		_, err := Generate(inv, testProfile(), SentinelPreviousHash)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("unmapped invoice type", func(t *testing.T) {
		inv := testInvoice()
		inv.Type = id.InvoiceType("MIXED")
		_, err := Generate(inv, testProfile(), SentinelPreviousHash)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})
}

func TestGenerateFreshUUIDPerDocument(t *testing.T) {
	a, err := Generate(testInvoice(), testProfile(), SentinelPreviousHash)
	require.NoError(t, err)
	b, err := Generate(testInvoice(), testProfile(), SentinelPreviousHash)
	require.NoError(t, err)
	assert.NotEqual(t, a.UUID, b.UUID)
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals([]Line{
		{Quantity: 2, UnitPrice: 500, TaxRate: 15},
		{Quantity: 1, UnitPrice: 100, TaxRate: 15},
	})
	assert.InDelta(t, 1100, totals.LineExtension, 0.001)
	assert.InDelta(t, 165, totals.Tax, 0.001)
	assert.InDelta(t, 1265, totals.TaxInclusive, 0.001)
}

func TestSentinelPreviousHash(t *testing.T) {
	// base64(SHA-256("0")), the first-in-chain convention.
	assert.Equal(t, "X+zrZv/IbzjZUnhsbWlsecLbwjndTpG0ZynXOif7V+k=", SentinelPreviousHash)
	assert.False(t, strings.Contains(SentinelPreviousHash, " "))
}
