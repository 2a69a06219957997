// Package document renders tenant and invoice data into the canonical,
// namespaced XML document the regulator clears. It owns the hash-chain
// embedding but never signs or submits.
package document

import (
	"crypto/sha256"
	"encoding/base64"

	id "fatoora/pkg/domain"
)

// Invoice is the generator's input: the validated invoice payload.
type Invoice struct {
	Number      string
	Type        id.InvoiceType
	IssueDate   string
	Currency    string
	Counter     int64
	Note        string
	Customer    Party
	Lines       []Line
}

// Line is a single invoice line item.
type Line struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitCode    string  `json:"unit_code,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
}

// Party describes a supplier or customer for document rendering.
type Party struct {
	Name       string `json:"name"`
	VATNumber  string `json:"vat_number,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalZone string `json:"postal_zone,omitempty"`
	Country    string `json:"country,omitempty"`
}

// TenantProfile is the supplier side of the document, sourced from tenant
// registration data.
type TenantProfile struct {
	Supplier Party
}

// CanonicalDocument is the rendered, hash-ready artifact.
type CanonicalDocument struct {
	UUID          string
	InvoiceNumber string
	PreviousHash  string
	XML           []byte
}

// SentinelPreviousHash anchors the first invoice of a tenant's chain: the
// base64 SHA-256 of the literal "0", the conventional first-in-chain value.
var SentinelPreviousHash = func() string {
	sum := sha256.Sum256([]byte("0"))
	return base64.StdEncoding.EncodeToString(sum[:])
}()

// Totals aggregates line amounts for the monetary totals block.
type Totals struct {
	LineExtension float64
	Tax           float64
	TaxInclusive  float64
}

// ComputeTotals sums the line amounts.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		ext := l.Quantity * l.UnitPrice
		t.LineExtension += ext
		t.Tax += ext * l.TaxRate / 100
	}
	t.TaxInclusive = t.LineExtension + t.Tax
	return t
}
