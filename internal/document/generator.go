package document

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/google/uuid"

	derrors "fatoora/pkg/domain-errors"
)

const (
	xmlnsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	xmlnsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	xmlnsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	profileID    = "reporting:1.0"

	refPreviousHash   = "PIH"
	refInvoiceCounter = "ICV"
)

// Generate renders the canonical document for an invoice. previousHash links
// the tenant's chain; pass SentinelPreviousHash for the first invoice. The
// rendered bytes are deterministic for identical input apart from the fresh
// document UUID.
func Generate(inv Invoice, profile TenantProfile, previousHash string) (*CanonicalDocument, error) {
	if inv.Number == "" {
		return nil, derrors.New(derrors.CodeValidation, "invoice number is required")
	}
	if previousHash == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "previous hash must be set (use the chain sentinel for the first invoice)")
	}
	typeCode := invoiceTypeCode(string(inv.Type))
	if typeCode == "" {
		return nil, derrors.Newf(derrors.CodeValidation, "invoice type %q has no document type code", inv.Type)
	}

	docUUID := uuid.NewString()
	totals := ComputeTotals(inv.Lines)

	ubl := ublInvoice{
		Xmlns:           xmlnsInvoice,
		Cbc:             xmlnsCbc,
		Cac:             xmlnsCac,
		ProfileID:       profileID,
		ID:              inv.Number,
		UUID:            docUUID,
		IssueDate:       inv.IssueDate,
		InvoiceTypeCode: typeCode,
		Note:            inv.Note,
		CurrencyCode:    inv.Currency,
		AdditionalRefs: []ublDocumentReference{
			{
				ID:       refInvoiceCounter,
				UUID:     fmt.Sprintf("%d", inv.Counter),
			},
			{
				ID:       refPreviousHash,
				Embedded: &ublBinary{MimeCode: "text/plain", Value: previousHash},
			},
		},
		Supplier: wrapParty(profile.Supplier),
		Customer: wrapParty(inv.Customer),
		TaxTotal: ublTaxTotal{TaxAmount: amount(inv.Currency, totals.Tax)},
		MonetaryTotal: ublMonetaryTotal{
			LineExtensionAmount: amount(inv.Currency, totals.LineExtension),
			TaxExclusiveAmount:  amount(inv.Currency, totals.LineExtension),
			TaxInclusiveAmount:  amount(inv.Currency, totals.TaxInclusive),
			PayableAmount:       amount(inv.Currency, totals.TaxInclusive),
		},
		Lines: buildLines(inv),
	}

	rendered, err := xml.MarshalIndent(ubl, "", "  ")
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to render invoice document")
	}
	rendered = append([]byte(xml.Header), rendered...)

	// A surviving template marker means the generator itself is broken,
	// not the input. Refuse to hand the document downstream.
	if bytes.Contains(rendered, []byte("{{")) || bytes.Contains(rendered, []byte("}}")) {
		return nil, derrors.New(derrors.CodeInvariantViolation, "rendered document contains unresolved placeholders")
	}

	return &CanonicalDocument{
		UUID:          docUUID,
		InvoiceNumber: inv.Number,
		PreviousHash:  previousHash,
		XML:           rendered,
	}, nil
}

func wrapParty(p Party) ublPartyWrapper {
	return ublPartyWrapper{
		Party: ublParty{
			Name: ublName{Name: p.Name},
			Address: ublAddress{
				StreetName: p.Street,
				PostalZone: p.PostalZone,
				Country:    ublCountry{IdentificationCode: p.Country},
			},
			TaxScheme: ublTaxScheme{
				CompanyID: p.VATNumber,
				TaxScheme: ublTaxInfo{ID: "VAT"},
			},
		},
	}
}

func buildLines(inv Invoice) []ublInvoiceLine {
	lines := make([]ublInvoiceLine, 0, len(inv.Lines))
	for i, l := range inv.Lines {
		ext := l.Quantity * l.UnitPrice
		unit := l.UnitCode
		if unit == "" {
			unit = "PCE"
		}
		lines = append(lines, ublInvoiceLine{
			ID:                  fmt.Sprintf("%d", i+1),
			InvoicedQuantity:    ublQuantity{UnitCode: unit, Value: l.Quantity},
			LineExtensionAmount: amount(inv.Currency, ext),
			Item: ublItem{
				Description: l.Description,
				TaxCategory: ublTaxCategory{
					ID:        "S",
					Percent:   l.TaxRate,
					TaxScheme: ublTaxInfo{ID: "VAT"},
				},
			},
			Price: ublPrice{PriceAmount: amount(inv.Currency, l.UnitPrice)},
		})
	}
	return lines
}

func amount(currency string, v float64) ublAmount {
	return ublAmount{Currency: currency, Value: v}
}
