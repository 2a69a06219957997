package domain

import "fmt"

// InvoiceType is the regulator's document classification. It is one of the
// two inputs to the clearance/reporting policy matrix.
type InvoiceType string

const (
	InvoiceTypeStandard   InvoiceType = "STANDARD"
	InvoiceTypeSimplified InvoiceType = "SIMPLIFIED"
	InvoiceTypeDebitNote  InvoiceType = "DEBIT_NOTE"
	InvoiceTypeCreditNote InvoiceType = "CREDIT_NOTE"
)

// ParseInvoiceType validates an invoice type string. Unknown values are
// rejected here so the policy engine only ever sees the closed set.
func ParseInvoiceType(s string) (InvoiceType, error) {
	switch InvoiceType(s) {
	case InvoiceTypeStandard, InvoiceTypeSimplified, InvoiceTypeDebitNote, InvoiceTypeCreditNote:
		return InvoiceType(s), nil
	default:
		return "", fmt.Errorf("unknown invoice type %q", s)
	}
}

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeStandard, InvoiceTypeSimplified, InvoiceTypeDebitNote, InvoiceTypeCreditNote:
		return true
	}
	return false
}

func (t InvoiceType) String() string { return string(t) }
