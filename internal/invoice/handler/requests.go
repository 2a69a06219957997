package handler

import (
	"fatoora/internal/document"
	"fatoora/internal/invoice/models"
)

// SubmitInvoiceRequest is the POST /invoices body. Content validation beyond
// JSON shape happens inside the pipeline so a malformed payload still leaves
// an auditable REJECTED row.
type SubmitInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceType   string          `json:"invoice_type"`
	IssueDate     string          `json:"issue_date"`
	Currency      string          `json:"currency"`
	Counter       int64           `json:"counter"`
	Note          string          `json:"note,omitempty"`
	Supplier      document.Party  `json:"supplier"`
	Customer      document.Party  `json:"customer"`
	Lines         []document.Line `json:"lines"`
}

// Payload maps the request onto the pipeline input.
func (r SubmitInvoiceRequest) Payload() models.Payload {
	return models.Payload{
		InvoiceNumber: r.InvoiceNumber,
		InvoiceType:   r.InvoiceType,
		IssueDate:     r.IssueDate,
		Currency:      r.Currency,
		Counter:       r.Counter,
		Note:          r.Note,
		Supplier:      r.Supplier,
		Customer:      r.Customer,
		Lines:         r.Lines,
	}
}
