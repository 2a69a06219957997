package models

import (
	"time"

	"fatoora/internal/document"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// InvoiceStatus is the lifecycle state of an invoice row.
type InvoiceStatus string

const (
	InvoiceStatusCreated    InvoiceStatus = "CREATED"
	InvoiceStatusProcessing InvoiceStatus = "PROCESSING"
	InvoiceStatusCleared    InvoiceStatus = "CLEARED"
	InvoiceStatusRejected   InvoiceStatus = "REJECTED"
	InvoiceStatusFailed     InvoiceStatus = "FAILED"
)

// IsTerminal reports whether no further processing transition is expected.
// REJECTED and FAILED are terminal for the pipeline but re-enterable via
// retry; CLEARED is terminal absolutely.
func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoiceStatusCleared, InvoiceStatusRejected, InvoiceStatusFailed:
		return true
	default:
		return false
	}
}

// Invoice is one clearable document.
//
// Invariants:
//   - (tenant_id, invoice_number) is unique; the storage layer enforces it
//     with compare-and-insert, never application locks
//   - once CLEARED the row is immutable: every Apply guard rejects
//   - rows are never deleted
type Invoice struct {
	ID                  id.InvoiceID   `json:"id"`
	TenantID            id.TenantID    `json:"tenant_id"`
	InvoiceNumber       string         `json:"invoice_number"`
	Environment         id.Environment `json:"environment"`
	Type                id.InvoiceType `json:"invoice_type"`
	Status              InvoiceStatus  `json:"status"`
	DocumentUUID        string         `json:"document_uuid,omitempty"`
	DocumentHash        string         `json:"document_hash,omitempty"`
	PreviousInvoiceHash string         `json:"previous_hash,omitempty"`
	SignedDocument      string         `json:"signed_document,omitempty"`
	SignedHash          string         `json:"-"`
	RegulatorResponse   string         `json:"regulator_response,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// NewInvoice builds a CREATED row for a first submission.
func NewInvoice(invoiceID id.InvoiceID, tenantID id.TenantID, number string, env id.Environment, invoiceType id.InvoiceType, now time.Time) (*Invoice, error) {
	if tenantID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "tenant id is required")
	}
	if number == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invoice number is required")
	}
	if !env.Valid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "environment is invalid")
	}
	return &Invoice{
		ID:            invoiceID,
		TenantID:      tenantID,
		InvoiceNumber: number,
		Environment:   env,
		Type:          invoiceType,
		Status:        InvoiceStatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (i *Invoice) guardMutable() error {
	if i.Status == InvoiceStatusCleared {
		return derrors.New(derrors.CodeInvariantViolation, "cleared invoice is immutable")
	}
	return nil
}

// CanProcess checks that the invoice may enter PROCESSING.
func (i *Invoice) CanProcess() error {
	if err := i.guardMutable(); err != nil {
		return err
	}
	switch i.Status {
	case InvoiceStatusCreated, InvoiceStatusFailed, InvoiceStatusRejected:
		return nil
	default:
		return derrors.Newf(derrors.CodeInvariantViolation, "cannot process invoice in status %s", i.Status)
	}
}

// ApplyProcessing transitions to PROCESSING. Call CanProcess first.
func (i *Invoice) ApplyProcessing(now time.Time) {
	i.Status = InvoiceStatusProcessing
	i.UpdatedAt = now
}

// ApplyCleared finalizes a successful clearance with the produced artifacts.
func (i *Invoice) ApplyCleared(doc ClearedArtifacts, now time.Time) error {
	if err := i.guardMutable(); err != nil {
		return err
	}
	if i.Status != InvoiceStatusProcessing {
		return derrors.Newf(derrors.CodeInvariantViolation, "cannot clear invoice in status %s", i.Status)
	}
	i.Status = InvoiceStatusCleared
	i.DocumentUUID = doc.DocumentUUID
	i.DocumentHash = doc.DocumentHash
	i.PreviousInvoiceHash = doc.PreviousHash
	i.SignedDocument = doc.SignedDocument
	i.SignedHash = doc.SignedHash
	i.RegulatorResponse = doc.RegulatorResponse
	i.UpdatedAt = now
	return nil
}

// ClearedArtifacts are the derived fields persisted on clearance.
type ClearedArtifacts struct {
	DocumentUUID      string
	DocumentHash      string
	PreviousHash      string
	SignedDocument    string
	SignedHash        string
	RegulatorResponse string
}

// ApplyRejected transitions to REJECTED with the rejection detail.
func (i *Invoice) ApplyRejected(response string, now time.Time) error {
	if err := i.guardMutable(); err != nil {
		return err
	}
	i.Status = InvoiceStatusRejected
	i.RegulatorResponse = response
	i.UpdatedAt = now
	return nil
}

// ApplyFailed transitions to FAILED after a system error.
func (i *Invoice) ApplyFailed(response string, now time.Time) error {
	if err := i.guardMutable(); err != nil {
		return err
	}
	i.Status = InvoiceStatusFailed
	i.RegulatorResponse = response
	i.UpdatedAt = now
	return nil
}

// CanRetry checks the retry gate: only FAILED and REJECTED re-enter
// processing.
func (i *Invoice) CanRetry() error {
	switch i.Status {
	case InvoiceStatusFailed, InvoiceStatusRejected:
		return nil
	case InvoiceStatusCleared:
		return derrors.New(derrors.CodeInvariantViolation, "cleared invoice cannot be retried")
	default:
		return derrors.Newf(derrors.CodeConflict, "invoice in status %s cannot be retried", i.Status)
	}
}

// Payload is the submitted invoice content, persisted verbatim in the
// processing log so a retry can reconstruct it.
type Payload struct {
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

// Validate rejects malformed payloads before any policy or regulator work.
func (p Payload) Validate() error {
	if p.InvoiceNumber == "" {
		return derrors.New(derrors.CodeValidation, "invoice_number is required")
	}
	if _, err := id.ParseInvoiceType(p.InvoiceType); err != nil {
		return derrors.New(derrors.CodeValidation, "invoice_type is invalid")
	}
	if p.IssueDate == "" {
		return derrors.New(derrors.CodeValidation, "issue_date is required")
	}
	if p.Currency == "" {
		return derrors.New(derrors.CodeValidation, "currency is required")
	}
	if p.Counter <= 0 {
		return derrors.New(derrors.CodeValidation, "counter must be positive")
	}
	if p.Supplier.Name == "" || p.Supplier.VATNumber == "" {
		return derrors.New(derrors.CodeValidation, "supplier name and vat_number are required")
	}
	if p.Customer.Name == "" {
		return derrors.New(derrors.CodeValidation, "customer name is required")
	}
	if len(p.Lines) == 0 {
		return derrors.New(derrors.CodeValidation, "at least one line is required")
	}
	for _, line := range p.Lines {
		if line.Description == "" {
			return derrors.New(derrors.CodeValidation, "line description is required")
		}
		if line.Quantity <= 0 {
			return derrors.New(derrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice < 0 {
			return derrors.New(derrors.CodeValidation, "line unit price must not be negative")
		}
	}
	return nil
}

// ParsedType returns the payload's invoice type. Call Validate first.
func (p Payload) ParsedType() id.InvoiceType {
	t, _ := id.ParseInvoiceType(p.InvoiceType)
	return t
}

// DocumentInvoice maps the payload onto the generator's input.
func (p Payload) DocumentInvoice() document.Invoice {
	return document.Invoice{
		Number:    p.InvoiceNumber,
		Type:      p.ParsedType(),
		IssueDate: p.IssueDate,
		Currency:  p.Currency,
		Counter:   p.Counter,
		Note:      p.Note,
		Customer:  p.Customer,
		Lines:     p.Lines,
	}
}
