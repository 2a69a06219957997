package models

import (
	"time"

	"github.com/google/uuid"

	id "fatoora/pkg/domain"
)

// LogAction tags what kind of attempt a log entry records.
type LogAction string

const (
	LogActionSubmit LogAction = "SUBMIT"
	LogActionRetry  LogAction = "RETRY"
)

// ProcessingLogEntry is the append-only record of one processing attempt.
// It is created when the attempt starts and finalized with the outcome at
// the end of the same attempt; it is never updated afterwards.
type ProcessingLogEntry struct {
	ID                uuid.UUID     `json:"id"`
	InvoiceID         id.InvoiceID  `json:"invoice_id"`
	TenantID          id.TenantID   `json:"tenant_id"`
	Action            LogAction     `json:"action"`
	Payload           Payload       `json:"payload"`
	GeneratedDocument string        `json:"generated_document,omitempty"`
	RegulatorResponse string        `json:"regulator_response,omitempty"`
	ResultStatus      InvoiceStatus `json:"result_status,omitempty"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at,omitempty"`
}

// NewLogEntry opens a log record for one attempt.
func NewLogEntry(invoiceID id.InvoiceID, tenantID id.TenantID, action LogAction, payload Payload, now time.Time) *ProcessingLogEntry {
	return &ProcessingLogEntry{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		TenantID:  tenantID,
		Action:    action,
		Payload:   payload,
		StartedAt: now,
	}
}

// Finalize stamps the attempt outcome. The entry must be appended exactly
// once, after Finalize.
func (e *ProcessingLogEntry) Finalize(status InvoiceStatus, generatedDoc, regulatorResponse string, now time.Time) {
	e.ResultStatus = status
	e.GeneratedDocument = generatedDoc
	e.RegulatorResponse = regulatorResponse
	e.FinishedAt = now
}
