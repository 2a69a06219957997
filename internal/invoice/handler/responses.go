package handler

import (
	"encoding/json"
	"time"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
)

// InvoiceResponse is the API view of an invoice row. The raw regulator
// response is surfaced as-is for troubleshooting.
type InvoiceResponse struct {
	ID                string               `json:"id"`
	InvoiceNumber     string               `json:"invoice_number"`
	Environment       id.Environment       `json:"environment"`
	InvoiceType       id.InvoiceType       `json:"invoice_type"`
	Status            models.InvoiceStatus `json:"status"`
	DocumentUUID      string               `json:"document_uuid,omitempty"`
	DocumentHash      string               `json:"document_hash,omitempty"`
	PreviousHash      string               `json:"previous_hash,omitempty"`
	RegulatorResponse json.RawMessage      `json:"regulator_response,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// NewInvoiceResponse converts a row into its API representation.
func NewInvoiceResponse(inv *models.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Environment:   inv.Environment,
		InvoiceType:   inv.Type,
		Status:        inv.Status,
		DocumentUUID:  inv.DocumentUUID,
		DocumentHash:  inv.DocumentHash,
		PreviousHash:  inv.PreviousInvoiceHash,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if json.Valid([]byte(inv.RegulatorResponse)) {
		resp.RegulatorResponse = json.RawMessage(inv.RegulatorResponse)
	} else if inv.RegulatorResponse != "" {
		raw, _ := json.Marshal(inv.RegulatorResponse)
		resp.RegulatorResponse = raw
	}
	return resp
}

// LogEntryResponse is the API view of one processing attempt.
type LogEntryResponse struct {
	ID           string               `json:"id"`
	Action       models.LogAction     `json:"action"`
	ResultStatus models.InvoiceStatus `json:"result_status,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   *time.Time           `json:"finished_at,omitempty"`
}

// HistoryResponse wraps the processing log listing.
type HistoryResponse struct {
	Entries []LogEntryResponse `json:"entries"`
}

// NewHistoryResponse converts log entries into their API representation.
func NewHistoryResponse(entries []models.ProcessingLogEntry) HistoryResponse {
	resp := HistoryResponse{Entries: make([]LogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		item := LogEntryResponse{
			ID:           e.ID.String(),
			Action:       e.Action,
			ResultStatus: e.ResultStatus,
			StartedAt:    e.StartedAt,
		}
		if !e.FinishedAt.IsZero() {
			finished := e.FinishedAt
			item.FinishedAt = &finished
		}
		resp.Entries = append(resp.Entries, item)
	}
	return resp
}
