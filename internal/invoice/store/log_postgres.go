package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

// LogPostgres persists processing log entries. Append-only: there is no
// update or delete path.
type LogPostgres struct {
	db *sql.DB
}

func NewLogPostgres(db *sql.DB) *LogPostgres {
	return &LogPostgres{db: db}
}

func (s *LogPostgres) Append(ctx context.Context, entry *models.ProcessingLogEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal log payload: %w", err)
	}
	var finishedAt any
	if !entry.FinishedAt.IsZero() {
		finishedAt = entry.FinishedAt
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_log (
			id, invoice_id, tenant_id, action, payload,
			generated_document, regulator_response, result_status,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, uuid.UUID(entry.InvoiceID), uuid.UUID(entry.TenantID),
		string(entry.Action), payload,
		entry.GeneratedDocument, entry.RegulatorResponse, string(entry.ResultStatus),
		entry.StartedAt, finishedAt,
	); err != nil {
		return fmt.Errorf("append processing log: %w", err)
	}
	return nil
}

const logColumns = `
	id, invoice_id, tenant_id, action, payload,
	generated_document, regulator_response, result_status,
	started_at, finished_at`

func (s *LogPostgres) Latest(ctx context.Context, invoiceID id.InvoiceID) (*models.ProcessingLogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+logColumns+` FROM processing_log WHERE invoice_id = $1 ORDER BY started_at DESC LIMIT 1`,
		uuid.UUID(invoiceID),
	)
	entry, err := scanLogEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return entry, err
}

func (s *LogPostgres) ListByInvoice(ctx context.Context, invoiceID id.InvoiceID) ([]models.ProcessingLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+logColumns+` FROM processing_log WHERE invoice_id = $1 ORDER BY started_at`,
		uuid.UUID(invoiceID),
	)
	if err != nil {
		return nil, fmt.Errorf("list processing log: %w", err)
	}
	defer rows.Close()

	var entries []models.ProcessingLogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanLogEntry(scan func(dest ...any) error) (*models.ProcessingLogEntry, error) {
	var entry models.ProcessingLogEntry
	var invoiceID, tenantID uuid.UUID
	var action, resultStatus string
	var payload []byte
	var finishedAt sql.NullTime
	if err := scan(
		&entry.ID, &invoiceID, &tenantID, &action, &payload,
		&entry.GeneratedDocument, &entry.RegulatorResponse, &resultStatus,
		&entry.StartedAt, &finishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &entry.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal log payload: %w", err)
	}
	entry.InvoiceID = id.InvoiceID(invoiceID)
	entry.TenantID = id.TenantID(tenantID)
	entry.Action = models.LogAction(action)
	entry.ResultStatus = models.InvoiceStatus(resultStatus)
	if finishedAt.Valid {
		entry.FinishedAt = finishedAt.Time
	}
	return &entry, nil
}
