package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

// Postgres persists invoices. The unique constraint on
// (tenant_id, invoice_number) is the idempotency point: concurrent duplicate
// submissions race on the insert, not on application locks.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) CreateIfAbsent(ctx context.Context, inv *models.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, tenant_id, invoice_number, environment, invoice_type, status,
			document_uuid, document_hash, previous_invoice_hash,
			signed_document, signed_hash, regulator_response,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(inv.ID), uuid.UUID(inv.TenantID), inv.InvoiceNumber,
		string(inv.Environment), string(inv.Type), string(inv.Status),
		inv.DocumentUUID, inv.DocumentHash, inv.PreviousInvoiceHash,
		inv.SignedDocument, inv.SignedHash, inv.RegulatorResponse,
		inv.CreatedAt, inv.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, inv *models.Invoice) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = $2, document_uuid = $3, document_hash = $4,
		    previous_invoice_hash = $5, signed_document = $6, signed_hash = $7,
		    regulator_response = $8, updated_at = $9
		WHERE id = $1`,
		uuid.UUID(inv.ID), string(inv.Status), inv.DocumentUUID, inv.DocumentHash,
		inv.PreviousInvoiceHash, inv.SignedDocument, inv.SignedHash,
		inv.RegulatorResponse, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const invoiceColumns = `
	id, tenant_id, invoice_number, environment, invoice_type, status,
	document_uuid, document_hash, previous_invoice_hash,
	signed_document, signed_hash, regulator_response, created_at, updated_at`

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID, invoiceID id.InvoiceID) (*models.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(invoiceID),
	)
	return scanInvoice(row)
}

func (s *Postgres) FindByNumber(ctx context.Context, tenantID id.TenantID, number string) (*models.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND invoice_number = $2`,
		uuid.UUID(tenantID), number,
	)
	return scanInvoice(row)
}

// LatestChainHash returns the signed hash of the most recently cleared
// invoice for the tenant and environment.
func (s *Postgres) LatestChainHash(ctx context.Context, tenantID id.TenantID, env id.Environment) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT signed_hash
		FROM invoices
		WHERE tenant_id = $1 AND environment = $2 AND signed_hash <> ''
		ORDER BY updated_at DESC
		LIMIT 1`,
		uuid.UUID(tenantID), string(env),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest chain hash: %w", err)
	}
	return hash, nil
}

func scanInvoice(row *sql.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var invoiceID, tenantID uuid.UUID
	var env, invoiceType, status string
	err := row.Scan(
		&invoiceID, &tenantID, &inv.InvoiceNumber, &env, &invoiceType, &status,
		&inv.DocumentUUID, &inv.DocumentHash, &inv.PreviousInvoiceHash,
		&inv.SignedDocument, &inv.SignedHash, &inv.RegulatorResponse,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.ID = id.InvoiceID(invoiceID)
	inv.TenantID = id.TenantID(tenantID)
	inv.Environment = id.Environment(env)
	inv.Type = id.InvoiceType(invoiceType)
	inv.Status = models.InvoiceStatus(status)
	return &inv, nil
}
