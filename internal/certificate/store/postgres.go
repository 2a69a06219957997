package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fatoora/internal/certificate/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
	txcontext "fatoora/pkg/platform/tx"
)

// Postgres persists certificate metadata. A partial unique index on
// (tenant_id, environment) WHERE status = 'ACTIVE' backs the single-active
// invariant at the storage layer.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// ActivateSwap revokes the currently active row and inserts the new one in a
// single transaction.
func (s *Postgres) ActivateSwap(ctx context.Context, cert *models.Certificate) error {
	if cert == nil || !cert.IsActive() {
		return sentinel.ErrInvalidState
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin certificate swap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE certificates
		SET status = 'REVOKED'
		WHERE tenant_id = $1 AND environment = $2 AND status = 'ACTIVE'`,
		uuid.UUID(cert.TenantID), string(cert.Environment),
	); err != nil {
		return fmt.Errorf("revoke previous certificate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO certificates (id, tenant_id, environment, serial_number, issuer, expires_at, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(cert.ID), uuid.UUID(cert.TenantID), string(cert.Environment),
		cert.SerialNumber, cert.Issuer, cert.ExpiresAt, string(cert.Status), cert.UploadedAt,
	); err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit certificate swap: %w", err)
	}
	return nil
}

// FindActive returns the single active certificate for (tenant, environment).
func (s *Postgres) FindActive(ctx context.Context, tenantID id.TenantID, env id.Environment) (*models.Certificate, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, environment, serial_number, issuer, expires_at, status, uploaded_at
		FROM certificates
		WHERE tenant_id = $1 AND environment = $2 AND status = 'ACTIVE'`,
		uuid.UUID(tenantID), string(env),
	)
	return scanCertificate(row)
}

// MarkExpired transitions an ACTIVE row to EXPIRED.
func (s *Postgres) MarkExpired(ctx context.Context, certID id.CertificateID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE certificates SET status = 'EXPIRED'
		WHERE id = $1 AND status = 'ACTIVE'`,
		uuid.UUID(certID),
	)
	if err != nil {
		return fmt.Errorf("mark certificate expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark certificate expired: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

// ListByTenant returns every metadata row for a tenant, newest first.
func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Certificate, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, tenant_id, environment, serial_number, issuer, expires_at, status, uploaded_at
		FROM certificates
		WHERE tenant_id = $1
		ORDER BY uploaded_at DESC`,
		uuid.UUID(tenantID),
	)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificateRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

func scanCertificate(row *sql.Row) (*models.Certificate, error) {
	var cert models.Certificate
	var certID, tenantID uuid.UUID
	var env, status string
	err := row.Scan(&certID, &tenantID, &env, &cert.SerialNumber, &cert.Issuer, &cert.ExpiresAt, &status, &cert.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	cert.ID = id.CertificateID(certID)
	cert.TenantID = id.TenantID(tenantID)
	cert.Environment = id.Environment(env)
	cert.Status = models.CertificateStatus(status)
	return &cert, nil
}

func scanCertificateRows(rows *sql.Rows) (*models.Certificate, error) {
	var cert models.Certificate
	var certID, tenantID uuid.UUID
	var env, status string
	if err := rows.Scan(&certID, &tenantID, &env, &cert.SerialNumber, &cert.Issuer, &cert.ExpiresAt, &status, &cert.UploadedAt); err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	cert.ID = id.CertificateID(certID)
	cert.TenantID = id.TenantID(tenantID)
	cert.Environment = id.Environment(env)
	cert.Status = models.CertificateStatus(status)
	return &cert, nil
}
