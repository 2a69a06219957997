package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fatoora/internal/tenant/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

// Postgres persists tenants. Name uniqueness is checked case-insensitively
// inside one transaction so concurrent creates cannot both succeed.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tenant create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE LOWER(name) = LOWER($1))`,
		tenant.Name,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check tenant name: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tenants (id, name, secret_hash, environment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(tenant.ID), tenant.Name, tenant.SecretHash,
		string(tenant.DefaultEnvironment), string(tenant.Status),
		tenant.CreatedAt, tenant.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return tx.Commit()
}

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, environment, status, created_at, updated_at
		FROM tenants
		WHERE id = $1`,
		uuid.UUID(tenantID),
	)
	return scanTenant(row)
}

func (s *Postgres) Update(ctx context.Context, tenant *models.Tenant) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET name = $2, secret_hash = $3, environment = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(tenant.ID), tenant.Name, tenant.SecretHash,
		string(tenant.DefaultEnvironment), string(tenant.Status), tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanTenant(row *sql.Row) (*models.Tenant, error) {
	var tenant models.Tenant
	var tenantID uuid.UUID
	var env, status string
	err := row.Scan(&tenantID, &tenant.Name, &tenant.SecretHash, &env, &status, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	tenant.ID = id.TenantID(tenantID)
	tenant.DefaultEnvironment = id.Environment(env)
	tenant.Status = models.TenantStatus(status)
	return &tenant, nil
}
