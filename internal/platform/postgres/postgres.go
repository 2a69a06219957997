// Package postgres owns the database handle and the schema definition shared
// by the stores and the integration test harness.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres via the pgx stdlib driver and verifies the
// connection. Returns nil if dsn is empty (stores fall back to memory).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full relational schema. Applied by deployment tooling and by
// the integration test containers.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
    id            UUID PRIMARY KEY,
    name          TEXT NOT NULL,
    secret_hash   TEXT NOT NULL,
    environment   TEXT NOT NULL,
    status        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
    id                     UUID PRIMARY KEY,
    tenant_id              UUID NOT NULL,
    invoice_number         TEXT NOT NULL,
    environment            TEXT NOT NULL,
    invoice_type           TEXT NOT NULL,
    status                 TEXT NOT NULL,
    document_uuid          TEXT NOT NULL DEFAULT '',
    document_hash          TEXT NOT NULL DEFAULT '',
    previous_invoice_hash  TEXT NOT NULL DEFAULT '',
    signed_document        TEXT NOT NULL DEFAULT '',
    signed_hash            TEXT NOT NULL DEFAULT '',
    regulator_response     TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL,
    CONSTRAINT invoices_tenant_number_unique UNIQUE (tenant_id, invoice_number)
);

CREATE INDEX IF NOT EXISTS invoices_tenant_status_idx ON invoices (tenant_id, status);

CREATE TABLE IF NOT EXISTS processing_log (
    id                  UUID PRIMARY KEY,
    invoice_id          UUID NOT NULL REFERENCES invoices (id),
    tenant_id           UUID NOT NULL,
    action              TEXT NOT NULL,
    payload             JSONB NOT NULL,
    generated_document  TEXT NOT NULL DEFAULT '',
    regulator_response  TEXT NOT NULL DEFAULT '',
    result_status       TEXT NOT NULL DEFAULT '',
    started_at          TIMESTAMPTZ NOT NULL,
    finished_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS processing_log_invoice_idx ON processing_log (invoice_id, started_at DESC);

CREATE TABLE IF NOT EXISTS certificates (
    id             UUID PRIMARY KEY,
    tenant_id      UUID NOT NULL,
    environment    TEXT NOT NULL,
    serial_number  TEXT NOT NULL,
    issuer         TEXT NOT NULL,
    expires_at     TIMESTAMPTZ NOT NULL,
    status         TEXT NOT NULL,
    uploaded_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS certificates_one_active
    ON certificates (tenant_id, environment) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS audit_outbox (
    id            BIGSERIAL PRIMARY KEY,
    event_id      UUID NOT NULL,
    payload       JSONB NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    published_at  TIMESTAMPTZ
);
`
