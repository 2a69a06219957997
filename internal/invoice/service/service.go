// Package service orchestrates the invoice clearance pipeline: validation,
// policy gating, document generation, signing, regulator submission, and the
// append-only processing log.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fatoora/internal/audit"
	"fatoora/internal/document"
	"fatoora/internal/invoice/metrics"
	"fatoora/internal/invoice/models"
	"fatoora/internal/policy"
	"fatoora/internal/regulator"
	"fatoora/internal/signing"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
)

// Store persists invoice rows.
type Store interface {
	CreateIfAbsent(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	FindByID(ctx context.Context, tenantID id.TenantID, invoiceID id.InvoiceID) (*models.Invoice, error)
	FindByNumber(ctx context.Context, tenantID id.TenantID, number string) (*models.Invoice, error)
	LatestChainHash(ctx context.Context, tenantID id.TenantID, env id.Environment) (string, error)
}

// LogStore persists processing log entries. Append-only.
type LogStore interface {
	Append(ctx context.Context, entry *models.ProcessingLogEntry) error
	Latest(ctx context.Context, invoiceID id.InvoiceID) (*models.ProcessingLogEntry, error)
	ListByInvoice(ctx context.Context, invoiceID id.InvoiceID) ([]models.ProcessingLogEntry, error)
}

// DocumentSigner produces the detached signature and chain hash for a
// canonical document.
type DocumentSigner interface {
	Sign(ctx context.Context, tenantID id.TenantID, env id.Environment, doc *document.CanonicalDocument) (*signing.SignedDocument, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the clearance pipeline.
type Service struct {
	invoices       Store
	logs           LogStore
	signer         DocumentSigner
	submitter      regulator.Submitter
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(invoices Store, logs LogStore, signer DocumentSigner, submitter regulator.Submitter, opts ...Option) *Service {
	s := &Service{
		invoices:  invoices,
		logs:      logs,
		signer:    signer,
		submitter: submitter,
		logger:    slog.Default(),
		tracer:    otel.Tracer("fatoora/internal/invoice"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the full pipeline for a new invoice. The row is created first
// so a duplicate invoice number conflicts before any regulator traffic; the
// existing row is never touched by the duplicate attempt.
func (s *Service) Submit(ctx context.Context, payload models.Payload) (*models.Invoice, error) {
	tenantID, env, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if payload.InvoiceNumber == "" {
		return nil, derrors.New(derrors.CodeValidation, "invoice_number is required")
	}

	inv, err := models.NewInvoice(
		id.InvoiceID(uuid.New()), tenantID, payload.InvoiceNumber, env,
		payload.ParsedType(), requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.CreateIfAbsent(ctx, inv); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.Newf(derrors.CodeConflict, "invoice %s has already been submitted", payload.InvoiceNumber)
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create invoice")
	}

	return s.process(ctx, inv, payload, models.LogActionSubmit)
}

// Retry re-runs the pipeline for a FAILED or REJECTED invoice, reconstructing
// the payload from the latest processing log entry.
func (s *Service) Retry(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	tenantID, _, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "invoice not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load invoice")
	}
	if err := inv.CanRetry(); err != nil {
		return nil, err
	}

	last, err := s.logs.Latest(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeInvariantViolation, "invoice has no processing history")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load processing history")
	}

	return s.process(ctx, inv, last.Payload, models.LogActionRetry)
}

// Get returns one invoice row for the calling tenant.
func (s *Service) Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	tenantID, _, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "invoice not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load invoice")
	}
	return inv, nil
}

// History returns all processing log entries for one invoice, oldest first.
func (s *Service) History(ctx context.Context, invoiceID id.InvoiceID) ([]models.ProcessingLogEntry, error) {
	tenantID, _, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.invoices.FindByID(ctx, tenantID, invoiceID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "invoice not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load invoice")
	}
	entries, err := s.logs.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load processing history")
	}
	return entries, nil
}

// process runs one pipeline attempt. It appends exactly one log entry no
// matter which branch terminates the attempt.
func (s *Service) process(ctx context.Context, inv *models.Invoice, payload models.Payload, action models.LogAction) (*models.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.process", trace.WithAttributes(
		attribute.String("tenant_id", inv.TenantID.String()),
		attribute.String("invoice_number", inv.InvoiceNumber),
		attribute.String("environment", string(inv.Environment)),
		attribute.String("action", string(action)),
	))
	defer span.End()

	start := time.Now()
	defer s.observePipeline(start)

	entry := models.NewLogEntry(inv.ID, inv.TenantID, action, payload, requestcontext.Now(ctx))

	inv, err := s.runAttempt(ctx, inv, payload, entry)
	s.incrementSubmission(string(action), string(inv.Status))
	span.SetAttributes(attribute.String("status", string(inv.Status)))
	if err != nil {
		span.SetStatus(codes.Error, derrors.Message(err))
	}
	return inv, err
}

func (s *Service) runAttempt(ctx context.Context, inv *models.Invoice, payload models.Payload, entry *models.ProcessingLogEntry) (*models.Invoice, error) {
	if err := payload.Validate(); err != nil {
		return inv, s.reject(ctx, inv, entry, "", derrors.Message(err), err)
	}

	if err := inv.CanProcess(); err != nil {
		return inv, err
	}
	inv.ApplyProcessing(requestcontext.Now(ctx))
	if err := s.invoices.Update(ctx, inv); err != nil {
		return inv, derrors.Wrap(err, derrors.CodeInternal, "failed to update invoice")
	}

	clearance := policy.Evaluate(inv.Environment, inv.Type, policy.OperationClearance)
	if !clearance.Allowed {
		s.logAudit(ctx, audit.Event{
			TenantID:      inv.TenantID,
			Environment:   inv.Environment,
			InvoiceNumber: inv.InvoiceNumber,
			Action:        audit.ActionPolicyDenied,
			Decision:      "DENIED",
			Reason:        clearance.Reason,
		})
		err := derrors.Newf(derrors.CodePolicyViolation, "clearance not permitted: %s", clearance.Reason)
		return inv, s.reject(ctx, inv, entry, "", clearance.Reason, err)
	}

	previousHash, err := s.invoices.LatestChainHash(ctx, inv.TenantID, inv.Environment)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			wrapped := derrors.Wrap(err, derrors.CodeInternal, "failed to resolve invoice chain head")
			return inv, s.fail(ctx, inv, entry, "", wrapped)
		}
		previousHash = document.SentinelPreviousHash
	}

	doc, err := document.Generate(payload.DocumentInvoice(), document.TenantProfile{Supplier: payload.Supplier}, previousHash)
	if err != nil {
		return inv, s.fail(ctx, inv, entry, "", err)
	}
	generatedDoc := string(doc.XML)

	signed, err := s.signer.Sign(ctx, inv.TenantID, inv.Environment, doc)
	if err != nil {
		return inv, s.fail(ctx, inv, entry, generatedDoc, err)
	}

	result, err := s.submitter.Submit(ctx, signed, policy.OperationClearance, inv.Environment)
	if err != nil {
		return inv, s.fail(ctx, inv, entry, generatedDoc, err)
	}

	if !result.IsAccepted() {
		response := marshalResponse(result.Rejected)
		err := derrors.Newf(derrors.CodeRegulatorRejected, "regulator rejected invoice: %s", result.Rejected.MessageEN)
		return inv, s.reject(ctx, inv, entry, generatedDoc, response, err)
	}

	now := requestcontext.Now(ctx)
	artifacts := models.ClearedArtifacts{
		DocumentUUID:      acceptedUUID(result.Accepted, signed),
		DocumentHash:      signed.CanonicalHash,
		PreviousHash:      previousHash,
		SignedDocument:    generatedDoc,
		SignedHash:        signed.SignedHash,
		RegulatorResponse: marshalResponse(result.Accepted),
	}
	if err := inv.ApplyCleared(artifacts, now); err != nil {
		return inv, err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return inv, derrors.Wrap(err, derrors.CodeInternal, "failed to persist cleared invoice")
	}
	s.appendLog(ctx, inv, entry, generatedDoc, inv.RegulatorResponse)

	s.logger.InfoContext(ctx, "invoice cleared",
		"tenant_id", inv.TenantID,
		"invoice_number", inv.InvoiceNumber,
		"environment", inv.Environment,
		"document_uuid", inv.DocumentUUID,
	)
	s.logAudit(ctx, audit.Event{
		TenantID:      inv.TenantID,
		Environment:   inv.Environment,
		InvoiceNumber: inv.InvoiceNumber,
		Action:        audit.ActionInvoiceCleared,
		Decision:      "CLEARED",
		Reason:        "document " + inv.DocumentUUID,
	})

	s.report(ctx, inv, signed)

	return inv, nil
}

// report runs the post-clearance reporting step. Failures are logged and
// never change the invoice status: a cleared invoice stays CLEARED.
func (s *Service) report(ctx context.Context, inv *models.Invoice, signed *signing.SignedDocument) {
	reporting := policy.Evaluate(inv.Environment, inv.Type, policy.OperationReporting)
	if !reporting.Allowed {
		s.logger.InfoContext(ctx, "reporting skipped by policy",
			"tenant_id", inv.TenantID,
			"invoice_number", inv.InvoiceNumber,
			"reason", reporting.Reason,
		)
		s.incrementReportingSkipped()
		return
	}

	result, err := s.submitter.Submit(ctx, signed, policy.OperationReporting, inv.Environment)
	if err != nil {
		s.logger.WarnContext(ctx, "reporting submission failed",
			"tenant_id", inv.TenantID,
			"invoice_number", inv.InvoiceNumber,
			"error", err,
		)
		return
	}
	if !result.IsAccepted() {
		s.logger.WarnContext(ctx, "reporting submission rejected",
			"tenant_id", inv.TenantID,
			"invoice_number", inv.InvoiceNumber,
			"code", result.Rejected.Code,
		)
		return
	}

	s.logAudit(ctx, audit.Event{
		TenantID:      inv.TenantID,
		Environment:   inv.Environment,
		InvoiceNumber: inv.InvoiceNumber,
		Action:        audit.ActionInvoiceReported,
		Decision:      "REPORTED",
	})
}

func (s *Service) reject(ctx context.Context, inv *models.Invoice, entry *models.ProcessingLogEntry, generatedDoc, response string, cause error) error {
	if err := inv.ApplyRejected(response, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to persist rejected invoice")
	}
	s.appendLog(ctx, inv, entry, generatedDoc, response)
	s.logAudit(ctx, audit.Event{
		TenantID:      inv.TenantID,
		Environment:   inv.Environment,
		InvoiceNumber: inv.InvoiceNumber,
		Action:        audit.ActionInvoiceRejected,
		Decision:      "REJECTED",
		Reason:        derrors.Message(cause),
	})
	return cause
}

func (s *Service) fail(ctx context.Context, inv *models.Invoice, entry *models.ProcessingLogEntry, generatedDoc string, cause error) error {
	if err := inv.ApplyFailed(derrors.Message(cause), requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to persist failed invoice")
	}
	s.appendLog(ctx, inv, entry, generatedDoc, inv.RegulatorResponse)
	s.logger.ErrorContext(ctx, "invoice processing failed",
		"tenant_id", inv.TenantID,
		"invoice_number", inv.InvoiceNumber,
		"error", cause,
	)
	s.logAudit(ctx, audit.Event{
		TenantID:      inv.TenantID,
		Environment:   inv.Environment,
		InvoiceNumber: inv.InvoiceNumber,
		Action:        audit.ActionInvoiceFailed,
		Decision:      "FAILED",
		Reason:        derrors.Message(cause),
	})
	return cause
}

func (s *Service) appendLog(ctx context.Context, inv *models.Invoice, entry *models.ProcessingLogEntry, generatedDoc, response string) {
	entry.Finalize(inv.Status, generatedDoc, response, requestcontext.Now(ctx))
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append processing log entry",
			"invoice_id", inv.ID,
			"error", err,
		)
	}
}

func callerIdentity(ctx context.Context) (id.TenantID, id.Environment, error) {
	tenantID := requestcontext.TenantID(ctx)
	env := requestcontext.Environment(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, "", derrors.New(derrors.CodeUnauthorized, "tenant context is required")
	}
	if !env.Valid() {
		return id.TenantID{}, "", derrors.New(derrors.CodeUnauthorized, "environment context is required")
	}
	return tenantID, env, nil
}

func acceptedUUID(accepted *regulator.Accepted, signed *signing.SignedDocument) string {
	if accepted.DocumentUUID != "" {
		return accepted.DocumentUUID
	}
	return signed.DocumentUUID
}

func marshalResponse(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementSubmission(action, status string) {
	if s.metrics != nil {
		s.metrics.IncrementSubmission(action, status)
	}
}

func (s *Service) incrementReportingSkipped() {
	if s.metrics != nil {
		s.metrics.IncrementReportingSkipped()
	}
}

func (s *Service) observePipeline(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObservePipeline(start)
	}
}
