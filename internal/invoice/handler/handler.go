// Package handler exposes invoice submission, retry, and lookup over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/httputil"
	"fatoora/pkg/requestcontext"
)

// Service defines the pipeline operations the handler needs.
type Service interface {
	Submit(ctx context.Context, payload models.Payload) (*models.Invoice, error)
	Retry(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error)
	Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error)
	History(ctx context.Context, invoiceID id.InvoiceID) ([]models.ProcessingLogEntry, error)
}

// Handler wires invoice routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an invoice handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts invoice routes. All of them require tenant auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/invoices", h.HandleSubmit)
	r.Get("/invoices/{invoiceID}", h.HandleGet)
	r.Get("/invoices/{invoiceID}/log", h.HandleHistory)
	r.Post("/invoices/{invoiceID}/retry", h.HandleRetry)
}

// HandleSubmit handles POST /invoices.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[SubmitInvoiceRequest](w, r, h.logger)
	if !ok {
		return
	}

	inv, err := h.service.Submit(ctx, req.Payload())
	h.writeOutcome(ctx, w, inv, err, http.StatusCreated)
}

// HandleRetry handles POST /invoices/{invoiceID}/retry.
func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invoiceID, err := parseInvoiceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inv, retryErr := h.service.Retry(ctx, invoiceID)
	h.writeOutcome(ctx, w, inv, retryErr, http.StatusOK)
}

// HandleGet handles GET /invoices/{invoiceID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := parseInvoiceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inv, err := h.service.Get(r.Context(), invoiceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewInvoiceResponse(inv))
}

// HandleHistory handles GET /invoices/{invoiceID}/log.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := parseInvoiceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.History(r.Context(), invoiceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewHistoryResponse(entries))
}

// writeOutcome renders a pipeline result. When an attempt terminates in
// REJECTED or FAILED the row still exists and is returned alongside the
// error so callers see the recorded state without a second round trip.
func (h *Handler) writeOutcome(ctx context.Context, w http.ResponseWriter, inv *models.Invoice, err error, successStatus int) {
	if err == nil {
		httputil.WriteJSON(w, successStatus, NewInvoiceResponse(inv))
		return
	}

	h.logger.WarnContext(ctx, "invoice attempt did not clear",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)

	if inv == nil || !inv.Status.IsTerminal() {
		httputil.WriteError(w, err)
		return
	}

	code := derrors.GetCode(err)
	body := struct {
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description,omitempty"`
		Invoice          InvoiceResponse `json:"invoice"`
	}{
		Error:   string(code),
		Invoice: NewInvoiceResponse(inv),
	}
	switch code {
	case derrors.CodeInternal, derrors.CodeUnavailable:
	default:
		body.ErrorDescription = derrors.Message(err)
	}
	httputil.WriteJSON(w, httputil.StatusFor(code), body)
}

func parseInvoiceID(r *http.Request) (id.InvoiceID, error) {
	invoiceID, err := id.ParseInvoiceID(chi.URLParam(r, "invoiceID"))
	if err != nil {
		return id.InvoiceID{}, derrors.New(derrors.CodeBadRequest, "invalid invoice id")
	}
	return invoiceID, nil
}
