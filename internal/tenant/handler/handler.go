package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fatoora/internal/tenant/models"
	"fatoora/internal/tenant/service"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/httputil"
	"fatoora/pkg/requestcontext"
)

// Service defines the tenant operations the handler needs.
type Service interface {
	Create(ctx context.Context, name string, defaultEnv id.Environment) (*models.Tenant, string, error)
	Authenticate(ctx context.Context, tenantID id.TenantID, secret string, env id.Environment) (string, error)
	Get(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Deactivate(ctx context.Context, tenantID id.TenantID) error
	Reactivate(ctx context.Context, tenantID id.TenantID) error
}

// Handler wires tenant enrollment and token endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tenant handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant routes. These run outside the tenant auth
// middleware: the token endpoint is what produces credentials in the first
// place, and enrollment is operator-facing.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants", h.HandleCreate)
	r.Post("/auth/token", h.HandleToken)
	r.Get("/tenants/{tenantID}", h.HandleGet)
	r.Post("/tenants/{tenantID}/deactivate", h.HandleDeactivate)
	r.Post("/tenants/{tenantID}/reactivate", h.HandleReactivate)
}

// HandleCreate handles POST /tenants.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CreateTenantRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, secret, err := h.service.Create(ctx, req.Name, req.ParsedEnvironment())
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateTenantResponse{Tenant: tenant, Secret: secret})
}

// HandleToken handles POST /auth/token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[TokenRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.Authenticate(ctx, req.ParsedTenantID(), req.Secret, req.ParsedEnvironment())
	if err != nil {
		h.logger.WarnContext(ctx, "token issuance refused",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", req.TenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewTokenResponse(token, service.DefaultTokenTTL))
}

// HandleGet handles GET /tenants/{tenantID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid tenant id"))
		return
	}

	tenant, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

// HandleDeactivate handles POST /tenants/{tenantID}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Deactivate)
}

// HandleReactivate handles POST /tenants/{tenantID}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Reactivate)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.TenantID) error) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid tenant id"))
		return
	}
	if err := apply(r.Context(), tenantID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
