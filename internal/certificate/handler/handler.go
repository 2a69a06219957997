// Package handler exposes certificate installation and regulator onboarding
// over HTTP. All routes require tenant auth; the environment comes from the
// caller's token.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fatoora/internal/certificate/models"
	"fatoora/internal/certificate/onboarding"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/httputil"
	"fatoora/pkg/requestcontext"
)

// CertificateService defines the lifecycle operations the handler needs.
type CertificateService interface {
	Upload(ctx context.Context, tenantID id.TenantID, env id.Environment, certPEM, keyPEM []byte) (*models.Certificate, error)
	Active(ctx context.Context, tenantID id.TenantID, env id.Environment) (*models.Certificate, error)
	List(ctx context.Context, tenantID id.TenantID) ([]*models.Certificate, error)
}

// OnboardingService defines the CSR flows the handler needs.
type OnboardingService interface {
	SubmitCSR(ctx context.Context, tenantID id.TenantID, csrPEM, keyPEM []byte) (*models.Certificate, error)
	Begin(ctx context.Context, tenantID id.TenantID, csrPEM, keyPEM []byte, org onboarding.OrgInfo) (*onboarding.Session, error)
	Complete(ctx context.Context, tenantID id.TenantID, otp string) (*models.Certificate, error)
}

// Handler wires certificate and onboarding routes.
type Handler struct {
	certs      CertificateService
	onboarding OnboardingService
	logger     *slog.Logger
}

// New constructs a certificate handler.
func New(certs CertificateService, onboardingService OnboardingService, logger *slog.Logger) *Handler {
	return &Handler{certs: certs, onboarding: onboardingService, logger: logger}
}

// Register mounts certificate and onboarding routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleUpload)
	r.Get("/certificates", h.HandleList)
	r.Get("/certificates/active", h.HandleActive)
	r.Post("/onboarding/sandbox", h.HandleSandboxOnboarding)
	r.Post("/onboarding/production", h.HandleBeginProduction)
	r.Post("/onboarding/production/complete", h.HandleCompleteProduction)
}

// HandleUpload handles POST /certificates.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[UploadCertificateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.certs.Upload(ctx,
		requestcontext.TenantID(ctx), requestcontext.Environment(ctx),
		[]byte(req.CertificatePEM), []byte(req.PrivateKeyPEM),
	)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate upload refused",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

// HandleList handles GET /certificates.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certs, err := h.certs.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]*models.Certificate{"certificates": certs})
}

// HandleActive handles GET /certificates/active.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cert, err := h.certs.Active(ctx, requestcontext.TenantID(ctx), requestcontext.Environment(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

// HandleSandboxOnboarding handles POST /onboarding/sandbox.
func (h *Handler) HandleSandboxOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[OnboardingRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.onboarding.SubmitCSR(ctx, requestcontext.TenantID(ctx), []byte(req.CSRPEM), []byte(req.PrivateKeyPEM))
	if err != nil {
		h.logger.WarnContext(ctx, "sandbox onboarding failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

// HandleBeginProduction handles POST /onboarding/production.
func (h *Handler) HandleBeginProduction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[OnboardingRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.onboarding.Begin(ctx, requestcontext.TenantID(ctx), []byte(req.CSRPEM), []byte(req.PrivateKeyPEM), req.OrgInfo())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, NewOnboardingSessionResponse(session))
}

// HandleCompleteProduction handles POST /onboarding/production/complete.
func (h *Handler) HandleCompleteProduction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CompleteOnboardingRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.onboarding.Complete(ctx, requestcontext.TenantID(ctx), req.OTP)
	if err != nil {
		h.logger.WarnContext(ctx, "production onboarding completion failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}
