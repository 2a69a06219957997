// Package http assembles the API surface: public tenant enrollment and token
// issuance, and the tenant-scoped invoice and certificate routes behind
// bearer auth.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	certificatehandler "fatoora/internal/certificate/handler"
	invoicehandler "fatoora/internal/invoice/handler"
	"fatoora/internal/platform/middleware"
	tenanthandler "fatoora/internal/tenant/handler"
	"fatoora/pkg/platform/middleware/metadata"
	"fatoora/pkg/platform/middleware/requestid"
	"fatoora/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger *slog.Logger

	TokenValidator middleware.TokenValidator
	TenantResolver middleware.TenantResolver

	Tenants      *tenanthandler.Handler
	Invoices     *invoicehandler.Handler
	Certificates *certificatehandler.Handler
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Enrollment and token issuance run outside tenant auth.
	deps.Tenants.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(deps.TokenValidator, deps.TenantResolver, deps.Logger))
		deps.Invoices.Register(r)
		deps.Certificates.Register(r)
	})

	return r
}
