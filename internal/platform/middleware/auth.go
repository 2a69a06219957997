package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/httputil"
	"fatoora/pkg/requestcontext"
)

// TenantClaims is what the token validator yields for an API credential.
type TenantClaims struct {
	TenantID    id.TenantID
	Environment id.Environment
}

// TokenValidator validates an API bearer token into tenant claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TenantClaims, error)
}

// TenantResolver checks that the claimed tenant exists and is active.
type TenantResolver interface {
	ResolveActive(ctx context.Context, tenantID id.TenantID) error
}

// RequireTenant authenticates the request and injects tenant ID and
// environment into the context. Inactive tenants are rejected before any
// processing starts.
func RequireTenant(validator TokenValidator, resolver TenantResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, derrors.New(derrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "token validation failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, derrors.New(derrors.CodeUnauthorized, "invalid token"))
				return
			}

			if err := resolver.ResolveActive(ctx, claims.TenantID); err != nil {
				logger.WarnContext(ctx, "tenant rejected",
					"request_id", requestcontext.RequestID(ctx),
					"tenant_id", claims.TenantID,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithTenantID(ctx, claims.TenantID)
			ctx = requestcontext.WithEnvironment(ctx, claims.Environment)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
