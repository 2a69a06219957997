package testutil

import (
	"context"
	"time"

	id "fatoora/pkg/domain"
	"fatoora/pkg/requestcontext"
)

// TenantContext builds a context carrying an authenticated tenant and
// environment, the way the auth middleware would for a real request.
func TenantContext(tenantID id.TenantID, env id.Environment) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), tenantID)
	return requestcontext.WithEnvironment(ctx, env)
}

// TenantContextAt additionally pins the request time.
func TenantContextAt(tenantID id.TenantID, env id.Environment, now time.Time) context.Context {
	return requestcontext.WithTime(TenantContext(tenantID, env), now)
}
