package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatoora/internal/tenant/handler"
	"fatoora/internal/tenant/service"
	"fatoora/internal/tenant/store"
	"fatoora/internal/tenant/token"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	issuer := token.NewService("test-signing-key", "fatoora-test")
	svc := service.New(store.NewInMemory(), issuer)
	h := handler.New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateTenantAndIssueToken(t *testing.T) {
	r := newRouter(t)

	rec := postJSON(t, r, "/tenants", map[string]string{
		"name":                "Acme Trading LLC",
		"default_environment": "SANDBOX",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Secret)

	rec = postJSON(t, r, "/auth/token", map[string]string{
		"tenant_id": created.Tenant.ID,
		"secret":    created.Secret,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	assert.NotEmpty(t, tokenResp.AccessToken)
	assert.Equal(t, "Bearer", tokenResp.TokenType)
	assert.Positive(t, tokenResp.ExpiresIn)
}

func TestCreateTenantValidation(t *testing.T) {
	r := newRouter(t)

	rec := postJSON(t, r, "/tenants", map[string]string{"name": "", "default_environment": "SANDBOX"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, r, "/tenants", map[string]string{"name": "Acme", "default_environment": "STAGING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenWithWrongSecret(t *testing.T) {
	r := newRouter(t)

	rec := postJSON(t, r, "/tenants", map[string]string{
		"name":                "Acme Trading LLC",
		"default_environment": "SANDBOX",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = postJSON(t, r, "/auth/token", map[string]string{
		"tenant_id": created.Tenant.ID,
		"secret":    "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeactivateBlocksTokenIssuance(t *testing.T) {
	r := newRouter(t)

	rec := postJSON(t, r, "/tenants", map[string]string{
		"name":                "Acme Trading LLC",
		"default_environment": "SANDBOX",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = postJSON(t, r, "/tenants/"+created.Tenant.ID+"/deactivate", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(t, r, "/auth/token", map[string]string{
		"tenant_id": created.Tenant.ID,
		"secret":    created.Secret,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUnknownTenant(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
