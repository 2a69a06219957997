package handler

import (
	"time"

	"fatoora/internal/tenant/models"
)

// CreateTenantResponse carries the one-time plaintext secret alongside the
// tenant. The secret is never retrievable again.
type CreateTenantResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Secret string         `json:"secret"`
}

// TokenResponse is the issued access token envelope.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewTokenResponse(token string, ttl time.Duration) TokenResponse {
	return TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	}
}
