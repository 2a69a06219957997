// Package token issues and validates tenant API access tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fatoora/internal/platform/middleware"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// Claims are the JWT claims carried by a tenant access token.
type Claims struct {
	TenantID    string `json:"tenant_id"`
	Environment string `json:"environment"`
	jwt.RegisteredClaims
}

// Service signs and validates HS256 tenant tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// Issue signs a token binding the tenant to one environment for its
// lifetime.
func (s *Service) Issue(tenantID id.TenantID, env id.Environment, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID:    tenantID.String(),
		Environment: env.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, yielding the claims the auth
// middleware consumes.
func (s *Service) ValidateToken(tokenString string) (*middleware.TenantClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, derrors.New(derrors.CodeUnauthorized, "token has expired")
		}
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token claims")
	}

	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid tenant id in token")
	}
	env, err := id.ParseEnvironment(claims.Environment)
	if err != nil {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid environment in token")
	}
	return &middleware.TenantClaims{TenantID: tenantID, Environment: env}, nil
}
