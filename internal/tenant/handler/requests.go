package handler

import (
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// CreateTenantRequest enrolls a new tenant.
type CreateTenantRequest struct {
	Name               string `json:"name"`
	DefaultEnvironment string `json:"default_environment"`
}

func (r CreateTenantRequest) Validate() error {
	if r.Name == "" {
		return derrors.New(derrors.CodeValidation, "name is required")
	}
	if _, err := id.ParseEnvironment(r.DefaultEnvironment); err != nil {
		return derrors.New(derrors.CodeValidation, "default_environment must be SANDBOX or PRODUCTION")
	}
	return nil
}

func (r CreateTenantRequest) ParsedEnvironment() id.Environment {
	env, _ := id.ParseEnvironment(r.DefaultEnvironment)
	return env
}

// TokenRequest exchanges tenant credentials for an access token.
type TokenRequest struct {
	TenantID    string `json:"tenant_id"`
	Secret      string `json:"secret"`
	Environment string `json:"environment,omitempty"`
}

func (r TokenRequest) Validate() error {
	if _, err := id.ParseTenantID(r.TenantID); err != nil {
		return derrors.New(derrors.CodeValidation, "tenant_id must be a valid UUID")
	}
	if r.Secret == "" {
		return derrors.New(derrors.CodeValidation, "secret is required")
	}
	if r.Environment != "" {
		if _, err := id.ParseEnvironment(r.Environment); err != nil {
			return derrors.New(derrors.CodeValidation, "environment must be SANDBOX or PRODUCTION")
		}
	}
	return nil
}

func (r TokenRequest) ParsedTenantID() id.TenantID {
	tenantID, _ := id.ParseTenantID(r.TenantID)
	return tenantID
}

func (r TokenRequest) ParsedEnvironment() id.Environment {
	if r.Environment == "" {
		return ""
	}
	env, _ := id.ParseEnvironment(r.Environment)
	return env
}
