package handler

import (
	"fatoora/internal/certificate/onboarding"
)

// OnboardingSessionResponse acknowledges a production onboarding Begin. The
// CSR and key never come back out.
type OnboardingSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
}

func NewOnboardingSessionResponse(session *onboarding.Session) OnboardingSessionResponse {
	return OnboardingSessionResponse{
		SessionID: session.ID.String(),
		Status:    string(session.Status),
		Attempts:  session.Attempts,
	}
}
