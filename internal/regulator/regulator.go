// Package regulator talks to the tax authority's clearance and reporting API
// and to its certificate issuance endpoints.
package regulator

import (
	"context"

	"fatoora/internal/policy"
	"fatoora/internal/signing"
	id "fatoora/pkg/domain"
)

//go:generate mockgen -source=regulator.go -destination=mocks/mocks.go -package=mocks Submitter

// Submitter sends a signed document to the regulator for the given
// operation. Implementations select the endpoint by environment.
type Submitter interface {
	Submit(ctx context.Context, doc *signing.SignedDocument, op policy.Operation, env id.Environment) (*Result, error)
}

// Result is the regulator's verdict on a submission. Exactly one of
// Accepted or Rejected is set; transport failures are returned as errors,
// never as a Result.
type Result struct {
	Accepted *Accepted
	Rejected *Rejected
}

// Accepted carries the regulator's receipt.
type Accepted struct {
	DocumentUUID string `json:"document_uuid"`
	DocumentHash string `json:"document_hash"`
}

// Rejected carries the regulator's rejection code with catalog text in both
// languages.
type Rejected struct {
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	MessageEN string `json:"message_en"`
	MessageAR string `json:"message_ar"`
}

func (r *Result) IsAccepted() bool {
	return r != nil && r.Accepted != nil
}
