package regulator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fatoora/internal/platform/config"
	"fatoora/internal/policy"
	"fatoora/internal/regulator/metrics"
	"fatoora/internal/signing"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// Client is the HTTP Submitter. One instance serves both environments; the
// endpoint and API key are selected per call.
type Client struct {
	httpClient *http.Client
	cfg        config.RegulatorConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type ClientOption func(c *Client)

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient overrides the transport. Tests use it to point at httptest
// servers.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient constructs the HTTP Submitter.
func NewClient(cfg config.RegulatorConfig, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type endpoint struct {
	baseURL string
	apiKey  string
}

func (c *Client) endpoint(env id.Environment) (endpoint, error) {
	switch env {
	case id.EnvironmentSandbox:
		if c.cfg.SandboxBaseURL == "" {
			return endpoint{}, derrors.New(derrors.CodeUnavailable, "sandbox regulator endpoint is not configured")
		}
		return endpoint{baseURL: c.cfg.SandboxBaseURL, apiKey: c.cfg.SandboxAPIKey}, nil
	case id.EnvironmentProduction:
		if c.cfg.ProductionBaseURL == "" {
			return endpoint{}, derrors.New(derrors.CodeUnavailable, "production regulator endpoint is not configured")
		}
		return endpoint{baseURL: c.cfg.ProductionBaseURL, apiKey: c.cfg.ProductionAPIKey}, nil
	default:
		return endpoint{}, derrors.New(derrors.CodeValidation, "unknown environment")
	}
}

type submitRequest struct {
	UUID        string `json:"uuid"`
	InvoiceHash string `json:"invoiceHash"`
	Invoice     string `json:"invoice"`
	Signature   string `json:"signature"`
}

type acceptedResponse struct {
	DocumentUUID string `json:"documentUUID"`
	DocumentHash string `json:"documentHash"`
}

type rejectedResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func operationPath(op policy.Operation) (string, error) {
	switch op {
	case policy.OperationClearance:
		return "/invoices/clearance/single", nil
	case policy.OperationReporting:
		return "/invoices/reporting/single", nil
	default:
		return "", derrors.New(derrors.CodeValidation, "unknown regulator operation")
	}
}

// Submit posts the signed document, retrying on network errors and 5xx up to
// the configured attempt limit with exponential backoff. A 4xx is never
// retried: 400 and 422 become a Rejected result, anything else an error.
func (c *Client) Submit(ctx context.Context, doc *signing.SignedDocument, op policy.Operation, env id.Environment) (*Result, error) {
	ep, err := c.endpoint(env)
	if err != nil {
		return nil, err
	}
	path, err := operationPath(op)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(submitRequest{
		UUID:        doc.DocumentUUID,
		InvoiceHash: doc.CanonicalHash,
		Invoice:     base64.StdEncoding.EncodeToString(doc.CanonicalXML),
		Signature:   doc.Signature,
	})
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to encode submission")
	}

	start := time.Now()
	defer c.observeSubmit(op, start)

	var lastErr error
	backoff := c.cfg.InitialBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.incrementRetry(op)
			select {
			case <-ctx.Done():
				return nil, derrors.Wrap(ctx.Err(), derrors.CodeUnavailable, "regulator submission cancelled")
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, retryable, err := c.doSubmit(ctx, ep, path, body)
		if err == nil {
			c.incrementSubmission(op, result)
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.WarnContext(ctx, "regulator submission attempt failed",
			"operation", string(op),
			"environment", env,
			"attempt", attempt,
			"error", err,
		)
	}

	return nil, derrors.Wrap(lastErr, derrors.CodeUnavailable, "regulator unavailable after retries")
}

// doSubmit performs one attempt. The second return reports whether the
// failure may be retried.
func (c *Client) doSubmit(ctx context.Context, ep endpoint, path string, body []byte) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, false, derrors.Wrap(err, derrors.CodeInternal, "failed to build regulator request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ep.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ep.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("regulator request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read regulator response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
		var accepted acceptedResponse
		if err := json.Unmarshal(payload, &accepted); err != nil {
			return nil, false, derrors.Wrap(err, derrors.CodeInternal, "malformed regulator acceptance")
		}
		return &Result{Accepted: &Accepted{
			DocumentUUID: accepted.DocumentUUID,
			DocumentHash: accepted.DocumentHash,
		}}, false, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var rejected rejectedResponse
		if err := json.Unmarshal(payload, &rejected); err != nil {
			return nil, false, derrors.Wrap(err, derrors.CodeInternal, "malformed regulator rejection")
		}
		return &Result{Rejected: newRejected(rejected.Code, rejected.Detail)}, false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, derrors.New(derrors.CodeUnauthorized, "regulator rejected client credentials")

	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("regulator returned %d", resp.StatusCode)

	default:
		return nil, false, derrors.Newf(derrors.CodeInternal, "unexpected regulator status %d", resp.StatusCode)
	}
}

func newRejected(code, detail string) *Rejected {
	rejected := &Rejected{Code: code, Detail: detail}
	if entry, ok := Lookup(code); ok {
		rejected.MessageEN = entry.EN
		rejected.MessageAR = entry.AR
	} else {
		rejected.MessageEN = detail
		rejected.MessageAR = detail
	}
	return rejected
}

type csrRequest struct {
	CSR string `json:"csr"`
}

type certificateResponse struct {
	Certificate string `json:"certificate"`
}

// RequestComplianceCertificate exchanges a CSR for a compliance certificate.
// Sandbox onboarding and the first step of production issuance use it.
func (c *Client) RequestComplianceCertificate(ctx context.Context, env id.Environment, csrPEM []byte) ([]byte, error) {
	ep, err := c.endpoint(env)
	if err != nil {
		return nil, err
	}
	return c.requestCertificate(ctx, ep, "/compliance", csrPEM, "")
}

// RequestProductionCertificate exchanges a CSR plus the portal OTP for a
// production certificate. An invalid OTP comes back as an unauthorized error.
func (c *Client) RequestProductionCertificate(ctx context.Context, csrPEM []byte, otp string) ([]byte, error) {
	ep, err := c.endpoint(id.EnvironmentProduction)
	if err != nil {
		return nil, err
	}
	return c.requestCertificate(ctx, ep, "/production/csids", csrPEM, otp)
}

func (c *Client) requestCertificate(ctx context.Context, ep endpoint, path string, csrPEM []byte, otp string) ([]byte, error) {
	body, err := json.Marshal(csrRequest{CSR: base64.StdEncoding.EncodeToString(csrPEM)})
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to encode csr request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to build csr request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ep.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ep.apiKey)
	}
	if otp != "" {
		req.Header.Set("OTP", otp)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "regulator unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "read regulator response")
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var issued certificateResponse
		if err := json.Unmarshal(payload, &issued); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "malformed issuance response")
		}
		certPEM, err := base64.StdEncoding.DecodeString(issued.Certificate)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "malformed issued certificate")
		}
		return certPEM, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, derrors.New(derrors.CodeUnauthorized, "regulator rejected the one-time password")

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var rejected rejectedResponse
		if err := json.Unmarshal(payload, &rejected); err != nil {
			return nil, derrors.Newf(derrors.CodeBadRequest, "regulator rejected csr with status %d", resp.StatusCode)
		}
		return nil, derrors.New(derrors.CodeBadRequest, "regulator rejected csr: "+rejected.Detail)

	case resp.StatusCode >= 500:
		return nil, derrors.Newf(derrors.CodeUnavailable, "regulator returned %d", resp.StatusCode)

	default:
		return nil, derrors.Newf(derrors.CodeInternal, "unexpected regulator status %d", resp.StatusCode)
	}
}

func (c *Client) incrementSubmission(op policy.Operation, result *Result) {
	if c.metrics == nil {
		return
	}
	outcome := "rejected"
	if result.IsAccepted() {
		outcome = "accepted"
	}
	c.metrics.IncrementSubmission(string(op), outcome)
}

func (c *Client) incrementRetry(op policy.Operation) {
	if c.metrics != nil {
		c.metrics.IncrementRetry(string(op))
	}
}

func (c *Client) observeSubmit(op policy.Operation, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveSubmit(string(op), start)
	}
}
