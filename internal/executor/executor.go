// Package executor sends authenticated requests to the vendor API, layering
// token freshness, a reactive re-auth on 401 and transport-level retries
// with exponential backoff on top of a plain HTTP client.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"utec-gateway/internal/circuitbreaker"
	"utec-gateway/internal/common/errors"
	commonhttp "utec-gateway/internal/common/http"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/common/utils"
	"utec-gateway/internal/token"
)

// DefaultMaxRetries bounds transport-level retries per request. The first
// attempt plus retries gives three tries total.
const DefaultMaxRetries = 2

const maxResponseBytes = 4 << 20

// Response is the outcome of an executed request. Body holds the parsed
// JSON payload when the response body is valid JSON, nil otherwise; RawBody
// always holds the bytes as received.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	RawBody    []byte
	Body       interface{}
	Duration   time.Duration
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Executor owns the retry and re-auth policy for vendor API calls. It never
// retries on HTTP status codes other than the single 401 re-auth; non-2xx
// responses are returned to the caller as-is.
type Executor struct {
	tokens     *token.Manager
	client     *nethttp.Client
	breaker    *circuitbreaker.Breaker
	backoff    utils.BackoffConfig
	maxRetries int
	logger     logging.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(e *Executor) { e.client = client }
}

// WithMaxRetries overrides the transport retry budget.
func WithMaxRetries(n int) Option {
	return func(e *Executor) { e.maxRetries = n }
}

// WithBackoff overrides the retry backoff schedule.
func WithBackoff(cfg utils.BackoffConfig) Option {
	return func(e *Executor) { e.backoff = cfg }
}

// New builds an executor bound to a token manager.
func New(tokens *token.Manager, logger logging.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	e := &Executor{
		tokens:     tokens,
		client:     commonhttp.NewHTTPClient(),
		backoff:    utils.DefaultBackoffConfig(),
		maxRetries: DefaultMaxRetries,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.breaker == nil {
		e.breaker = circuitbreaker.New("device-api", circuitbreaker.DeviceAPIConfig, logger)
	}
	return e
}

// Execute sends the request with a valid access token. Headers are rebuilt
// from the current credential on every attempt so a mid-flight refresh is
// picked up. It returns an error only when no HTTP response was obtained.
func (e *Executor) Execute(ctx context.Context, method, url string, body []byte) (*Response, error) {
	reauthed := false

	for attempt := 0; ; attempt++ {
		if err := e.tokens.EnsureValid(ctx); err != nil {
			return nil, err
		}

		resp, err := e.doRequest(ctx, method, url, body)
		if err != nil {
			if attempt >= e.maxRetries {
				return nil, errors.TransportError(
					fmt.Sprintf("request to %s failed after %d attempts", url, attempt+1), err)
			}
			e.logger.Warn("Request failed, retrying",
				logging.String("url", url),
				logging.Int("attempt", attempt),
				logging.Err(err))
			if sleepErr := e.backoff.Sleep(ctx, attempt); sleepErr != nil {
				return nil, errors.TransportError("retry wait interrupted", sleepErr)
			}
			continue
		}

		// One reactive refresh per request. A second 401, or a failed
		// refresh, surfaces the response so the caller sees the vendor's
		// verdict.
		if resp.StatusCode == nethttp.StatusUnauthorized && !reauthed && attempt < e.maxRetries {
			reauthed = true
			e.logger.Info("Received 401, forcing token refresh", logging.String("url", url))
			if refreshErr := e.tokens.ForceRefresh(ctx); refreshErr != nil {
				e.logger.Warn("Re-auth refresh failed", logging.Err(refreshErr))
				return resp, nil
			}
			continue
		}

		return resp, nil
	}
}

// doRequest performs a single attempt inside the circuit breaker.
func (e *Executor) doRequest(ctx context.Context, method, url string, body []byte) (*Response, error) {
	var result *Response
	err := e.breaker.Execute(ctx, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return errors.InternalError("build request", err)
		}

		cred := e.tokens.Credential()
		if cred == nil {
			return errors.AuthUnavailableError("no credential available")
		}
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		req.Header.Set("accessKey", cred.ClientID)
		req.Header.Set("secretKey", cred.ClientSecret)
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		httpResp, err := e.client.Do(req)
		if err != nil {
			return errors.TransportError("request failed", err)
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		if err != nil {
			return errors.TransportError("read response body", err)
		}

		resp := &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			RawBody:    raw,
			Duration:   time.Since(start),
		}
		var parsed interface{}
		if json.Unmarshal(raw, &parsed) == nil {
			resp.Body = parsed
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
