// Package api provides the HTTP client for the PonziWorld backend.
// All monetary fields travel as decimal strings; non-2xx responses carry
// {"error": string}, which is surfaced verbatim. Failed calls are never
// retried here — the user retries explicitly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/port"
)

var tracer = otel.Tracer("infra/api")

// Client wraps HTTP calls to the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     port.TokenSource
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a backend client. tokens supplies the bearer token for
// authenticated endpoints; Login itself goes out unauthenticated.
func NewClient(httpClient *http.Client, baseURL string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		cb:         cb,
		metrics:    metrics,
		logger:     logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// do executes one request through the circuit breaker and maps failures to
// the engine's error taxonomy: transport failure → ErrNetwork, non-2xx →
// ErrRemoteRejected with the server's message verbatim.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any, authenticated bool) error {
	ctx, span := tracer.Start(ctx, "api."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path))

	start := time.Now()
	defer func() {
		c.metrics.RecordFetchDuration(op, time.Since(start))
	}()

	_, err := c.cb.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		if authenticated {
			token, err := c.tokens.Token()
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("api: request failed before a response",
				zap.String("op", op),
				zap.String("path", path),
				zap.Error(err),
			)
			return nil, &domain.ErrNetwork{Op: op, Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &domain.ErrNetwork{Op: op, Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var eb errorBody
			_ = json.Unmarshal(raw, &eb)
			c.logger.Warn("api: non-2xx",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("error", eb.Error),
			)
			return nil, &domain.ErrRemoteRejected{Status: resp.StatusCode, Message: eb.Error}
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, fmt.Errorf("api %s: decoding response: %w", op, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// get issues an authenticated GET.
func (c *Client) get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out, true)
}

// post issues an authenticated POST.
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, body, out, true)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp domain.LoginResponse
	err := c.do(ctx, "Login", http.MethodPost, "/api/login",
		&domain.LoginRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}
