// Package gateway is the HTTP client of the university backend. Every method
// maps one backend resource, attaches the session's bearer token and turns
// transport failures and non-2xx statuses into typed application errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// Observer receives one sample per backend call.
type Observer interface {
	ObserveUpstreamCall(resource string, status int, duration time.Duration)
}

type tokenKey struct{}

// ContextWithToken attaches the backend bearer token to ctx.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached by ContextWithToken.
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}

// Client talks to the university backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	observer   Observer
}

// New builds a Client. A nil httpClient uses DefaultHTTPClient(0).
func New(baseURL string, httpClient *http.Client, logger *zap.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		observer:   observer,
	}
}

// DefaultHTTPClient returns a client with the given timeout, 10s when zero.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	resource string
	method   string
	path     string
	query    url.Values
	body     interface{}
}

func (c *Client) do(ctx context.Context, in call, out interface{}) error {
	if c.baseURL == "" {
		return appErrors.Clone(appErrors.ErrUpstream, "backend base URL not configured")
	}

	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode backend request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(in.resource, 0, time.Since(start))
		c.logger.Warn("backend call failed",
			zap.String("resource", in.resource),
			zap.String("method", in.method),
			zap.Error(err))
		return transportError(ctx, err)
	}
	defer resp.Body.Close()
	c.observe(in.resource, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("backend returned error status",
			zap.String("resource", in.resource),
			zap.Int("status", resp.StatusCode))
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read backend response")
	}
	if err := json.Unmarshal(unwrapData(raw), out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
			fmt.Sprintf("decode %s response", in.resource))
	}
	return nil
}

func (c *Client) observe(resource string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(resource, status, d)
	}
}

// unwrapData strips a {"data": ...} envelope when the backend uses one.
func unwrapData(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if data, ok := envelope["data"]; ok && len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		return data
	}
	return trimmed
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, appErrors.ErrUpstreamTimeout.Message)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, appErrors.ErrUpstreamTimeout.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
}

func statusError(status int, raw []byte) error {
	message := backendMessage(raw)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUnauthorized, message)
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return appErrors.Clone(appErrors.ErrValidation, message)
	case http.StatusConflict:
		return appErrors.Clone(appErrors.ErrConflict, message)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return appErrors.Clone(appErrors.ErrUpstreamTimeout, message)
	default:
		return appErrors.Wrap(fmt.Errorf("backend status %d", status),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}

// backendMessage extracts a human readable message from an error body.
func backendMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
