package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moodtrail/moodtrail/internal/domain"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/ratelimit"
)

// DefaultTimeout bounds each HTTP call.
const DefaultTimeout = 30 * time.Second

// Client talks to the MoodTrail API on behalf of one user.
type Client struct {
	baseURL    string
	userID     string
	token      string
	httpClient *http.Client
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter paces outbound requests, keyed by host.
func WithLimiter(l *ratelimit.KeyedRateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for userID at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL, userID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the user the client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// Tags returns the tag store.
func (c *Client) Tags() TaxonomyStore {
	return &taxonomyClient{c: c, collection: "tags", listKey: "tags"}
}

// Actions returns the action store.
func (c *Client) Actions() TaxonomyStore {
	return &taxonomyClient{c: c, collection: "actions", listKey: "actions"}
}

// CheckIns returns the check-in store.
func (c *Client) CheckIns() CheckInStore {
	return &checkInClient{c: c}
}

// Insights reads the action aggregates.
func (c *Client) Insights(ctx context.Context) (*domain.Insights, error) {
	var out domain.Insights
	if err := c.do(ctx, http.MethodGet, "/insights", nil, &out); err != nil {
		return nil, err
	}
	if out.TopActions == nil {
		out.TopActions = []domain.InsightAggregate{}
	}
	if out.Insights == nil {
		out.Insights = []string{}
	}
	return &out, nil
}

// Health calls the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.send(ctx, http.MethodGet, c.baseURL+"/health", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

var _ InsightReader = (*Client)(nil)

// do issues a request against the user-scoped API path.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	endpoint := c.baseURL + "/api/v1/users/" + url.PathEscape(c.userID) + path
	return c.send(ctx, method, endpoint, body, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
			return err
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("remote call",
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// decodeError turns an error response into *Error, tolerating non-JSON bodies.
func decodeError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	}
	remoteErr := &Error{Status: status, Code: domainerrors.CodeFromStatus(status)}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Code != "" {
			remoteErr.Code = domainerrors.Code(payload.Code)
		}
		remoteErr.Message = payload.Message
		remoteErr.Details = payload.Details
	}
	if remoteErr.Message == "" {
		remoteErr.Message = strings.TrimSpace(string(body))
	}
	if remoteErr.Message == "" {
		remoteErr.Message = http.StatusText(status)
	}
	return remoteErr
}
