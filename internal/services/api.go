// API service for making HTTP requests to the summarization service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultRateLimit = 5.0

// APIService provides methods for making HTTP requests to the summarization service.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures an [APIService].
type Option func(*APIService)

// WithRateLimit sets the number of requests per second. Non-positive values keep the default.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPIService creates a new API service instance for the summarization service.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = shared.DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:     shared.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the service root every path is resolved against.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Detail returns the human-readable message of an error body, read from "detail" and then "error".
func (r *APIResponse) Detail() string {
	if !gjson.ValidBytes(r.Body) {
		return ""
	}
	for _, key := range []string{"detail", "error"} {
		if v := gjson.GetBytes(r.Body, key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// Unwrap maps 401 to [shared.ErrUnauthorized] and every other status to [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return shared.ErrUnauthorized
	}
	return shared.ErrAPIRequest
}

func newAPIError(resp *APIResponse) *APIError {
	return &APIError{Status: resp.StatusCode, Detail: resp.Detail()}
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, src oauth2.TokenSource) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, "", src)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, src oauth2.TokenSource) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", src)
}

func (a *APIService) do(
	ctx context.Context,
	method, path string,
	body io.Reader,
	contentType string,
	src oauth2.TokenSource,
) (*APIResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	authorize(req, src)

	a.logger.Debug("request", "method", method, "path", path, "authorized", req.Header.Get("Authorization") != "")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}

	a.logger.Debug("response", "method", method, "path", path, "status", resp.StatusCode)

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// authorize attaches the bearer header when src yields a usable token.
func authorize(req *http.Request, src oauth2.TokenSource) {
	if src == nil {
		return
	}
	tok, err := src.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

// decode unmarshals a 2xx body, classifying failures as [shared.ErrDecode].
func decode(resp *APIResponse, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	return nil
}
