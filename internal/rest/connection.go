package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modelfusion/internal/supervised"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://bigml.io/andromeda/"

	defaultTimeout = 60 * time.Second
)

var (
	ErrMissingCredentials = errors.New("api credentials are required")
	ErrNotFound           = errors.New("resource not found")
)

// APIError carries the platform's error payload for a failed call.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Config bundles the connection parameters. Zero values fall back to the
// production endpoint, a 60s HTTP client and a no-op logger.
type Config struct {
	BaseURL    string
	Username   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// Connection is an authenticated HTTP client for the remote API. It
// implements supervised.SharedRefGetter so fusion member downloads can carry
// a shared-resource provenance chain.
type Connection struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client
	log        *zap.SugaredLogger
	sharedRef  string
}

func NewConnection(cfg Config) (*Connection, error) {
	if cfg.Username == "" || cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Connection{
		baseURL:    baseURL,
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// SharedRef returns the provenance chain attached to this connection.
func (c *Connection) SharedRef() string { return c.sharedRef }

// WithSharedRef returns a copy of the connection whose downloads carry the
// given provenance chain.
func (c *Connection) WithSharedRef(ref string) supervised.ResourceGetter {
	clone := *c
	clone.sharedRef = ref
	return &clone
}

// GetResource downloads the full descriptor of one resource.
func (c *Connection) GetResource(ctx context.Context, id string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, id, nil, nil)
}

// do executes one API call. Query carries extra parameters beyond the
// credentials; body, when non-nil, is sent as JSON.
func (c *Connection) do(ctx context.Context, method, path string, query url.Values, body any) (map[string]any, error) {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
		"request_id", requestID,
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode >= 400:
		return nil, decodeAPIError(resp.StatusCode, data)
	case resp.StatusCode == http.StatusNoContent || len(data) == 0:
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return payload, nil
}

func (c *Connection) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("username", c.username)
	q.Set("api_key", c.apiKey)
	if c.sharedRef != "" {
		q.Set("shared_ref", c.sharedRef)
	}
	for key, values := range query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Code   int `json:"code"`
		Status struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Code = payload.Status.Code
		apiErr.Message = payload.Status.Message
	}
	return apiErr
}
