// Package backend is the typed HTTP client for the commerce backend API.
// The storefront never computes cart truth itself; every mutating call is
// followed by an authoritative refetch through this client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aureliajewels/storefront/pkg/config"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// Client talks to the commerce backend over HTTP with a bearer token per call.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	logg           *logger.Logger
	retryAttempts  uint64
	retryBaseDelay time.Duration
}

// NewClient builds a backend client from config.
func NewClient(cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend base url: %w", err)
	}
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	return &Client{
		baseURL:        base,
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout},
		logg:           logg,
		retryAttempts:  uint64(attempts),
		retryBaseDelay: baseDelay,
	}, nil
}

// SetHTTPClient swaps the underlying transport, for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type callParams struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
	out    any
	// statusMapper overrides the default status-to-error mapping when set.
	statusMapper func(status int, body []byte) error
}

// do executes one HTTP exchange and decodes the response into params.out.
func (c *Client) do(ctx context.Context, params callParams) error {
	var reader io.Reader
	if params.body != nil {
		encoded, err := json.Marshal(params.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, params.method, c.endpoint(params.path, params.query), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if params.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if params.token != "" {
		req.Header.Set("Authorization", "Bearer "+params.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read backend response")
	}

	if resp.StatusCode >= 400 {
		if params.statusMapper != nil {
			if mapped := params.statusMapper(resp.StatusCode, payload); mapped != nil {
				return mapped
			}
		}
		return c.mapStatus(resp.StatusCode, params.method, params.path)
	}

	if params.out != nil {
		if err := json.Unmarshal(payload, params.out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
		}
	}
	return nil
}

// doWithRetry wraps do with capped exponential backoff for transient failures.
// Only used for idempotent reads; mutations go through do directly.
func (c *Client) doWithRetry(ctx context.Context, params callParams) error {
	backoff := retry.WithMaxRetries(c.retryAttempts-1, retry.NewExponential(c.retryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, params)
		if err == nil {
			return nil
		}
		if pkgerrors.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) mapStatus(status int, method, path string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session rejected by backend")
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	case status >= 500:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("backend error on %s %s", method, path))
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("backend rejected %s %s (status %d)", method, path, status))
	}
}
