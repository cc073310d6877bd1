package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBasePath  = "/api/v1"
	RequestIDHeader  = "X-Request-ID"
	maxResponseBytes = 8 << 20
	refreshPath      = "/auth/refresh"
)

type Config struct {
	// BaseURL is the server origin, for example https://crm.atlas.tld.
	BaseURL  string
	BasePath string

	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// Client issues authenticated JSON requests. A 401 triggers a single token
// refresh and one retry; a failed refresh clears the session and redirects
// to login.
type Client struct {
	baseURL        *url.URL
	basePath       string
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         *log.Logger

	tokens  ports.TokenSource
	nav     ports.Navigator
	refresh singleflight.Group
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded. A nil Body sends no request body.
	Body   any
	Header http.Header
	// SkipAuth sends the request without a bearer token and returns a 401
	// to the caller instead of attempting a refresh.
	SkipAuth bool
}

func New(cfg Config, tokens ports.TokenSource, nav ports.Navigator) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		baseURL:        base,
		basePath:       "/" + strings.Trim(basePath, "/"),
		httpClient:     httpClient,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
		tokens:         tokens,
		nav:            nav,
	}, nil
}

// BaseURL returns the configured server origin.
func (c *Client) BaseURL() *url.URL {
	copied := *c.baseURL
	return &copied
}

// Do sends req and decodes a successful JSON response into out, which may be
// nil. A 204 is never parsed: a *map[string]any out becomes an empty map and
// any other out is left untouched.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	sentToken := ""
	if !req.SkipAuth {
		sentToken = c.tokens.Tokens().AccessToken
	}

	status, body, err := c.send(ctx, req, sentToken)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !req.SkipAuth {
		if !c.refreshTokens(ctx, sentToken) {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.forceLogout(context.WithoutCancel(ctx))
			return domain.ErrUnauthorized
		}

		status, body, err = c.send(ctx, req, c.tokens.Tokens().AccessToken)
		if err != nil {
			return err
		}
		if !isSuccess(status) {
			return domain.NewRequestError(status, "")
		}
		return decodeBody(status, body, out)
	}

	if !isSuccess(status) {
		return domain.NewRequestError(status, errorDetail(body))
	}

	return decodeBody(status, body, out)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) send(ctx context.Context, req Request, accessToken string) (int, []byte, error) {
	endpoint, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return 0, nil, err
	}

	var payload io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
		payload = bytes.NewReader(encoded)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s %s request: %w", method, req.Path, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s response: %w", method, req.Path, err)
	}

	c.logger.Printf("http: %s %s -> %d (%s, id=%s)", method, req.Path, resp.StatusCode, time.Since(started).Round(time.Millisecond), httpReq.Header.Get(RequestIDHeader))
	return resp.StatusCode, body, nil
}

// refreshTokens reports whether a usable access token is available after a
// 401 for sentToken. Concurrent callers share one refresh call, which outlives
// any single caller's cancellation.
func (c *Client) refreshTokens(ctx context.Context, sentToken string) bool {
	if current := c.tokens.Tokens().AccessToken; current != "" && current != sentToken {
		return true
	}

	refreshToken := c.tokens.Tokens().RefreshToken
	if refreshToken == "" {
		return false
	}

	shared := context.WithoutCancel(ctx)
	done := c.refresh.DoChan(refreshToken, func() (any, error) {
		return c.exchangeRefreshToken(shared, refreshToken), nil
	})
	select {
	case <-ctx.Done():
		return false
	case result := <-done:
		ok, _ := result.Val.(bool)
		return ok
	}
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) bool {
	status, body, err := c.send(ctx, Request{
		Method:   http.MethodPost,
		Path:     refreshPath,
		Body:     map[string]string{"refresh_token": refreshToken},
		SkipAuth: true,
	}, "")
	if err != nil {
		c.logger.Printf("auth: refresh failed: %v", err)
		return false
	}
	if !isSuccess(status) {
		c.logger.Printf("auth: refresh rejected with status %d", status)
		return false
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.AccessToken == "" {
		c.logger.Printf("auth: malformed refresh response")
		return false
	}
	if err := c.tokens.ReplaceTokens(ctx, pair); err != nil {
		c.logger.Printf("auth: persist refreshed tokens: %v", err)
		return false
	}

	return true
}

func (c *Client) forceLogout(ctx context.Context) {
	if err := c.tokens.ClearSession(ctx); err != nil {
		c.logger.Printf("auth: clear session: %v", err)
	}
	if c.nav != nil {
		c.nav.ToLogin(domain.ErrUnauthorized)
	}
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	if path == "" {
		return "", errors.New("api path is required")
	}

	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + c.basePath + "/" + strings.TrimLeft(path, "/")
	endpoint.RawQuery = ""
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || c.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func decodeBody(status int, body []byte, out any) error {
	if status == http.StatusNoContent {
		if m, ok := out.(*map[string]any); ok {
			*m = map[string]any{}
		}
		return nil
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// errorDetail extracts a string `detail` from an error body. Validation
// errors carry a list there; those fall back to the generic message.
func errorDetail(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
