// Package apiclient is the HTTP client every storefront view talks to the course backend
// through. A client bound to a session attaches the session's bearer token to each
// request and, when the backend answers 401, asks the session for exactly one refresh
// before replaying the request.
package apiclient

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

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const maxErrorBody = 1 << 20

// Session supplies the bearer token and recovers from a rejected one.
// *session.Store implements it.
type Session interface {
	oauth2.TokenSource
	// RefreshIfCurrent refreshes the access token unless the session already holds a
	// different token than rejected.
	RefreshIfCurrent(ctx context.Context, rejected string) error
}

// Client issues requests against the backend base URL.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   Session
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates an unbound client. Requests carry no bearer token until WithSession.
func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "[apiclient.New] invalid base URL %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient.New] base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    zerolog.Nop(),
		userAgent: "academy-storefront",
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// WithSession returns a copy of the client bound to s.
func (c *Client) WithSession(s Session) *Client {
	bound := *c
	bound.session = s
	return &bound
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   *MultipartForm

	// NoAuth sends the request without any Authorization header and disables the
	// refresh-and-retry cycle. Used for login, register and token refresh.
	NoAuth bool
	// Bearer overrides the session token for this request and disables the
	// refresh-and-retry cycle. Used while a login has not been committed yet.
	Bearer string
}

// Do sends req and decodes a successful JSON response into out (which may be nil).
// Failures are *errors.NetworkError when no response arrived and *errors.ResponseError
// otherwise. A failed refresh is returned as produced by the session.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, contentType, err := req.encode()
	if err != nil {
		return errors.Wrapf(err, "[Client.Do] encode %s %s", req.Method, req.Path)
	}

	retried := false
	for {
		httpReq, err := c.newRequest(ctx, req, body, contentType)
		if err != nil {
			return err
		}
		used := c.authorize(httpReq, req)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.metrics.BackendRequest(req.Method, 0)
			return &errors.NetworkError{Op: req.Method + " " + req.Path, Err: err}
		}
		c.metrics.BackendRequest(req.Method, resp.StatusCode)

		if resp.StatusCode == http.StatusUnauthorized && !retried && c.canRefresh(req, used) {
			drain(resp)
			retried = true
			c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("access token rejected, refreshing")
			if err := c.session.RefreshIfCurrent(ctx, used); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, JSON: body}, out)
}

// canRefresh reports whether a 401 for this request may trigger a refresh: only
// session-authorized requests that actually carried a token qualify.
func (c *Client) canRefresh(req Request, used string) bool {
	return c.session != nil && !req.NoAuth && req.Bearer == "" && used != ""
}

func (c *Client) newRequest(ctx context.Context, req Request, body []byte, contentType string) (*http.Request, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + req.Path
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Do] build %s %s", req.Method, req.Path)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// authorize sets the Authorization header and returns the access token it used.
func (c *Client) authorize(httpReq *http.Request, req Request) string {
	if req.NoAuth {
		return ""
	}
	if req.Bearer != "" {
		(&oauth2.Token{AccessToken: req.Bearer, TokenType: "Bearer"}).SetAuthHeader(httpReq)
		return req.Bearer
	}
	if c.session == nil {
		return ""
	}
	token, err := c.session.Token()
	if err != nil || token == nil || token.AccessToken == "" {
		return ""
	}
	token.SetAuthHeader(httpReq)
	return token.AccessToken
}

func (req Request) encode() ([]byte, string, error) {
	switch {
	case req.Form != nil:
		return req.Form.encode()
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	}
	return nil, "", nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseErrorBody(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.NetworkError{Op: "read " + resp.Request.URL.Path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &errors.ServerError{Status: resp.StatusCode, Detail: "malformed response body: " + err.Error()}
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
