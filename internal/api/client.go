// Package api is the client for the remote finance API. It owns the two
// concerns every outgoing request shares: the bearer token, read fresh
// from the token source on each call, and the global 401 reaction, which
// fires a hook exactly once per offending response so the session store
// can clear itself no matter which view issued the call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "contas/internal/log"
)

// DefaultBaseURL is used when the environment supplies nothing.
const DefaultBaseURL = "http://localhost:3001/api"

// TokenSource supplies the current bearer token; an empty string means
// no session and the Authorization header is omitted.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Options configures a Client. Tokens and OnUnauthorized may be nil for
// unauthenticated use (tests, the login call itself works either way).
type Options struct {
	BaseURL        string
	Timeout        time.Duration // zero means no client-side timeout
	Tokens         TokenSource
	OnUnauthorized func()
	Logger         *applog.Logger
}

type Client struct {
	base           *url.URL
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	logger         *applog.Logger
}

func NewClient(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAPI)
	}
	return &Client{
		base:           base,
		http:           &http.Client{Timeout: opts.Timeout},
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger,
	}, nil
}

// Do issues one request against the remote API. body (when non-nil) is
// JSON-encoded; out (when non-nil) receives the decoded 2xx response.
// There are no retries: GETs are safe to reissue but that is the
// caller's decision.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, query, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// DoMultipart posts a single file under the given form field, used by
// the profile photo upload.
func (c *Client) DoMultipart(ctx context.Context, path, field, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create multipart field %q: %w", field, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	// Token is read fresh on every request; no caching, no staleness.
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(req.Context(), "request failed",
			applog.FieldMethod, req.Method,
			applog.FieldPath, req.URL.Path,
			applog.FieldError, err)
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(req.Context(), "request completed",
		applog.FieldMethod, req.Method,
		applog.FieldPath, req.URL.Path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Passed through unmodified for the caller to interpret.
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var body errorBody
	// A non-JSON error body is fine; the status code stands on its own.
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.text()
}
