// Package transport is the HTTP plumbing shared by all SDK scopes. It resolves
// endpoint paths against the configured base URL, authenticates requests with
// the X-API-KEY header and converts non-2xx responses into core.HTTPError.
package transport

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

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/logging"
)

const (
	// HeaderAPIKey carries the API key on every request.
	HeaderAPIKey = "X-API-KEY"
	// HeaderRequestID carries a client generated id for log correlation.
	HeaderRequestID = "X-Request-Id"
)

type (
	// Options configures a Client.
	Options struct {
		BaseURL    string
		APIKey     string
		UserAgent  string
		HTTPClient *http.Client
		Logger     logging.Logger
	}

	// Client performs authenticated requests against the Serenity Star API.
	// It is safe for concurrent use.
	Client struct {
		base      *url.URL
		apiKey    string
		userAgent string
		http      *http.Client
		logger    logging.Logger
	}

	// Request describes one outbound call. Path is relative to the base URL.
	Request struct {
		Method      string
		Path        string
		Query       url.Values
		Body        io.Reader
		ContentType string
		Accept      string
	}
)

// New constructs a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, core.NewValidationError("baseURL", fmt.Sprintf("%q is not an absolute url", opts.BaseURL))
	}
	c := &Client{
		base:      base,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		logger:    opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 100 * time.Second}
	}
	if c.logger == nil {
		c.logger = logging.NoOpLogger{}
	}
	return c, nil
}

// URL resolves path (and optional query) against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends the request. On a 2xx status the response is returned and the
// caller owns its body. Any other status is read fully and returned as
// *core.HTTPError with the body already closed.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	target := c.URL(r.Path, r.Query)
	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := core.NewID()
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set(HeaderRequestID, reqID)
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	c.logger.Debug("Sending request", "method", r.Method, "url", target, "request_id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Method, target, err)
	}

	c.logger.Debug("Received response", "method", r.Method, "url", target, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return nil, &core.HTTPError{
			Method:     r.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return resp, nil
}

// PostJSON marshals body and posts it.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body any) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, query, body, "")
}

// PostJSONStream marshals body and posts it, asking for an event stream.
func (c *Client) PostJSONStream(ctx context.Context, path string, query url.Values, body any) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, query, body, "text/event-stream")
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Delete issues a DELETE request. A nil body sends no payload.
func (c *Client) Delete(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodDelete, path, nil, body, "")
}

// PostMultipart posts a multipart form.
func (c *Client) PostMultipart(ctx context.Context, path string, query url.Values, form *Multipart) (*http.Response, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Query:       query,
		Body:        body,
		ContentType: contentType,
	})
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, body any, accept string) (*http.Response, error) {
	r := Request{Method: method, Path: path, Query: query, Accept: accept}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r.Body = bytes.NewReader(b)
		r.ContentType = "application/json"
	}
	return c.Do(ctx, r)
}

// DecodeJSON reads and closes the response body and decodes it into out using
// the naming-tolerant core decoder.
func DecodeJSON(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return &core.DecodeError{Body: body, Err: err}
	}
	if err := core.DecodeMap(raw, out); err != nil {
		return &core.DecodeError{Body: body, Err: err}
	}
	return nil
}

// Discard drains and closes a response body whose content is not needed.
func Discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
