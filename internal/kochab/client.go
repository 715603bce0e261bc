// CLASSIFICATION: COMMUNITY
// Filename: client.go v0.1
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package kochab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultKeyHeader = "X-Api-Key"
	maxBodyBytes     = 1 << 20
)

var (
	// ErrAccessDenied is returned when the gate is closed. No request is made.
	ErrAccessDenied = errors.New("api access not allowed")
	// ErrRateLimited is returned when the outbound quota guard has no tokens.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrUpstreamHTTP wraps non-200 upstream responses.
	ErrUpstreamHTTP = errors.New("upstream http error")
	// ErrUpstreamContentType wraps responses that are not application/json.
	ErrUpstreamContentType = errors.New("upstream content-type error")
	// ErrUpstreamParse wraps bodies that do not decode to a JSON object.
	ErrUpstreamParse = errors.New("upstream parse error")
)

// HTTPError carries the unexpected upstream status code.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("http status %d", e.Status) }

func (e *HTTPError) Unwrap() error { return ErrUpstreamHTTP }

// ContentTypeError carries the content type the upstream answered with.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("wrong content-type: %q", e.ContentType)
}

func (e *ContentTypeError) Unwrap() error { return ErrUpstreamContentType }

// JSON is a decoded upstream object.
type JSON map[string]any

// KeySource supplies the upstream API key at call time.
type KeySource interface {
	APIKey() string
}

// ClientConfig tunes the upstream client. Zero values pick defaults; a zero
// Limit disables the quota guard.
type ClientConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Keys       KeySource
	KeyHeader  string
	Limit      rate.Limit
	Burst      int
}

// Client issues single gated GET requests against a JSON API.
type Client struct {
	gate      *Gate
	http      *http.Client
	timeout   time.Duration
	keys      KeySource
	keyHeader string
	limiter   *rate.Limiter
}

// NewClient builds a client guarded by gate.
func NewClient(gate *Gate, cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	header := cfg.KeyHeader
	if header == "" {
		header = defaultKeyHeader
	}
	c := &Client{gate: gate, http: hc, timeout: timeout, keys: cfg.Keys, keyHeader: header}
	if cfg.Limit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.Limit, burst)
	}
	return c
}

// GetJSON fetches url and decodes the body as a JSON object. The status must
// be exactly 200 and the content type exactly application/json.
func (c *Client) GetJSON(ctx context.Context, url string) (JSON, error) {
	if c == nil {
		return nil, errors.New("kochab client not initialised")
	}
	if !c.gate.Allowed() {
		return nil, ErrAccessDenied
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.keys != nil {
		if key := c.keys.APIKey(); key != "" {
			req.Header.Set(c.keyHeader, key)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &HTTPError{Status: resp.StatusCode}
	}
	if mime := resp.Header.Get("Content-Type"); mime != "application/json" {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &ContentTypeError{ContentType: mime}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrUpstreamParse, maxBodyBytes)
	}
	var data JSON
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamParse, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: body is not a json object", ErrUpstreamParse)
	}
	return data, nil
}
