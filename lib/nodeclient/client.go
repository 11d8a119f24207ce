// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeclient speaks the Hyperliquid info protocol: POST /info
// with a JSON body whose "type" selects the query. The same shape works
// against a local node started with --serve-info and against the public
// API hosts, so one client covers both the preferred and the fallback
// data path.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultLocalURL is where a local hl-node serves info queries.
const DefaultLocalURL = "http://localhost:3001"

const (
	defaultLocalTimeout  = 5 * time.Second
	defaultPublicTimeout = 10 * time.Second
)

// Client queries one info endpoint, local or public.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewLocal returns a client for a local node's info endpoint. Local
// queries use a tight timeout: the whole point of the node is latency,
// and a slow local node is a broken one.
func NewLocal(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	return newClient(baseURL, defaultLocalTimeout, opts...)
}

// NewPublic returns a client for a public API host, with the more
// generous timeout remote round trips need.
func NewPublic(baseURL string, opts ...Option) *Client {
	return newClient(baseURL, defaultPublicTimeout, opts...)
}

func newClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint this client queries.
func (c *Client) BaseURL() string { return c.baseURL }

// infoRequest posts an info query and decodes the JSON response into a
// generic map. Callers that only probe reachability discard the body.
func (c *Client) infoRequest(ctx context.Context, body map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("info query %q: unexpected status %s", body["type"], resp.Status)
	}

	// Some info responses are objects, some are arrays. Decode into any
	// and hand back the object form when there is one.
	var result any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding info response: %w", err)
	}
	obj, _ := result.(map[string]any)
	return obj, nil
}

// ExchangeStatus queries the exchange status. This is the canonical
// local-node liveness probe.
func (c *Client) ExchangeStatus(ctx context.Context) error {
	_, err := c.infoRequest(ctx, map[string]any{"type": "exchangeStatus"})
	return err
}

// Meta queries exchange metadata. This is the canonical public-API
// reachability probe.
func (c *Client) Meta(ctx context.Context) error {
	_, err := c.infoRequest(ctx, map[string]any{"type": "meta"})
	return err
}

// Healthy reports whether the endpoint answers its liveness probe.
func (c *Client) Healthy(ctx context.Context) bool {
	if err := c.ExchangeStatus(ctx); err != nil {
		c.logger.Warn("info endpoint probe failed",
			slog.String("base_url", c.baseURL), slog.Any("error", err))
		return false
	}
	return true
}
