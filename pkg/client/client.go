// Copyright 2025 Metabase MCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package client implements the Metabase REST API client used by all
// tools. It handles session authentication, request plumbing, and
// error classification; it holds no state beyond the session token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dashbridge/metabase-mcp/pkg/config"
)

// APIError describes a non-2xx response from Metabase.
type APIError struct {
	StatusCode int
	Message    string
	Data       any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("metabase API error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a single Metabase instance. Safe for concurrent use.
type Client struct {
	baseURL  string
	username string
	password string

	mu    sync.Mutex
	token string

	httpClient *http.Client
	log        *logrus.Entry
}

// New creates a Client from the given configuration. No network calls
// happen until the first request.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		token:    cfg.SessionToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logrus.WithField("component", "metabase-client"),
	}
}

// ensureSession authenticates against /api/session if no token is
// held yet. Callers must not hold c.mu.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return nil
	}
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("session expired and no credentials available for re-authentication")
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("authentication failed: %s", strings.TrimSpace(string(body))),
		}
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("session response contained no token")
	}

	c.token = session.ID
	c.log.Debug("obtained new Metabase session token")
	return nil
}

// currentToken returns the held session token.
func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// invalidateToken drops the held token if it still matches stale, so
// that only one caller re-authenticates after a 401.
func (c *Client) invalidateToken(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == stale {
		c.token = ""
	}
}

// Request performs one API call and decodes the JSON response. The
// path is relative to /api (for example "card/7"). A nil body sends
// no payload. On a 401 the client re-authenticates once and retries.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (any, int, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, 0, err
	}

	result, status, err := c.do(ctx, method, path, query, body)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
		c.log.WithField("path", path).Info("session rejected, re-authenticating")
		c.invalidateToken(c.currentToken())
		if err := c.ensureSession(ctx); err != nil {
			return nil, 0, err
		}
		return c.do(ctx, method, path, query, body)
	}
	return result, status, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (any, int, error) {
	endpoint := c.baseURL + "/api/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Metabase-Session", c.currentToken())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("metabase request")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// Some endpoints return plain text on errors.
			decoded = strings.TrimSpace(string(raw))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(resp.StatusCode, decoded),
			Data:       decoded,
		}
	}
	return decoded, resp.StatusCode, nil
}

// apiErrorMessage extracts a human-readable message from a Metabase
// error payload, which may be a string, an object with "message" or
// "errors", or arbitrary JSON.
func apiErrorMessage(status int, payload any) string {
	switch v := payload.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if errs, ok := v["errors"]; ok {
			if encoded, err := json.Marshal(errs); err == nil {
				return string(encoded)
			}
		}
	}
	return http.StatusText(status)
}
