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

// Package config holds the process configuration for the Metabase MCP
// server: where the Metabase instance lives, how to authenticate, and
// how the MCP side is transported.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TransportType defines the transport mechanism for the MCP server
type TransportType string

const (
	TransportTypeHTTP  TransportType = "http"
	TransportTypeStdio TransportType = "stdio"
)

// IsValid returns true if the transport type is valid.
func (t TransportType) IsValid() bool {
	switch t {
	case TransportTypeHTTP, TransportTypeStdio:
		return true
	default:
		return false
	}
}

// DefaultResponseSizeLimit caps tool responses at roughly the size an
// assistant context window can usefully absorb.
const DefaultResponseSizeLimit = 100000

// Config holds everything the server needs to talk to one Metabase
// instance. State of record lives in Metabase; this process persists
// nothing.
type Config struct {
	URL          string        `json:"url"`
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	SessionToken string        `json:"-"`
	Transport    TransportType `json:"transport"`
	Port         string        `json:"port"`

	// ResponseSizeLimit is the maximum tool response size in
	// characters before the payload is replaced with a size error.
	ResponseSizeLimit int `json:"responseSizeLimit"`
}

// FromEnv builds a Config from the environment.
func FromEnv() *Config {
	limit := DefaultResponseSizeLimit
	if raw := os.Getenv("RESPONSE_SIZE_LIMIT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return &Config{
		URL:               strings.TrimRight(os.Getenv("METABASE_URL"), "/"),
		Username:          os.Getenv("METABASE_USERNAME"),
		Password:          os.Getenv("METABASE_PASSWORD"),
		SessionToken:      os.Getenv("METABASE_SESSION_TOKEN"),
		Transport:         TransportTypeStdio,
		Port:              "8080",
		ResponseSizeLimit: limit,
	}
}

// Validate checks that the configuration is usable before the server
// starts accepting tool calls.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("METABASE_URL is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("METABASE_URL must start with http:// or https://, got %q", c.URL)
	}
	if c.SessionToken == "" && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("either METABASE_SESSION_TOKEN or both METABASE_USERNAME and METABASE_PASSWORD are required")
	}
	if !c.Transport.IsValid() {
		return fmt.Errorf("unsupported transport type: %s", c.Transport)
	}
	if c.ResponseSizeLimit <= 0 {
		return fmt.Errorf("response size limit must be positive, got %d", c.ResponseSizeLimit)
	}
	return nil
}
