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

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/dashbridge/metabase-mcp/pkg/config"
)

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		URL:               serverURL,
		Username:          "bot@example.com",
		Password:          "secret",
		Transport:         config.TransportTypeStdio,
		ResponseSizeLimit: config.DefaultResponseSizeLimit,
	}
}

func TestRequestAuthenticatesOnFirstCall(t *testing.T) {
	var sessions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session":
			sessions.Add(1)
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("bad session payload: %v", err)
			}
			if creds["username"] != "bot@example.com" || creds["password"] != "secret" {
				t.Errorf("unexpected credentials: %v", creds)
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "tok-1"})
		case "/api/card/7":
			if got := r.Header.Get("X-Metabase-Session"); got != "tok-1" {
				t.Errorf("session header = %q, want tok-1", got)
			}
			json.NewEncoder(w).Encode(map[string]any{"id": float64(7), "name": "Orders"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	result, status, err := c.Request(context.Background(), http.MethodGet, "card/7", nil, nil)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	card, ok := result.(map[string]any)
	if !ok || card["name"] != "Orders" {
		t.Errorf("result = %v, want the decoded card", result)
	}

	// Second call reuses the session.
	if _, _, err := c.Request(context.Background(), http.MethodGet, "card/7", nil, nil); err != nil {
		t.Fatalf("second Request() error: %v", err)
	}
	if got := sessions.Load(); got != 1 {
		t.Errorf("authenticated %d times, want 1", got)
	}
}

func TestRequestReauthenticatesOn401(t *testing.T) {
	var sessions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session":
			n := sessions.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"id": "tok-" + string(rune('0'+n))})
		case "/api/database":
			if r.Header.Get("X-Metabase-Session") == "stale" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated"})
				return
			}
			json.NewEncoder(w).Encode([]any{map[string]any{"id": float64(1)}})
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SessionToken = "stale"
	c := New(cfg)

	result, _, err := c.Request(context.Background(), http.MethodGet, "database", nil, nil)
	if err != nil {
		t.Fatalf("Request() error after re-auth: %v", err)
	}
	if _, ok := result.([]any); !ok {
		t.Errorf("result = %v, want the database list", result)
	}
	if got := sessions.Load(); got != 1 {
		t.Errorf("re-authenticated %d times, want 1", got)
	}
}

func TestRequestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session" {
			json.NewEncoder(w).Encode(map[string]string{"id": "tok"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Card 999 does not exist."})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, status, err := c.Request(context.Background(), http.MethodGet, "card/999", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error = %T %v, want *APIError", err, err)
	}
	if apiErr.Message != "Card 999 does not exist." {
		t.Errorf("Message = %q, want the payload message", apiErr.Message)
	}
}

func TestRequestSendsBodyAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session" {
			json.NewEncoder(w).Encode(map[string]string{"id": "tok"})
			return
		}
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.URL.Query().Get("archived"); got != "true" {
			t.Errorf("query archived = %q, want true", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["name"] != "Renamed" {
			t.Errorf("body = %v (err %v), want name Renamed", body, err)
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	query := url.Values{"archived": []string{"true"}}
	_, _, err := c.Request(context.Background(), http.MethodPut, "card/7", query, map[string]any{"name": "Renamed"})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
}

func TestRequestNoCredentialsForReauth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Username = ""
	cfg.Password = ""
	cfg.SessionToken = "expired"
	c := New(cfg)

	_, _, err := c.Request(context.Background(), http.MethodGet, "database", nil, nil)
	if err == nil {
		t.Fatal("Request() succeeded, want re-authentication failure")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]any, 45)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantLen   int
		wantFirst any
		wantMeta  PageMetadata
	}{
		{
			name: "first page", page: 1, pageSize: 20,
			wantLen: 20, wantFirst: 0,
			wantMeta: PageMetadata{Page: 1, PageSize: 20, TotalCount: 45, TotalPages: 3, HasMore: true},
		},
		{
			name: "last partial page", page: 3, pageSize: 20,
			wantLen: 5, wantFirst: 40,
			wantMeta: PageMetadata{Page: 3, PageSize: 20, TotalCount: 45, TotalPages: 3, HasMore: false},
		},
		{
			name: "out of range", page: 9, pageSize: 20,
			wantLen: 0,
			wantMeta: PageMetadata{Page: 9, PageSize: 20, TotalCount: 45, TotalPages: 3, HasMore: false},
		},
		{
			name: "defaults applied", page: 0, pageSize: 0,
			wantLen: 20, wantFirst: 0,
			wantMeta: PageMetadata{Page: 1, PageSize: 20, TotalCount: 45, TotalPages: 3, HasMore: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, meta := Paginate(items, tt.page, tt.pageSize)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0] != tt.wantFirst {
				t.Errorf("first item = %v, want %v", got[0], tt.wantFirst)
			}
			if meta != tt.wantMeta {
				t.Errorf("metadata = %+v, want %+v", meta, tt.wantMeta)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	got, meta := Paginate(nil, 1, 20)
	if len(got) != 0 || meta.TotalPages != 1 || meta.HasMore {
		t.Errorf("Paginate(nil) = %v, %+v", got, meta)
	}
}
