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

package tools

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dashbridge/metabase-mcp/pkg/client"
)

func (t *Toolset) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	term := stringArg(args, "query")
	if term == "" {
		return t.errorResult("query is required", nil), nil
	}

	query := url.Values{"q": []string{term}}
	for _, model := range stringSliceArg(args, "models") {
		query.Add("models", model)
	}

	result, _, err := t.client.Request(ctx, http.MethodGet, "search", query, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	// The search endpoint returns the full result set; paging happens
	// here so responses stay within the size limit.
	items := searchItems(result)
	page, meta := client.Paginate(items, int(intArg(args, "page")), int(intArg(args, "page_size")))

	return t.jsonResult(map[string]any{
		"results":    page,
		"pagination": meta,
	})
}

// searchItems unwraps the search payload, which is either a bare array
// or an object with a "data" array depending on the Metabase version.
func searchItems(result any) []any {
	switch v := result.(type) {
	case []any:
		return v
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			return data
		}
	}
	return nil
}
