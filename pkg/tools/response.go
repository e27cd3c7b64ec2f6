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
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/dashbridge/metabase-mcp/pkg/client"
)

// jsonResult serializes a payload as the tool response, enforcing the
// configured response size limit. Oversized payloads are replaced with
// an error describing how to narrow the request.
func (t *Toolset) jsonResult(payload any) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	if len(encoded) > t.cfg.ResponseSizeLimit {
		t.log.WithField("size", len(encoded)).Warn("response exceeds size limit")
		return t.errorResult(fmt.Sprintf(
			"response size %d exceeds the limit of %d characters; narrow the request (smaller page size, fewer models, or a more specific query)",
			len(encoded), t.cfg.ResponseSizeLimit), nil), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

// errorResult produces the structured failure payload shared by every
// tool, so callers can branch on success without parsing prose.
func (t *Toolset) errorResult(message string, detail any) *mcp.CallToolResult {
	payload := map[string]any{
		"success": false,
		"error":   map[string]any{"message": message},
	}
	if detail != nil {
		payload["error"].(map[string]any)["details"] = detail
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	result := mcp.NewToolResultText(string(encoded))
	result.IsError = true
	return result
}

// apiErrorResult converts a client error into the structured failure
// payload, surfacing the Metabase status code and payload when present.
func (t *Toolset) apiErrorResult(err error) *mcp.CallToolResult {
	if apiErr, ok := err.(*client.APIError); ok {
		detail := map[string]any{"status_code": apiErr.StatusCode}
		if apiErr.Data != nil {
			detail["data"] = apiErr.Data
		}
		return t.errorResult(apiErr.Message, detail)
	}
	return t.errorResult(err.Error(), nil)
}

// Argument helpers. MCP arguments arrive as generic JSON values; these
// coerce without panicking on absent or oddly typed input.

func intArg(args map[string]any, key string) int64 {
	return cast.ToInt64(args[key])
}

func stringArg(args map[string]any, key string) string {
	return cast.ToString(args[key])
}

func boolArg(args map[string]any, key string) bool {
	return cast.ToBool(args[key])
}

func arrayArg(args map[string]any, key string) ([]any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

func stringSliceArg(args map[string]any, key string) []string {
	list, ok := arrayArg(args, key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := cast.ToString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
