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

	"github.com/mark3labs/mcp-go/mcp"
)

// maxQueryRows caps the rows returned by execute_query before the
// size limit is even considered.
const maxQueryRows = 2000

func (t *Toolset) handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	databaseID := intArg(args, "database_id")
	sql := stringArg(args, "query")
	if databaseID == 0 || sql == "" {
		return t.errorResult("database_id and query are required", nil), nil
	}

	payload := map[string]any{
		"type":     "native",
		"database": databaseID,
		"native":   map[string]any{"query": sql},
	}
	if params, ok := arrayArg(args, "parameters"); ok {
		payload["parameters"] = params
	}

	result, _, err := t.client.Request(ctx, http.MethodPost, "dataset", nil, payload)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	return t.jsonResult(truncateQueryRows(result))
}

// truncateQueryRows trims the rows of a dataset response to
// maxQueryRows, recording the truncation in the payload.
func truncateQueryRows(result any) any {
	envelope, ok := result.(map[string]any)
	if !ok {
		return result
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		return result
	}
	rows, ok := data["rows"].([]any)
	if !ok || len(rows) <= maxQueryRows {
		return result
	}
	data["rows"] = rows[:maxQueryRows]
	data["rows_truncated"] = true
	data["original_row_count"] = len(rows)
	return result
}
