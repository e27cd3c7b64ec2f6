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
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dashbridge/metabase-mcp/pkg/filters"
)

func (t *Toolset) handleGetCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID := intArg(request.GetArguments(), "card_id")
	if cardID == 0 {
		return t.errorResult("card_id is required", nil), nil
	}

	result, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("card/%d", cardID), nil, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}
	return t.jsonResult(result)
}

func (t *Toolset) handleCreateCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name := stringArg(args, "name")
	databaseID := intArg(args, "database_id")
	sql := stringArg(args, "query")
	if name == "" || databaseID == 0 || sql == "" {
		return t.errorResult("name, database_id and query are required", nil), nil
	}

	processed, warnings, errResult := t.processCardFilterArgs(args, sql)
	if errResult != nil {
		return errResult, nil
	}

	display := stringArg(args, "display")
	if display == "" {
		display = "table"
	}

	native := map[string]any{"query": sql}
	payload := map[string]any{
		"name":    name,
		"display": display,
		"dataset_query": map[string]any{
			"type":     "native",
			"database": databaseID,
			"native":   native,
		},
		"visualization_settings": map[string]any{},
	}
	if desc := stringArg(args, "description"); desc != "" {
		payload["description"] = desc
	}
	if collectionID := intArg(args, "collection_id"); collectionID != 0 {
		payload["collection_id"] = collectionID
	}
	if processed != nil {
		native["template-tags"] = processed.TemplateTags
		payload["parameters"] = processed.Parameters
	}

	result, _, err := t.client.Request(ctx, http.MethodPost, "card", nil, payload)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	t.log.WithField("name", name).Info("created card")
	return t.jsonResult(map[string]any{
		"success":  true,
		"card":     result,
		"warnings": nonNilWarnings(warnings),
	})
}

func (t *Toolset) handleUpdateCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	cardID := intArg(args, "card_id")
	if cardID == 0 {
		return t.errorResult("card_id is required", nil), nil
	}

	// Fetch the current card so a filter-only update keeps the query
	// text, and a query-only update keeps the existing filters.
	path := fmt.Sprintf("card/%d", cardID)
	current, _, err := t.client.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	sql := stringArg(args, "query")
	if sql == "" {
		sql = existingCardSQL(current)
	}

	payload := map[string]any{}
	if name := stringArg(args, "name"); name != "" {
		payload["name"] = name
	}
	if desc := stringArg(args, "description"); desc != "" {
		payload["description"] = desc
	}

	var warnings []filters.Warning
	if _, hasFilters := args["filters"]; hasFilters || stringArg(args, "query") != "" {
		if sql == "" {
			return t.errorResult("card has no native query to attach filters to", nil), nil
		}
		processed, warns, errResult := t.processCardFilterArgs(args, sql)
		if errResult != nil {
			return errResult, nil
		}
		warnings = warns

		native := map[string]any{"query": sql}
		if processed != nil {
			native["template-tags"] = processed.TemplateTags
			payload["parameters"] = processed.Parameters
		}
		payload["dataset_query"] = map[string]any{
			"type":     "native",
			"database": existingCardDatabase(current),
			"native":   native,
		}
	}

	if len(payload) == 0 {
		return t.errorResult("nothing to update: provide name, description, query or filters", nil), nil
	}

	result, _, err := t.client.Request(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	t.log.WithField("card_id", cardID).Info("updated card")
	return t.jsonResult(map[string]any{
		"success":  true,
		"card":     result,
		"warnings": nonNilWarnings(warnings),
	})
}

// nonNilWarnings keeps the warnings field an array in JSON output even
// when the consistency check found nothing.
func nonNilWarnings(warnings []filters.Warning) []filters.Warning {
	if warnings == nil {
		return []filters.Warning{}
	}
	return warnings
}

// processCardFilterArgs decodes and processes the "filters" argument.
// A nil ProcessedCard means no filters were supplied. A non-nil result
// tool response means processing failed and the handler must return it.
func (t *Toolset) processCardFilterArgs(args map[string]any, sql string) (*filters.ProcessedCard, []filters.Warning, *mcp.CallToolResult) {
	raw, ok := arrayArg(args, "filters")
	if !ok {
		return nil, nil, nil
	}

	descs, structErrs := filters.DecodeCardFilters(raw)
	if len(structErrs) > 0 {
		return nil, nil, t.errorResult("invalid filter descriptors", filters.ErrorStrings(structErrs))
	}

	processed, valErrs := filters.ProcessCardFilters(descs)
	if len(valErrs) > 0 {
		return nil, nil, t.errorResult("filter validation failed", filters.ErrorStrings(valErrs))
	}

	return processed, filters.CheckQueryFilters(sql, descs), nil
}

func existingCardSQL(card any) string {
	m, ok := card.(map[string]any)
	if !ok {
		return ""
	}
	dq, ok := m["dataset_query"].(map[string]any)
	if !ok {
		return ""
	}
	native, ok := dq["native"].(map[string]any)
	if !ok {
		return ""
	}
	sql, _ := native["query"].(string)
	return sql
}

func existingCardDatabase(card any) any {
	m, ok := card.(map[string]any)
	if !ok {
		return nil
	}
	if dq, ok := m["dataset_query"].(map[string]any); ok {
		if db, ok := dq["database"]; ok {
			return db
		}
	}
	return m["database_id"]
}
