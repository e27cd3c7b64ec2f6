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
	"net/url"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// Metadata discovery tools. Field filters need a concrete
// {database_id, table_id, field_id} binding; these tools let a caller
// walk databases, then tables, then fields to find those identifiers.
// The raw metadata endpoints return far more than fits a response, so
// each handler reduces the payload to the identifying essentials.

func (t *Toolset) handleListDatabases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, _, err := t.client.Request(ctx, http.MethodGet, "database", nil, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	databases := make([]map[string]any, 0)
	for _, entry := range searchItems(result) {
		db, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		databases = append(databases, map[string]any{
			"id":     db["id"],
			"name":   db["name"],
			"engine": db["engine"],
		})
	}

	return t.jsonResult(map[string]any{"databases": databases})
}

func (t *Toolset) handleGetDatabaseMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	databaseID := intArg(request.GetArguments(), "database_id")
	if databaseID == 0 {
		return t.errorResult("database_id is required", nil), nil
	}

	// skip_fields keeps the payload to tables only; field metadata can
	// be enormous and belongs to get_table_query_metadata.
	query := url.Values{"skip_fields": []string{"true"}}
	result, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("database/%d/metadata", databaseID), query, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	root, ok := result.(map[string]any)
	if !ok {
		return t.errorResult("unexpected database metadata payload shape", nil), nil
	}

	tablesBySchema := map[string][]map[string]any{}
	tableCount := 0
	if tables, ok := root["tables"].([]any); ok {
		for _, entry := range tables {
			table, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			schema := cast.ToString(table["schema"])
			tablesBySchema[schema] = append(tablesBySchema[schema], map[string]any{
				"id":          table["id"],
				"name":        table["name"],
				"entity_type": table["entity_type"],
			})
			tableCount++
		}
	}

	schemaNames := make([]string, 0, len(tablesBySchema))
	for name := range tablesBySchema {
		schemaNames = append(schemaNames, name)
	}
	sort.Strings(schemaNames)

	schemas := make([]map[string]any, 0, len(schemaNames))
	for _, name := range schemaNames {
		schemas = append(schemas, map[string]any{
			"name":   name,
			"tables": tablesBySchema[name],
		})
	}

	return t.jsonResult(map[string]any{
		"database": map[string]any{
			"id":       root["id"],
			"name":     root["name"],
			"engine":   root["engine"],
			"timezone": root["timezone"],
		},
		"schemas":      schemas,
		"schema_count": len(schemas),
		"table_count":  tableCount,
	})
}

func (t *Toolset) handleGetTableQueryMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	tableID := intArg(args, "table_id")
	if tableID == 0 {
		return t.errorResult("table_id is required", nil), nil
	}

	query := url.Values{}
	if boolArg(args, "include_sensitive_fields") {
		query.Set("include_sensitive_fields", "true")
	}
	if boolArg(args, "include_hidden_fields") {
		query.Set("include_hidden_fields", "true")
	}

	result, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("table/%d/query_metadata", tableID), query, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	root, ok := result.(map[string]any)
	if !ok {
		return t.errorResult("unexpected table metadata payload shape", nil), nil
	}

	fields := make([]map[string]any, 0)
	primaryKeyFields := make([]string, 0)
	dateFields := make([]string, 0)
	if rawFields, ok := root["fields"].([]any); ok {
		for _, entry := range rawFields {
			field, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			fields = append(fields, map[string]any{
				"id":               field["id"],
				"name":             field["name"],
				"display_name":     field["display_name"],
				"base_type":        field["base_type"],
				"effective_type":   field["effective_type"],
				"semantic_type":    field["semantic_type"],
				"database_type":    field["database_type"],
				"has_field_values": field["has_field_values"],
				"position":         field["position"],
			})

			name := cast.ToString(field["name"])
			if cast.ToString(field["semantic_type"]) == "type/PK" {
				primaryKeyFields = append(primaryKeyFields, name)
			}
			switch cast.ToString(field["base_type"]) {
			case "type/Date", "type/DateTime", "type/DateTimeWithLocalTZ", "type/Time":
				dateFields = append(dateFields, name)
			}
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return cast.ToInt64(fields[i]["position"]) < cast.ToInt64(fields[j]["position"])
	})

	db, _ := root["db"].(map[string]any)
	return t.jsonResult(map[string]any{
		"table": map[string]any{
			"id":          root["id"],
			"name":        root["name"],
			"schema":      root["schema"],
			"entity_type": root["entity_type"],
			"description": root["description"],
		},
		"database": map[string]any{
			"id":       db["id"],
			"name":     db["name"],
			"engine":   db["engine"],
			"timezone": db["timezone"],
		},
		"fields":             fields,
		"field_count":        len(fields),
		"primary_key_fields": primaryKeyFields,
		"date_fields":        dateFields,
	})
}
