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

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dashbridge/metabase-mcp/pkg/filters"
)

func (t *Toolset) handleGetFilterDocumentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.jsonResult(filterDocumentation())
}

// filterDocumentation is static reference material for the simplified
// filter descriptor format. Built once per call; the payload is small.
func filterDocumentation() map[string]any {
	return map[string]any{
		"descriptor_format": map[string]any{
			"name":           "Placeholder name, letters, digits and underscores only. Must equal its own slug form (lowercase, underscores).",
			"type":           "Filter type, see filter_types.",
			"display_name":   "Optional label shown in the UI, defaults to the name.",
			"default":        "Optional default value. Shape depends on type and multi-select: scalar, array, or [min, max] for number/between.",
			"required":       "If true, a non-empty default is mandatory.",
			"field":          "Field binding {database_id, table_id, field_id}. Required for field filter types, forbidden for simple types.",
			"ui_widget":      "input, dropdown or search. Optional.",
			"values_source":  "Where selectable values come from: {type: static|card|connected, ...}.",
			"isMultiSelect":  "Dashboard filters only. Defaults to true for types that support it.",
			"temporal_units": "temporal-unit filters only. Subset of the valid unit list.",
		},
		"filter_types": map[string]any{
			"simple": map[string]any{
				"description": "Substitute a single value into the query. No field binding.",
				"types":       []string{"category", "number/=", "date/single"},
			},
			"text": []string{
				"string/=", "string/!=", "string/contains", "string/does-not-contain",
				"string/starts-with", "string/ends-with",
			},
			"number": []string{"number/=", "number/!=", "number/between", "number/>=", "number/<="},
			"date": []string{
				"date/single", "date/range", "date/relative", "date/all-options",
				"date/month-year", "date/quarter-year",
			},
			"location": map[string]any{
				"description": "Location types behave as their string counterparts; the platform stores them as string types under a location section.",
				"types": []string{
					"location/=", "location/!=", "location/contains", "location/does-not-contain",
					"location/starts-with", "location/ends-with",
				},
			},
			"other": []string{"id", "temporal-unit"},
		},
		"widgets": map[string]any{
			"input":    "Free-form entry. values_query_type none.",
			"dropdown": "Closed list of values. Needs a values_source. Not valid for date types other than date/single.",
			"search":   "Type-ahead lookup. Only for category, string/contains, string/starts-with, string/ends-with.",
		},
		"value_sources": map[string]any{
			"static":    "Fixed list supplied inline as values. Numeric lists are stored as one-element tuples.",
			"card":      "Values come from another card's result column: card_id, value_field, optional label_field.",
			"connected": "Values derive live from the bound field. Field filters only; not available on dashboards.",
		},
		"temporal_units": filters.TemporalUnits(),
		"common_mistakes": []string{
			"Quoting a placeholder ('{{var}}'): the platform substitutes a typed value, quotes make it a literal string.",
			"Comparing a field filter with an operator (col = {{filter}}): field filters expand to a complete boolean condition and must stand alone in WHERE.",
			"Referencing {{name}} in the query without a matching filter descriptor, or configuring a filter the query never references.",
			"A required placeholder outside [[...]] optional blocks without a default value.",
			"Renaming a filter on update without carrying over its id: dashboard mappings reference the old identifier and break.",
		},
	}
}
