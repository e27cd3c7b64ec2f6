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

// The validate tools run the full decode and processing pipeline
// without touching Metabase, so callers can iterate on filter
// descriptors before committing a card or dashboard change.

func (t *Toolset) handleValidateCardFilters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sql := stringArg(args, "query")
	raw, ok := arrayArg(args, "filters")
	if !ok {
		return t.errorResult("filters is required", nil), nil
	}

	descs, structErrs := filters.DecodeCardFilters(raw)
	if len(structErrs) > 0 {
		return t.jsonResult(map[string]any{
			"valid":  false,
			"errors": filters.ErrorStrings(structErrs),
		})
	}

	processed, valErrs := filters.ProcessCardFilters(descs)
	if len(valErrs) > 0 {
		return t.jsonResult(map[string]any{
			"valid":  false,
			"errors": filters.ErrorStrings(valErrs),
		})
	}

	return t.jsonResult(map[string]any{
		"valid":         true,
		"errors":        []string{},
		"warnings":      nonNilWarnings(filters.CheckQueryFilters(sql, descs)),
		"template_tags": processed.TemplateTags,
		"parameters":    processed.Parameters,
	})
}

func (t *Toolset) handleValidateDashboardFilters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := arrayArg(request.GetArguments(), "filters")
	if !ok {
		return t.errorResult("filters is required", nil), nil
	}

	descs, structErrs := filters.DecodeDashboardFilters(raw)
	if len(structErrs) > 0 {
		return t.jsonResult(map[string]any{
			"valid":  false,
			"errors": filters.ErrorStrings(structErrs),
		})
	}

	params, valErrs := filters.ProcessDashboardFilters(descs)
	if len(valErrs) > 0 {
		return t.jsonResult(map[string]any{
			"valid":  false,
			"errors": filters.ErrorStrings(valErrs),
		})
	}

	return t.jsonResult(map[string]any{
		"valid":      true,
		"errors":     []string{},
		"parameters": params,
	})
}
