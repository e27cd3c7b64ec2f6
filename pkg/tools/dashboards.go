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
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/dashbridge/metabase-mcp/pkg/filters"
)

func (t *Toolset) handleGetDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dashboardID := intArg(request.GetArguments(), "dashboard_id")
	if dashboardID == 0 {
		return t.errorResult("dashboard_id is required", nil), nil
	}

	result, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("dashboard/%d", dashboardID), nil, nil)
	if err != nil {
		return t.apiErrorResult(err), nil
	}
	return t.jsonResult(result)
}

func (t *Toolset) handleUpdateDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	dashboardID := intArg(args, "dashboard_id")
	if dashboardID == 0 {
		return t.errorResult("dashboard_id is required", nil), nil
	}

	payload := map[string]any{}
	if name := stringArg(args, "name"); name != "" {
		payload["name"] = name
	}

	var params []filters.UIParameter
	if raw, ok := arrayArg(args, "filters"); ok {
		descs, structErrs := filters.DecodeDashboardFilters(raw)
		if len(structErrs) > 0 {
			return t.errorResult("invalid filter descriptors", filters.ErrorStrings(structErrs)), nil
		}
		var valErrs []filters.ValidationError
		params, valErrs = filters.ProcessDashboardFilters(descs)
		if len(valErrs) > 0 {
			return t.errorResult("filter validation failed", filters.ErrorStrings(valErrs)), nil
		}
		payload["parameters"] = params
	}

	if raw, ok := arrayArg(args, "mappings"); ok {
		requests, err := decodeMappingRequests(raw)
		if err != nil {
			return t.errorResult(err.Error(), nil), nil
		}

		// Without replacement filters in the same call, resolve against
		// the dashboard's current parameters so existing filters can be
		// remapped without re-supplying them.
		dashParams := params
		if dashParams == nil {
			dashParams, err = t.currentDashboardParameters(ctx, dashboardID)
			if err != nil {
				return t.apiErrorResult(err), nil
			}
		}

		cardParams, fetchErrs := t.fetchCardParameters(ctx, mappedCardIDs(requests))
		if len(fetchErrs) > 0 {
			return t.errorResult("failed to fetch card parameters", fetchErrs), nil
		}

		mappings, resErrs := filters.ResolveMappings(requests, dashParams, cardParams)
		if len(resErrs) > 0 {
			return t.errorResult("mapping resolution failed", filters.ErrorStrings(resErrs)), nil
		}

		dashcards, err := t.dashcardsWithMappings(ctx, dashboardID, mappings)
		if err != nil {
			return t.apiErrorResult(err), nil
		}
		payload["dashcards"] = dashcards
	}

	if len(payload) == 0 {
		return t.errorResult("nothing to update: provide name, filters or mappings", nil), nil
	}

	result, _, err := t.client.Request(ctx, http.MethodPut, fmt.Sprintf("dashboard/%d", dashboardID), nil, payload)
	if err != nil {
		return t.apiErrorResult(err), nil
	}

	t.log.WithField("dashboard_id", dashboardID).Info("updated dashboard")
	return t.jsonResult(map[string]any{
		"success":   true,
		"dashboard": result,
	})
}

func decodeMappingRequests(raw []any) ([]filters.MappingRequest, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping requests: %v", err)
	}
	var requests []filters.MappingRequest
	if err := json.Unmarshal(encoded, &requests); err != nil {
		return nil, fmt.Errorf("invalid mapping requests: %v", err)
	}
	for i, r := range requests {
		if r.DashboardParameterName == "" || r.CardID == 0 || r.CardParameterName == "" {
			return nil, fmt.Errorf("mapping %d: dashboard_parameter_name, card_id and card_parameter_name are required", i)
		}
	}
	return requests, nil
}

func mappedCardIDs(requests []filters.MappingRequest) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, r := range requests {
		if !seen[r.CardID] {
			seen[r.CardID] = true
			ids = append(ids, r.CardID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// fetchCardParameters loads the parameter lists of the given cards
// concurrently. Resolution must not start until every fetch finished,
// so the whole fan-out is joined before returning.
func (t *Toolset) fetchCardParameters(ctx context.Context, cardIDs []int64) (map[int64][]filters.UIParameter, []string) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[int64][]filters.UIParameter, len(cardIDs))
		errs   []string
	)

	for _, cardID := range cardIDs {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			card, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("card/%d", id), nil, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("card %d: %v", id, err))
				return
			}
			result[id] = uiParametersOf(card)
		}(cardID)
	}
	wg.Wait()

	sort.Strings(errs)
	return result, errs
}

// uiParametersOf extracts the parameters array from a raw card or
// dashboard payload into the typed form the resolver works on.
func uiParametersOf(payload any) []filters.UIParameter {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["parameters"].([]any)
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var params []filters.UIParameter
	if err := json.Unmarshal(encoded, &params); err != nil {
		return nil
	}
	return params
}

// currentDashboardParameters fetches the dashboard's existing
// parameter list for mapping resolution.
func (t *Toolset) currentDashboardParameters(ctx context.Context, dashboardID int64) ([]filters.UIParameter, error) {
	dashboard, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("dashboard/%d", dashboardID), nil, nil)
	if err != nil {
		return nil, err
	}
	return uiParametersOf(dashboard), nil
}

// dashcardsWithMappings fetches the dashboard's current dashcards and
// attaches the resolved parameter mappings to the dashcards showing
// the mapped cards.
func (t *Toolset) dashcardsWithMappings(ctx context.Context, dashboardID int64, mappings []filters.PlatformMapping) ([]any, error) {
	dashboard, _, err := t.client.Request(ctx, http.MethodGet, fmt.Sprintf("dashboard/%d", dashboardID), nil, nil)
	if err != nil {
		return nil, err
	}

	byCard := map[int64][]map[string]any{}
	for _, m := range mappings {
		byCard[m.CardID] = append(byCard[m.CardID], map[string]any{
			"parameter_id": m.ParameterID,
			"card_id":      m.CardID,
			"target":       m.Target,
		})
	}

	root, ok := dashboard.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected dashboard payload shape")
	}
	dashcards, ok := root["dashcards"].([]any)
	if !ok {
		return nil, fmt.Errorf("dashboard %d has no dashcards to map onto", dashboardID)
	}

	for _, entry := range dashcards {
		dashcard, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		cardID := cast.ToInt64(dashcard["card_id"])
		if mapped, ok := byCard[cardID]; ok {
			list := make([]any, len(mapped))
			for i, m := range mapped {
				list[i] = m
			}
			dashcard["parameter_mappings"] = list
		}
	}
	return dashcards, nil
}
