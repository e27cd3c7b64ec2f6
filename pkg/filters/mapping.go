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

package filters

import (
	"fmt"
	"strings"
)

// MappingRequest asks to link one dashboard parameter to one card
// parameter, both referenced by name, scoped to a single card
// occurrence on the dashboard.
type MappingRequest struct {
	DashboardParameterName string `json:"dashboard_parameter_name"`
	CardID                 int64  `json:"card_id"`
	CardParameterName      string `json:"card_parameter_name"`
}

// PlatformMapping is the identifier-based link record the platform's
// dashboard update endpoint expects.
type PlatformMapping struct {
	CardID      int64  `json:"card_id"`
	ParameterID string `json:"parameter_id"`
	Target      []any  `json:"target"`
}

// ResolutionError is a failed name lookup during mapping resolution.
// Available lists the names the caller could have used, since mappings
// are usually constructed blind.
type ResolutionError struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Message   string   `json:"message"`
	Available []string `json:"available,omitempty"`
}

func (e ResolutionError) Error() string {
	if len(e.Available) > 0 {
		return fmt.Sprintf("mapping %d: %s (available: %s)", e.Index, e.Message, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("mapping %d: %s", e.Index, e.Message)
}

// ResolveMappings turns name-based mapping requests into identifier
// based platform mappings. Dashboard parameters match by exact name;
// card parameters match by name first, slug as fallback. Resolution is
// all-or-nothing: one failure withholds the entire batch, and every
// failure is reported.
func ResolveMappings(requests []MappingRequest, dashboardParams []UIParameter, cardParams map[int64][]UIParameter) ([]PlatformMapping, []ResolutionError) {
	var errs []ResolutionError
	mappings := make([]PlatformMapping, 0, len(requests))

	for i, req := range requests {
		dash, ok := findByName(dashboardParams, req.DashboardParameterName)
		if !ok {
			errs = append(errs, ResolutionError{
				Index:     i,
				Name:      req.DashboardParameterName,
				Message:   fmt.Sprintf("no dashboard parameter named %q", req.DashboardParameterName),
				Available: parameterNames(dashboardParams),
			})
			continue
		}

		params, ok := cardParams[req.CardID]
		if !ok {
			errs = append(errs, ResolutionError{
				Index:   i,
				Name:    req.CardParameterName,
				Message: fmt.Sprintf("card %d has no parameters to map against", req.CardID),
			})
			continue
		}

		card, ok := findByNameOrSlug(params, req.CardParameterName)
		if !ok {
			errs = append(errs, ResolutionError{
				Index:     i,
				Name:      req.CardParameterName,
				Message:   fmt.Sprintf("card %d has no parameter named %q", req.CardID, req.CardParameterName),
				Available: parameterNames(params),
			})
			continue
		}

		// The mapping points at the same placeholder or dimension
		// binding the card parameter itself uses.
		mappings = append(mappings, PlatformMapping{
			CardID:      req.CardID,
			ParameterID: dash.ID,
			Target:      card.Target,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return mappings, nil
}

func findByName(params []UIParameter, name string) (UIParameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return UIParameter{}, false
}

func findByNameOrSlug(params []UIParameter, name string) (UIParameter, bool) {
	if p, ok := findByName(params, name); ok {
		return p, true
	}
	for _, p := range params {
		if p.Slug == name {
			return p, true
		}
	}
	return UIParameter{}, false
}

func parameterNames(params []UIParameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Name != "" {
			names = append(names, p.Name)
		}
		if p.Slug != "" && p.Slug != p.Name {
			names = append(names, p.Slug)
		}
	}
	return names
}
