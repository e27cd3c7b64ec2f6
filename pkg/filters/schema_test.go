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
	"strings"
	"testing"
)

func TestValidateSchemaBasics(t *testing.T) {
	schema := &Schema{
		Type:     "object",
		Required: []string{"name"},
		Closed:   true,
		Properties: map[string]*Schema{
			"name":  {Type: "string"},
			"kind":  {Type: "string", Enum: []any{"a", "b"}},
			"count": {Type: "integer"},
			"tags":  {Type: "array", MinItems: 1, Items: &Schema{Type: "string"}},
		},
	}

	tests := []struct {
		name     string
		instance any
		wantErrs int
		contains string
	}{
		{
			name:     "valid instance",
			instance: map[string]any{"name": "x", "kind": "a", "count": float64(3)},
			wantErrs: 0,
		},
		{
			name:     "missing required",
			instance: map[string]any{"kind": "a"},
			wantErrs: 1,
			contains: `missing required property "name"`,
		},
		{
			name:     "wrong type",
			instance: map[string]any{"name": float64(1)},
			wantErrs: 1,
			contains: "expected string",
		},
		{
			name:     "enum violation",
			instance: map[string]any{"name": "x", "kind": "c"},
			wantErrs: 1,
			contains: "not one of",
		},
		{
			name:     "not an object",
			instance: []any{"x"},
			wantErrs: 1,
			contains: "expected object, got array",
		},
		{
			name:     "unexpected property on closed object",
			instance: map[string]any{"name": "x", "extra": true},
			wantErrs: 1,
			contains: `unexpected property "extra"`,
		},
		{
			name:     "array item bound",
			instance: map[string]any{"name": "x", "tags": []any{}},
			wantErrs: 1,
			contains: "at least 1 items",
		},
		{
			name:     "array item type",
			instance: map[string]any{"name": "x", "tags": []any{"ok", float64(2)}},
			wantErrs: 1,
			contains: "expected string",
		},
		{
			name:     "non-integer number",
			instance: map[string]any{"name": "x", "count": 1.5},
			wantErrs: 1,
			contains: "expected integer",
		},
		{
			name:     "errors accumulate",
			instance: map[string]any{"kind": "c", "count": "nope"},
			wantErrs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSchema(schema, tt.instance)
			if len(errs) != tt.wantErrs {
				t.Fatalf("ValidateSchema() returned %d errors (%v), want %d", len(errs), errs, tt.wantErrs)
			}
			if tt.contains != "" && !anyErrContains(errs, tt.contains) {
				t.Errorf("ValidateSchema() errors %v, want one containing %q", errs, tt.contains)
			}
		})
	}
}

func TestValidateSchemaConditionals(t *testing.T) {
	schema := valuesSourceSchema(true)

	tests := []struct {
		name     string
		instance any
		wantErr  string
	}{
		{
			name:     "static without values",
			instance: map[string]any{"type": "static"},
			wantErr:  `missing required property "values"`,
		},
		{
			name:     "static with values",
			instance: map[string]any{"type": "static", "values": []any{"a"}},
		},
		{
			name:     "card without bindings",
			instance: map[string]any{"type": "card"},
			wantErr:  `missing required property "card_id"`,
		},
		{
			name:     "card complete",
			instance: map[string]any{"type": "card", "card_id": float64(7), "value_field": "name"},
		},
		{
			name:     "connected needs nothing else",
			instance: map[string]any{"type": "connected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSchema(schema, tt.instance)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("ValidateSchema() = %v, want no errors", errs)
				}
				return
			}
			if !anyErrContains(errs, tt.wantErr) {
				t.Errorf("ValidateSchema() = %v, want error containing %q", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateSchemaConnectedForbiddenAtDashboardLevel(t *testing.T) {
	errs := ValidateSchema(valuesSourceSchema(false), map[string]any{"type": "connected"})
	if !anyErrContains(errs, "not one of") {
		t.Errorf("ValidateSchema() = %v, want connected to be rejected", errs)
	}
}

func TestValidateSchemaErrorPaths(t *testing.T) {
	instance := []any{
		map[string]any{"name": "ok", "type": "category"},
		map[string]any{"type": "category"},
	}
	errs := ValidateSchema(CardFilterSchema, instance)
	if len(errs) != 1 {
		t.Fatalf("ValidateSchema() = %v, want exactly one error", errs)
	}
	if !strings.Contains(errs[0].Path, "$[1]") {
		t.Errorf("error path = %q, want it to locate the second item", errs[0].Path)
	}
}

func anyErrContains(errs []StructuralError, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), substr) {
			return true
		}
	}
	return false
}
