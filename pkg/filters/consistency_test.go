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

import "testing"

func warningsOfKind(warnings []Warning, kind string) []Warning {
	var out []Warning
	for _, w := range warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func hasWarning(warnings []Warning, kind, name string) bool {
	for _, w := range warnings {
		if w.Kind == kind && w.Name == name {
			return true
		}
	}
	return false
}

func TestCheckQueryFiltersMissingAndUnused(t *testing.T) {
	query := "SELECT * FROM t WHERE {{a}}"
	descs := []FilterDescriptor{{Name: "b", Type: "category", Default: "x"}}

	warnings := CheckQueryFilters(query, descs)

	if !hasWarning(warnings, WarnMissingFilter, "a") {
		t.Errorf("want missing-configuration warning for %q, got %v", "a", warnings)
	}
	if !hasWarning(warnings, WarnUnusedFilter, "b") {
		t.Errorf("want unused-filter warning for %q, got %v", "b", warnings)
	}
}

func TestCheckQueryFiltersPartialConfiguration(t *testing.T) {
	query := "SELECT * FROM t WHERE {{status}} AND col = {{val}}"
	descs := []FilterDescriptor{{Name: "val", Type: "category", Default: "x"}}

	warnings := CheckQueryFilters(query, descs)

	if !hasWarning(warnings, WarnMissingFilter, "status") {
		t.Errorf("want missing-configuration warning for %q, got %v", "status", warnings)
	}
	if hasWarning(warnings, WarnMissingFilter, "val") {
		t.Errorf("val is configured, got spurious warning: %v", warnings)
	}
	if hasWarning(warnings, WarnUnusedFilter, "val") {
		t.Errorf("val is referenced, got spurious unused warning: %v", warnings)
	}
}

func TestCheckQueryFiltersOptionalBlocks(t *testing.T) {
	query := "SELECT * FROM orders WHERE true [[AND status = {{status}}]]"
	descs := []FilterDescriptor{{Name: "status", Type: "category"}}

	warnings := CheckQueryFilters(query, descs)

	// Optional placeholders do not need a default.
	if got := warningsOfKind(warnings, WarnRequiredNoDefault); len(got) != 0 {
		t.Errorf("optional placeholder triggered default warnings: %v", got)
	}
	if got := warningsOfKind(warnings, WarnUnusedFilter); len(got) != 0 {
		t.Errorf("placeholder inside optional block counted as unused: %v", got)
	}
}

func TestCheckQueryFiltersRequiredWithoutDefault(t *testing.T) {
	query := "SELECT * FROM t WHERE category = {{cat}}"
	descs := []FilterDescriptor{{Name: "cat", Type: "category"}}

	warnings := CheckQueryFilters(query, descs)
	if !hasWarning(warnings, WarnRequiredNoDefault, "cat") {
		t.Errorf("want required-without-default warning, got %v", warnings)
	}

	// Same query, but the placeholder only inside an optional block.
	optional := "SELECT * FROM t WHERE true [[AND category = {{cat}}]]"
	warnings = CheckQueryFilters(optional, descs)
	if hasWarning(warnings, WarnRequiredNoDefault, "cat") {
		t.Errorf("optional placeholder should not require a default, got %v", warnings)
	}

	// Required in one place, optional in another: required wins.
	both := "SELECT * FROM t WHERE {{cat}} IS NOT NULL [[AND category = {{cat}}]]"
	warnings = CheckQueryFilters(both, descs)
	if !hasWarning(warnings, WarnRequiredNoDefault, "cat") {
		t.Errorf("placeholder used both ways should count as required, got %v", warnings)
	}
}

func TestCheckQueryFiltersQuotedPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "single quotes", query: "WHERE status = '{{status}}'", want: true},
		{name: "double quotes", query: `WHERE status = "{{status}}"`, want: true},
		{name: "no quotes", query: "WHERE status = {{status}}", want: false},
		{name: "quotes elsewhere", query: "WHERE x = 'y' AND status = {{status}}", want: false},
	}

	descs := []FilterDescriptor{{Name: "status", Type: "category", Default: "open"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := CheckQueryFilters(tt.query, descs)
			got := hasWarning(warnings, WarnQuotedPlaceholder, "status")
			if got != tt.want {
				t.Errorf("quoted-placeholder warning = %v, want %v (warnings: %v)", got, tt.want, warnings)
			}
		})
	}
}

func TestCheckQueryFiltersFieldFilterAsValue(t *testing.T) {
	fieldFilter := FilterDescriptor{
		Name:  "customer_filter",
		Type:  "string/=",
		Field: &FieldRef{DatabaseID: 1, TableID: 2, FieldID: 3},
	}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "compared as value", query: "WHERE customer_name = {{customer_filter}}", want: true},
		{name: "inequality", query: "WHERE total >= {{customer_filter}}", want: true},
		{name: "used as condition", query: "WHERE {{customer_filter}}", want: false},
		{name: "condition in optional block", query: "WHERE true [[AND {{customer_filter}}]]", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := CheckQueryFilters(tt.query, []FilterDescriptor{fieldFilter})
			got := hasWarning(warnings, WarnFieldFilterAsValue, "customer_filter")
			if got != tt.want {
				t.Errorf("field-filter-as-value warning = %v, want %v (warnings: %v)", got, tt.want, warnings)
			}
		})
	}
}

func TestCheckQueryFiltersSimpleVariableComparisonIsFine(t *testing.T) {
	// Comparing against a simple variable is the intended usage; only
	// field filters substitute boolean conditions.
	query := "WHERE status = {{status}}"
	descs := []FilterDescriptor{{Name: "status", Type: "category", Default: "open"}}

	warnings := CheckQueryFilters(query, descs)
	if len(warnings) != 0 {
		t.Errorf("clean query produced warnings: %v", warnings)
	}
}
