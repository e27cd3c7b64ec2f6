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
	"sort"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		filterType string
		want       Category
		known      bool
	}{
		{"category", CategoryText, true},
		{"string/=", CategoryText, true},
		{"string/does-not-contain", CategoryText, true},
		{"location/contains", CategoryLocation, true},
		{"number/between", CategoryNumber, true},
		{"date/all-options", CategoryDate, true},
		{"id", CategoryID, true},
		{"temporal-unit", CategoryTemporalUnit, true},
		{"bogus/=", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filterType, func(t *testing.T) {
			got, ok := CategoryOf(tt.filterType)
			if ok != tt.known {
				t.Fatalf("CategoryOf(%q) known = %v, want %v", tt.filterType, ok, tt.known)
			}
			if ok && got != tt.want {
				t.Errorf("CategoryOf(%q) = %q, want %q", tt.filterType, got, tt.want)
			}
		})
	}
}

func TestSupportsMultiSelect(t *testing.T) {
	supported := []string{
		"string/=", "string/!=", "string/contains", "string/does-not-contain",
		"string/starts-with", "string/ends-with",
		"number/=", "number/!=", "id",
		"location/=", "location/!=", "location/contains",
		"location/does-not-contain", "location/starts-with", "location/ends-with",
	}
	unsupported := []string{
		"date/single", "date/range", "date/relative", "date/all-options",
		"date/month-year", "date/quarter-year",
		"temporal-unit", "number/between", "number/>=", "number/<=",
		"category",
	}

	for _, ft := range supported {
		if !SupportsMultiSelect(ft) {
			t.Errorf("SupportsMultiSelect(%q) = false, want true", ft)
		}
	}
	for _, ft := range unsupported {
		if SupportsMultiSelect(ft) {
			t.Errorf("SupportsMultiSelect(%q) = true, want false", ft)
		}
	}
}

func TestDefaultShape(t *testing.T) {
	tests := []struct {
		filterType string
		multi      bool
		want       Shape
	}{
		{"number/between", false, ShapeRangePair},
		{"number/between", true, ShapeRangePair},
		{"string/=", true, ShapeArray},
		{"string/=", false, ShapeScalar},
		{"date/single", false, ShapeScalar},
		{"date/single", true, ShapeScalar}, // multi has no meaning for dates
		{"id", true, ShapeArray},
	}

	for _, tt := range tests {
		if got := DefaultShape(tt.filterType, tt.multi); got != tt.want {
			t.Errorf("DefaultShape(%q, %v) = %v, want %v", tt.filterType, tt.multi, got, tt.want)
		}
	}
}

func TestNativeTypeAndSectionID(t *testing.T) {
	tests := []struct {
		filterType  string
		wantType    string
		wantSection string
	}{
		{"location/=", "string/=", "location"},
		{"location/ends-with", "string/ends-with", "location"},
		{"string/=", "string/=", "string"},
		{"number/>=", "number/>=", "number"},
		{"date/range", "date/range", "date"},
		{"id", "id", "id"},
		{"temporal-unit", "temporal-unit", "temporal-unit"},
	}

	for _, tt := range tests {
		t.Run(tt.filterType, func(t *testing.T) {
			if got := NativeType(tt.filterType); got != tt.wantType {
				t.Errorf("NativeType(%q) = %q, want %q", tt.filterType, got, tt.wantType)
			}
			if got := SectionIDOf(tt.filterType); got != tt.wantSection {
				t.Errorf("SectionIDOf(%q) = %q, want %q", tt.filterType, got, tt.wantSection)
			}
		})
	}
}

func TestSimpleTagType(t *testing.T) {
	tests := []struct {
		filterType string
		wantTag    string
		simple     bool
	}{
		{"category", "text", true},
		{"number/=", "number", true},
		{"date/single", "date", true},
		{"string/=", "", false},
		{"date/range", "", false},
	}

	for _, tt := range tests {
		got, ok := SimpleTagType(tt.filterType)
		if ok != tt.simple || got != tt.wantTag {
			t.Errorf("SimpleTagType(%q) = (%q, %v), want (%q, %v)", tt.filterType, got, ok, tt.wantTag, tt.simple)
		}
	}
}

func TestWidgetQueryType(t *testing.T) {
	tests := []struct {
		widget string
		want   string
	}{
		{"input", "none"},
		{"dropdown", "list"},
		{"search", "search"},
		{"", "none"},
		{"unknown", "none"},
	}

	for _, tt := range tests {
		if got := WidgetQueryType(tt.widget); got != tt.want {
			t.Errorf("WidgetQueryType(%q) = %q, want %q", tt.widget, got, tt.want)
		}
	}
}

func TestTemporalUnitsSortedAndComplete(t *testing.T) {
	units := TemporalUnits()
	if len(units) != 15 {
		t.Fatalf("TemporalUnits() returned %d units, want 15", len(units))
	}
	if !sort.StringsAreSorted(units) {
		t.Errorf("TemporalUnits() = %v, want sorted output", units)
	}
	for _, u := range units {
		if !ValidTemporalUnit(u) {
			t.Errorf("TemporalUnits() returned invalid unit %q", u)
		}
	}
}

func TestValidTemporalUnit(t *testing.T) {
	for _, u := range []string{"minute", "day", "quarter-of-year", "week-of-year"} {
		if !ValidTemporalUnit(u) {
			t.Errorf("ValidTemporalUnit(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"fortnight", "", "Day"} {
		if ValidTemporalUnit(u) {
			t.Errorf("ValidTemporalUnit(%q) = true, want false", u)
		}
	}
}
