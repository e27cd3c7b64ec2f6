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

import "regexp"

// Declarative schemas for the two processing modes. Card-level names
// double as placeholder tokens and are pattern-restricted; dashboard
// names are free display labels. Constraints the schema language
// cannot express (cross-item uniqueness, registry compatibility) live
// in the processor's business-rule pass.

var tokenNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var fieldRefSchema = &Schema{
	Type:     "object",
	Required: []string{"database_id", "table_id", "field_id"},
	Closed:   true,
	Properties: map[string]*Schema{
		"database_id": {Type: "integer"},
		"table_id":    {Type: "integer"},
		"field_id":    {Type: "integer"},
	},
}

func valuesSourceSchema(allowConnected bool) *Schema {
	types := []any{"static", "card"}
	if allowConnected {
		types = append(types, "connected")
	}
	return &Schema{
		Type:     "object",
		Required: []string{"type"},
		Closed:   true,
		Properties: map[string]*Schema{
			"type":        {Type: "string", Enum: types},
			"values":      {Type: "array", MinItems: 1},
			"card_id":     {Type: "integer"},
			"value_field": {Type: "string"},
			"label_field": {Type: "string"},
		},
		Conditionals: []Conditional{
			{
				Property: "type",
				Equals:   []string{"static"},
				Then:     &Schema{Required: []string{"values"}},
			},
			{
				Property: "type",
				Equals:   []string{"card"},
				Then:     &Schema{Required: []string{"card_id", "value_field"}},
			},
		},
	}
}

var cardFilterTypes = []any{
	"category", "number/=", "date/single",
	"string/=", "string/!=", "string/contains", "string/does-not-contain",
	"string/starts-with", "string/ends-with",
	"number/!=", "number/between", "number/>=", "number/<=",
	"date/range", "date/relative", "date/all-options",
	"date/month-year", "date/quarter-year",
}

var dashboardFilterTypes = []any{
	"string/=", "string/!=", "string/contains", "string/does-not-contain",
	"string/starts-with", "string/ends-with",
	"location/=", "location/!=", "location/contains",
	"location/does-not-contain", "location/starts-with", "location/ends-with",
	"number/=", "number/!=", "number/between", "number/>=", "number/<=",
	"date/single", "date/range", "date/relative", "date/all-options",
	"date/month-year", "date/quarter-year",
	"id", "temporal-unit",
}

// CardFilterSchema validates the descriptor array for query (card)
// level processing.
var CardFilterSchema = &Schema{
	Type: "array",
	Items: &Schema{
		Type:     "object",
		Required: []string{"name", "type"},
		Closed:   true,
		Properties: map[string]*Schema{
			"id":            {Type: "string"},
			"name":          {Type: "string", Pattern: tokenNamePattern},
			"display_name":  {Type: "string"},
			"type":          {Type: "string", Enum: cardFilterTypes},
			"default":       {},
			"required":      {Type: "boolean"},
			"field":         fieldRefSchema,
			"ui_widget":     {Type: "string", Enum: []any{"input", "dropdown", "search"}},
			"values_source": valuesSourceSchema(true),
		},
	},
}

// DashboardFilterSchema validates the descriptor array for dashboard
// level processing.
var DashboardFilterSchema = &Schema{
	Type: "array",
	Items: &Schema{
		Type:     "object",
		Required: []string{"name", "type"},
		Closed:   true,
		Properties: map[string]*Schema{
			"id":            {Type: "string"},
			"name":          {Type: "string"},
			"type":          {Type: "string", Enum: dashboardFilterTypes},
			"default":       {},
			"required":      {Type: "boolean"},
			"isMultiSelect": {Type: "boolean"},
			"temporal_units": {
				Type:     "array",
				MinItems: 1,
				Items:    &Schema{Type: "string", Enum: temporalUnitEnum()},
			},
			"values_source": valuesSourceSchema(false),
		},
		Conditionals: []Conditional{
			{
				Property: "type",
				Equals:   []string{"temporal-unit"},
				Then:     &Schema{Required: []string{"temporal_units"}},
			},
		},
	},
}

func temporalUnitEnum() []any {
	units := TemporalUnits()
	enum := make([]any, len(units))
	for i, u := range units {
		enum[i] = u
	}
	return enum
}
