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

import "sort"

// Category is the semantic family of a filter type.
type Category string

const (
	CategoryText         Category = "text"
	CategoryNumber       Category = "number"
	CategoryDate         Category = "date"
	CategoryLocation     Category = "location"
	CategoryID           Category = "id"
	CategoryTemporalUnit Category = "temporal-unit"
)

// Shape is the form a default value must take for a given filter type.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeArray
	ShapeRangePair
)

// Simple card-level filter types and the template tag type each maps to.
var simpleTagTypes = map[string]string{
	"category":    "text",
	"number/=":    "number",
	"date/single": "date",
}

var categoryByType = map[string]Category{
	"category": CategoryText,

	"string/=":                CategoryText,
	"string/!=":               CategoryText,
	"string/contains":         CategoryText,
	"string/does-not-contain": CategoryText,
	"string/starts-with":      CategoryText,
	"string/ends-with":        CategoryText,

	"location/=":                CategoryLocation,
	"location/!=":               CategoryLocation,
	"location/contains":         CategoryLocation,
	"location/does-not-contain": CategoryLocation,
	"location/starts-with":      CategoryLocation,
	"location/ends-with":        CategoryLocation,

	"number/=":       CategoryNumber,
	"number/!=":      CategoryNumber,
	"number/between": CategoryNumber,
	"number/>=":      CategoryNumber,
	"number/<=":      CategoryNumber,

	"date/single":       CategoryDate,
	"date/range":        CategoryDate,
	"date/relative":     CategoryDate,
	"date/all-options":  CategoryDate,
	"date/month-year":   CategoryDate,
	"date/quarter-year": CategoryDate,

	"id":            CategoryID,
	"temporal-unit": CategoryTemporalUnit,
}

// Types supporting multi-select: string comparisons, number equality,
// id, and the location kinds (string kinds under a location tag).
// Date kinds, temporal-unit and number range/comparison kinds do not.
var multiSelectSupported = map[string]bool{
	"string/=":                  true,
	"string/!=":                 true,
	"string/contains":           true,
	"string/does-not-contain":   true,
	"string/starts-with":        true,
	"string/ends-with":          true,
	"number/=":                  true,
	"number/!=":                 true,
	"id":                        true,
	"location/=":                true,
	"location/!=":               true,
	"location/contains":         true,
	"location/does-not-contain": true,
	"location/starts-with":      true,
	"location/ends-with":        true,
}

var sectionIDByCategory = map[Category]string{
	CategoryText:         "string",
	CategoryNumber:       "number",
	CategoryDate:         "date",
	CategoryLocation:     "location",
	CategoryID:           "id",
	CategoryTemporalUnit: "temporal-unit",
}

// Location types render with location affordances but are mechanically
// string filters; the output type is rewritten through this table.
var locationToString = map[string]string{
	"location/=":                "string/=",
	"location/!=":               "string/!=",
	"location/contains":         "string/contains",
	"location/does-not-contain": "string/does-not-contain",
	"location/starts-with":      "string/starts-with",
	"location/ends-with":        "string/ends-with",
}

var validTemporalUnits = map[string]bool{
	"minute": true, "hour": true, "day": true, "week": true,
	"month": true, "quarter": true, "year": true,
	"minute-of-hour": true, "hour-of-day": true, "day-of-week": true,
	"day-of-month": true, "day-of-year": true, "week-of-year": true,
	"month-of-year": true, "quarter-of-year": true,
}

// UI widget hints mapped to Metabase values_query_type.
var widgetQueryTypes = map[string]string{
	"input":    "none",
	"dropdown": "list",
	"search":   "search",
}

// CategoryOf returns the semantic category of a filter type. The
// second return is false for types outside the taxonomy.
func CategoryOf(filterType string) (Category, bool) {
	c, ok := categoryByType[filterType]
	return c, ok
}

// KnownType reports whether filterType belongs to the closed taxonomy.
func KnownType(filterType string) bool {
	_, ok := categoryByType[filterType]
	return ok
}

// SupportsMultiSelect reports whether a filter type may be rendered as
// a multi-value control.
func SupportsMultiSelect(filterType string) bool {
	return multiSelectSupported[filterType]
}

// DefaultShape returns the shape a default value must take for the
// given type and effective multi-select setting.
func DefaultShape(filterType string, isMultiSelect bool) Shape {
	if filterType == "number/between" {
		return ShapeRangePair
	}
	if isMultiSelect && multiSelectSupported[filterType] {
		return ShapeArray
	}
	return ShapeScalar
}

// MultiSelectDefault returns the effective multi-select setting:
// supported categories default to true unless the author disables it.
func MultiSelectDefault(filterType string, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	return multiSelectSupported[filterType]
}

// SectionIDOf returns the UI section tag for a filter type.
func SectionIDOf(filterType string) string {
	c, ok := categoryByType[filterType]
	if !ok {
		return "string"
	}
	return sectionIDByCategory[c]
}

// NativeType rewrites location types to their string operator while
// leaving every other type untouched.
func NativeType(filterType string) string {
	if s, ok := locationToString[filterType]; ok {
		return s
	}
	return filterType
}

// SimpleTagType returns the template tag type for simple (non
// field-binding) card filters, or false if the type requires a field
// binding.
func SimpleTagType(filterType string) (string, bool) {
	t, ok := simpleTagTypes[filterType]
	return t, ok
}

// IsFieldFilterType reports whether a card-level filter of this type
// binds directly to a database field rather than substituting a value.
func IsFieldFilterType(filterType string) bool {
	if _, simple := simpleTagTypes[filterType]; simple {
		return false
	}
	return KnownType(filterType)
}

// ValidTemporalUnit reports whether unit is a temporal granularity the
// platform understands.
func ValidTemporalUnit(unit string) bool {
	return validTemporalUnits[unit]
}

// TemporalUnits returns the full set of valid granularities, sorted so
// error messages and documentation output are stable.
func TemporalUnits() []string {
	units := make([]string, 0, len(validTemporalUnits))
	for u := range validTemporalUnits {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// WidgetQueryType maps a ui_widget hint to the native values_query_type.
// An unset or unknown widget means free input.
func WidgetQueryType(widget string) string {
	if q, ok := widgetQueryTypes[widget]; ok {
		return q
	}
	return "none"
}
