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
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// DecodeCardFilters validates a raw descriptor array against the card
// schema and unmarshals it. Structural errors abort decoding entirely.
func DecodeCardFilters(raw []any) ([]FilterDescriptor, []StructuralError) {
	return decodeDescriptors(CardFilterSchema, raw)
}

// DecodeDashboardFilters validates a raw descriptor array against the
// dashboard schema and unmarshals it.
func DecodeDashboardFilters(raw []any) ([]FilterDescriptor, []StructuralError) {
	return decodeDescriptors(DashboardFilterSchema, raw)
}

func decodeDescriptors(schema *Schema, raw []any) ([]FilterDescriptor, []StructuralError) {
	if errs := ValidateSchema(schema, raw); len(errs) > 0 {
		return nil, errs
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, []StructuralError{{Path: "$", Message: err.Error()}}
	}
	var descs []FilterDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, []StructuralError{{Path: "$", Message: err.Error()}}
	}
	return descs, nil
}

// ProcessCardFilters expands card-level descriptors into paired
// template tags and UI parameters sharing a linking identifier. Any
// business-rule violation rejects the whole batch.
func ProcessCardFilters(descs []FilterDescriptor) (*ProcessedCard, []ValidationError) {
	errs := validateCardFilters(descs)
	if len(errs) > 0 {
		return nil, errs
	}

	out := &ProcessedCard{
		TemplateTags: make(map[string]TemplateTag, len(descs)),
		Parameters:   make([]UIParameter, 0, len(descs)),
	}
	for _, d := range descs {
		id := d.ID
		if id == "" {
			id = NewCardParameterID()
		}
		tag, param := buildCardPair(d, id)
		out.TemplateTags[tag.Name] = tag
		out.Parameters = append(out.Parameters, param)
	}
	return out, nil
}

func validateCardFilters(descs []FilterDescriptor) []ValidationError {
	var errs []ValidationError
	add := func(i int, name, format string, args ...any) {
		errs = append(errs, ValidationError{Index: i, Name: name, Message: fmt.Sprintf(format, args...)})
	}

	seenNames := map[string]bool{}
	seenIDs := map[string]bool{}
	for i, d := range descs {
		if seenNames[d.Name] {
			add(i, d.Name, "duplicate name %q", d.Name)
		}
		seenNames[d.Name] = true

		if d.ID != "" {
			if seenIDs[d.ID] {
				add(i, d.Name, "duplicate ID %q", d.ID)
			}
			seenIDs[d.ID] = true
		}

		// Card-level names are placeholder tokens already; a name the
		// slugifier would rewrite cannot match its own slug.
		if slug := Slugify(d.Name); slug != d.Name {
			add(i, d.Name, "name %q is not a valid placeholder token (slug would be %q); use lowercase letters, digits and underscores", d.Name, slug)
		}

		isFieldFilter := IsFieldFilterType(d.Type)
		if isFieldFilter && d.Field == nil {
			add(i, d.Name, "type %q is a field filter and requires a field binding (database_id, table_id, field_id)", d.Type)
		}
		if !isFieldFilter && d.Field != nil {
			add(i, d.Name, "type %q substitutes a plain value; remove the field binding", d.Type)
		}

		if msg := checkWidgetCompatibility(d); msg != "" {
			add(i, d.Name, "%s", msg)
		}
		if d.ValuesSource != nil && d.ValuesSource.Type == "connected" && !isFieldFilter {
			add(i, d.Name, "connected values source is only available for field filters")
		}
		if msg := checkDefaultShape(d.Type, false, d.Default); msg != "" {
			add(i, d.Name, "%s", msg)
		}
		if d.Required && emptyDefault(d.Default) {
			add(i, d.Name, "required filters must have a non-empty default value")
		}
	}
	return errs
}

func checkWidgetCompatibility(d FilterDescriptor) string {
	switch d.UIWidget {
	case "search":
		switch d.Type {
		case "category", "string/contains", "string/starts-with", "string/ends-with":
		default:
			return fmt.Sprintf("search widget is not compatible with type %q", d.Type)
		}
	case "dropdown":
		if strings.HasPrefix(d.Type, "date/") && d.Type != "date/single" {
			return fmt.Sprintf("dropdown widget is not compatible with date filter type %q", d.Type)
		}
	}
	return ""
}

func buildCardPair(d FilterDescriptor, id string) (TemplateTag, UIParameter) {
	display := d.DisplayName
	if display == "" {
		display = d.Name
	}

	tag := TemplateTag{
		Name:        d.Name,
		ID:          id,
		DisplayName: display,
		Default:     reformatDefault(d),
	}
	var target []any
	if tagType, simple := SimpleTagType(d.Type); simple {
		tag.Type = tagType
		target = []any{"variable", []any{"template-tag", d.Name}}
	} else {
		tag.Type = "dimension"
		tag.Dimension = []any{"field", d.Field.FieldID, nil}
		tag.WidgetType = d.Type
		target = []any{"dimension", []any{"template-tag", d.Name}}
	}
	if d.Required {
		req := true
		tag.Required = &req
	}

	param := UIParameter{
		ID:      id,
		Type:    d.Type,
		Target:  target,
		Name:    display,
		Slug:    d.Name,
		Default: tag.Default,
	}
	if d.Required {
		req := true
		param.Required = &req
	}
	applyValuesSource(&param, d)
	return tag, param
}

// ProcessDashboardFilters expands dashboard-level descriptors into
// standalone UI parameters. Dashboard parameters are linked to cards
// only through explicit mappings, never paired with template tags.
func ProcessDashboardFilters(descs []FilterDescriptor) ([]UIParameter, []ValidationError) {
	errs := validateDashboardFilters(descs)
	if len(errs) > 0 {
		return nil, errs
	}

	existing := map[string]bool{}
	for _, d := range descs {
		if d.ID != "" {
			existing[d.ID] = true
		}
	}

	out := make([]UIParameter, 0, len(descs))
	for i, d := range descs {
		id := d.ID
		if id == "" {
			var err error
			id, err = NewDashboardParameterID(existing)
			if err != nil {
				return nil, []ValidationError{{Index: i, Name: d.Name, Message: err.Error()}}
			}
			existing[id] = true
		}

		param := UIParameter{
			ID:        id,
			Type:      NativeType(d.Type),
			Name:      d.Name,
			Slug:      Slugify(d.Name),
			SectionID: SectionIDOf(d.Type),
			Default:   reformatDefault(d),
		}
		if d.Required {
			req := true
			param.Required = &req
		}
		if SupportsMultiSelect(d.Type) {
			multi := MultiSelectDefault(d.Type, d.IsMultiSelect)
			param.IsMultiSelect = &multi
		}
		if d.Type == "temporal-unit" {
			param.TemporalUnits = d.TemporalUnits
		}
		applyValuesSource(&param, d)
		out = append(out, param)
	}
	return out, nil
}

func validateDashboardFilters(descs []FilterDescriptor) []ValidationError {
	var errs []ValidationError
	add := func(i int, name, format string, args ...any) {
		errs = append(errs, ValidationError{Index: i, Name: name, Message: fmt.Sprintf(format, args...)})
	}

	seenNames := map[string]bool{}
	seenIDs := map[string]bool{}
	for i, d := range descs {
		if seenNames[d.Name] {
			add(i, d.Name, "duplicate name %q", d.Name)
		}
		seenNames[d.Name] = true

		if d.ID != "" {
			if seenIDs[d.ID] {
				add(i, d.Name, "duplicate ID %q", d.ID)
			}
			seenIDs[d.ID] = true
		}

		if d.Name == "tab" {
			add(i, d.Name, "name %q is reserved for dashboard tabs", d.Name)
		}

		multi := MultiSelectDefault(d.Type, d.IsMultiSelect)
		if multi && !SupportsMultiSelect(d.Type) {
			add(i, d.Name, "multi-select is not supported for type %q", d.Type)
		}

		if d.Type == "temporal-unit" {
			if len(d.TemporalUnits) == 0 {
				add(i, d.Name, "temporal-unit filters require a non-empty temporal_units list")
			}
			for _, u := range d.TemporalUnits {
				if !ValidTemporalUnit(u) {
					add(i, d.Name, "invalid temporal unit %q", u)
				}
			}
			if s, ok := d.Default.(string); ok && s != "" && !slices.Contains(d.TemporalUnits, s) {
				add(i, d.Name, "default %q is not among the configured temporal_units", s)
			}
		}

		if msg := checkDefaultShape(d.Type, multi && SupportsMultiSelect(d.Type), d.Default); msg != "" {
			add(i, d.Name, "%s", msg)
		}
		if d.Required && emptyDefault(d.Default) {
			add(i, d.Name, "required filters must have a non-empty default value")
		}
	}
	return errs
}

// reformatDefault applies the platform's historical default-value
// quirks: a scalar default on a number filter backed by a static value
// list becomes a one-element array of strings.
func reformatDefault(d FilterDescriptor) any {
	if d.Default == nil {
		return nil
	}
	if CategoryIs(d.Type, CategoryNumber) && staticSource(d) {
		if _, isList := d.Default.([]any); !isList {
			return []any{cast.ToString(d.Default)}
		}
	}
	return d.Default
}

// CategoryIs reports whether filterType belongs to category c.
func CategoryIs(filterType string, c Category) bool {
	got, ok := categoryByType[filterType]
	return ok && got == c
}

func staticSource(d FilterDescriptor) bool {
	return d.ValuesSource != nil && d.ValuesSource.Type == "static"
}

// applyValuesSource fills values_query_type and the value source
// configuration on an already-built parameter.
func applyValuesSource(param *UIParameter, d FilterDescriptor) {
	queryType := deriveQueryType(d)
	param.ValuesQueryType = queryType
	if queryType != "list" && queryType != "search" {
		return
	}
	if d.ValuesSource == nil {
		return
	}

	switch d.ValuesSource.Type {
	case "static":
		values := d.ValuesSource.Values
		if CategoryIs(d.Type, CategoryNumber) {
			// Numeric value lists are stored as one-tuples for
			// compatibility with composite-key value lists.
			wrapped := make([]any, len(values))
			for i, v := range values {
				wrapped[i] = []any{cast.ToString(v)}
			}
			values = wrapped
		}
		param.ValuesSourceType = "static-list"
		param.ValuesSourceConfig = map[string]any{"values": values}
	case "card":
		config := map[string]any{
			"card_id":     d.ValuesSource.CardID,
			"value_field": fieldByName(d.ValuesSource.ValueField),
		}
		if d.ValuesSource.LabelField != "" {
			config["label_field"] = fieldByName(d.ValuesSource.LabelField)
		}
		param.ValuesSourceType = "card"
		param.ValuesSourceConfig = config
	case "connected":
		// The platform derives values live from the bound field; the
		// null source type marker plus empty config signals exactly that.
		param.ValuesSourceType = ""
		param.ValuesSourceConfig = map[string]any{}
	}
}

// fieldByName wraps a result column name in the field reference form
// the platform expects for card value sources.
func fieldByName(name string) []any {
	return []any{"field", name, map[string]any{"base-type": "type/Text"}}
}

func deriveQueryType(d FilterDescriptor) string {
	if d.UIWidget != "" {
		return WidgetQueryType(d.UIWidget)
	}
	if d.ValuesSource == nil {
		return "none"
	}
	switch d.ValuesSource.Type {
	case "static":
		return "list"
	case "card":
		return "search"
	}
	return "none"
}

// checkDefaultShape verifies the default value's shape against the
// filter type and effective multi-select setting. Empty string means
// the shape is acceptable.
func checkDefaultShape(filterType string, isMultiSelect bool, def any) string {
	if def == nil {
		return ""
	}

	if filterType == "number/between" {
		pair, ok := def.([]any)
		if !ok || len(pair) != 2 {
			return "number/between filters require a two-element [min, max] array as default"
		}
		for _, v := range pair {
			if !isNumber(v) {
				return "number/between filters require numeric bounds as default"
			}
		}
		return ""
	}

	cat, ok := CategoryOf(filterType)
	if !ok {
		return fmt.Sprintf("unknown filter type %q", filterType)
	}

	if isMultiSelect {
		list, ok := def.([]any)
		if !ok {
			return fmt.Sprintf("multi-select filters require an array default, got %s", typeName(def))
		}
		for _, v := range list {
			if msg := checkScalarDefault(cat, v); msg != "" {
				return msg
			}
		}
		return ""
	}

	if _, isList := def.([]any); isList {
		return fmt.Sprintf("type %q takes a single default value, not an array", filterType)
	}
	return checkScalarDefault(cat, def)
}

func checkScalarDefault(cat Category, v any) string {
	switch cat {
	case CategoryNumber:
		if !isNumber(v) {
			return fmt.Sprintf("number filters require numeric default values, got %s", typeName(v))
		}
	case CategoryDate:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("date filters require string default values, got %s", typeName(v))
		}
	case CategoryText, CategoryLocation:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("text filters require string default values, got %s", typeName(v))
		}
	case CategoryID:
		if _, ok := v.(string); !ok && !isNumber(v) {
			return fmt.Sprintf("id filters require string or numeric default values, got %s", typeName(v))
		}
	case CategoryTemporalUnit:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("temporal-unit filters require a temporal unit name as default, got %s", typeName(v))
		}
	}
	return ""
}

// emptyDefault treats nil, empty string and empty array uniformly as
// "no usable default".
func emptyDefault(def any) bool {
	switch v := def.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}
