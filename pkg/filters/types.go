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

// Package filters implements the interactive-filter configuration core:
// it expands simplified filter descriptors into Metabase's native,
// cross-linked representation (template tags + UI parameters),
// cross-checks filters against raw SQL text, and resolves dashboard
// parameter mappings onto card parameters.
package filters

import "fmt"

// FieldRef identifies the database column a field filter binds to.
type FieldRef struct {
	DatabaseID int64 `json:"database_id"`
	TableID    int64 `json:"table_id"`
	FieldID    int64 `json:"field_id"`
}

// ValuesSource describes where a filter's selectable values come from.
// Type is one of "static", "card" or "connected".
type ValuesSource struct {
	Type       string `json:"type"`
	Values     []any  `json:"values,omitempty"`
	CardID     int64  `json:"card_id,omitempty"`
	ValueField string `json:"value_field,omitempty"`
	LabelField string `json:"label_field,omitempty"`
}

// FilterDescriptor is the simplified filter form supplied by the caller.
// It is the input to both card-level and dashboard-level processing.
type FilterDescriptor struct {
	// ID is set by the caller only on updates, to preserve the
	// identifier assigned when the filter was first created. Losing it
	// orphans any dashboard mapping that referenced it.
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	DisplayName   string        `json:"display_name,omitempty"`
	Type          string        `json:"type"`
	Default       any           `json:"default,omitempty"`
	Required      bool          `json:"required,omitempty"`
	Field         *FieldRef     `json:"field,omitempty"`
	UIWidget      string        `json:"ui_widget,omitempty"`
	ValuesSource  *ValuesSource `json:"values_source,omitempty"`
	IsMultiSelect *bool         `json:"isMultiSelect,omitempty"`
	TemporalUnits []string      `json:"temporal_units,omitempty"`
}

// TemplateTag is the inline query-level placeholder structure, keyed by
// name inside the native query payload.
type TemplateTag struct {
	Type        string `json:"type"` // text, number, date or dimension
	Name        string `json:"name"`
	ID          string `json:"id"`
	DisplayName string `json:"display-name"`
	Dimension   []any  `json:"dimension,omitempty"` // ["field", <field_id>, nil]
	WidgetType  string `json:"widget-type,omitempty"`
	Default     any    `json:"default,omitempty"`
	Required    *bool  `json:"required,omitempty"`
}

// UIParameter is the user-facing interactive control descriptor.
// Card-level parameters are paired 1:1 with a TemplateTag through ID
// and slug; dashboard-level parameters stand alone and are linked to
// cards only through explicit mappings.
type UIParameter struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	Target             []any          `json:"target,omitempty"`
	Name               string         `json:"name"`
	Slug               string         `json:"slug"`
	SectionID          string         `json:"sectionId,omitempty"`
	Default            any            `json:"default,omitempty"`
	Required           *bool          `json:"required,omitempty"`
	IsMultiSelect      *bool          `json:"isMultiSelect,omitempty"`
	TemporalUnits      []string       `json:"temporal_units,omitempty"`
	ValuesQueryType    string         `json:"values_query_type,omitempty"`
	ValuesSourceType   string         `json:"values_source_type,omitempty"`
	ValuesSourceConfig map[string]any `json:"values_source_config,omitempty"`
}

// ProcessedCard is the paired output of card-level filter processing,
// merged by the tool layer into the native create/update card payload.
type ProcessedCard struct {
	TemplateTags map[string]TemplateTag `json:"template_tags"`
	Parameters   []UIParameter          `json:"parameters"`
}

// ValidationError is a business-rule violation. The whole batch is
// rejected when any exist; Index and Name let the caller fix every
// descriptor in one round trip.
type ValidationError struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("filter %d (%s): %s", e.Index, e.Name, e.Message)
	}
	return fmt.Sprintf("filter %d: %s", e.Index, e.Message)
}

// ErrorStrings renders a validation error batch for tool responses.
func ErrorStrings[E error](errs []E) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
