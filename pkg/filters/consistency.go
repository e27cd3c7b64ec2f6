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
	"regexp"
)

// Warning is an advisory finding from the consistency check. Warnings
// never block submission: they run on raw query text, not a SQL parse,
// and can have false positives.
type Warning struct {
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// Warning kinds.
const (
	WarnMissingFilter      = "missing_filter_configuration"
	WarnUnusedFilter       = "unused_filter"
	WarnRequiredNoDefault  = "required_without_default"
	WarnQuotedPlaceholder  = "quoted_placeholder"
	WarnFieldFilterAsValue = "field_filter_as_value"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)
	optionalBlock      = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)
	quotedPlaceholder  = regexp.MustCompile(`['"]\s*\{\{\s*([A-Za-z0-9_]+)\s*\}\}\s*['"]`)
	comparisonBefore   = regexp.MustCompile(`(?i)(=|!=|<>|<=|>=|<|>|\bLIKE\b|\bIN\b)\s*\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)
)

// placeholderRef is a placeholder token extracted from query text.
type placeholderRef struct {
	name     string
	required bool
}

// extractPlaceholders finds every {{name}} token in the query,
// classifying tokens inside [[ ... ]] optional blocks as optional.
// A name appearing both ways counts as required.
func extractPlaceholders(query string) []placeholderRef {
	optional := map[string]bool{}
	for _, block := range optionalBlock.FindAllString(query, -1) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(block, -1) {
			optional[m[1]] = true
		}
	}

	stripped := optionalBlock.ReplaceAllString(query, "")
	required := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(stripped, -1) {
		required[m[1]] = true
	}

	var refs []placeholderRef
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(query, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, placeholderRef{name: name, required: required[name] || !optional[name]})
	}
	return refs
}

// CheckQueryFilters cross-references placeholder tokens in raw query
// text against the supplied filter descriptors and flags likely
// misconfigurations before the card is submitted to the platform.
func CheckQueryFilters(query string, descs []FilterDescriptor) []Warning {
	var warnings []Warning

	byName := map[string]FilterDescriptor{}
	for _, d := range descs {
		byName[d.Name] = d
	}

	refs := extractPlaceholders(query)
	referenced := map[string]bool{}
	for _, ref := range refs {
		referenced[ref.name] = true
		d, configured := byName[ref.name]
		if !configured {
			warnings = append(warnings, Warning{
				Kind:    WarnMissingFilter,
				Name:    ref.name,
				Message: fmt.Sprintf("query references {{%s}} but no filter named %q is configured", ref.name, ref.name),
			})
			continue
		}
		if ref.required && emptyDefault(d.Default) {
			warnings = append(warnings, Warning{
				Kind:    WarnRequiredNoDefault,
				Name:    ref.name,
				Message: fmt.Sprintf("{{%s}} appears outside any [[ ]] optional block but filter %q has no default; the query cannot run until a value is supplied", ref.name, ref.name),
			})
		}
	}

	for _, d := range descs {
		if !referenced[d.Name] {
			warnings = append(warnings, Warning{
				Kind:    WarnUnusedFilter,
				Name:    d.Name,
				Message: fmt.Sprintf("filter %q is configured but {{%s}} never appears in the query", d.Name, d.Name),
			})
		}
	}

	warnings = append(warnings, checkMisusePatterns(query, byName)...)
	return warnings
}

// checkMisusePatterns flags the two classic substitution mistakes:
// quoting a placeholder that already substitutes a quoted literal, and
// comparing against a field filter that substitutes a whole boolean
// condition.
func checkMisusePatterns(query string, byName map[string]FilterDescriptor) []Warning {
	var warnings []Warning

	for _, m := range quotedPlaceholder.FindAllStringSubmatch(query, -1) {
		name := m[1]
		warnings = append(warnings, Warning{
			Kind:    WarnQuotedPlaceholder,
			Name:    name,
			Message: fmt.Sprintf("remove the quotes around {{%s}}: value substitution already inserts correctly quoted literals, so '{{%s}}' produces doubled quoting", name, name),
		})
	}

	for _, m := range comparisonBefore.FindAllStringSubmatch(query, -1) {
		name := m[2]
		d, ok := byName[name]
		if !ok || d.Field == nil {
			continue
		}
		warnings = append(warnings, Warning{
			Kind:    WarnFieldFilterAsValue,
			Name:    name,
			Message: fmt.Sprintf("{{%s}} is a field filter and substitutes a whole boolean condition; write \"WHERE {{%s}}\" instead of comparing against it", name, name),
		})
	}

	return warnings
}
