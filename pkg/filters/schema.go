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
	"strings"
)

// Schema is a small declarative structural schema: enough to express
// types, enums, required fields, item bounds and conditional
// sub-schemas over descriptor maps. Business rules that need
// cross-item comparison or registry knowledge stay out of it.
type Schema struct {
	// Type is one of "object", "array", "string", "number",
	// "integer", "boolean", or "" for any.
	Type string

	// Object constraints.
	Properties map[string]*Schema
	Required   []string
	// Closed, when true, rejects properties not listed in Properties.
	Closed bool

	// Array constraints.
	Items    *Schema
	MinItems int
	MaxItems int // 0 means unbounded

	// Scalar constraints.
	Enum    []any
	Pattern *regexp.Regexp

	// Conditionals apply extra schemas depending on sibling values.
	Conditionals []Conditional
}

// Conditional applies Then when the named property's string value
// matches; if the property is absent the conditional is skipped.
type Conditional struct {
	Property string
	Equals   []string
	Matches  *regexp.Regexp
	Then     *Schema
}

// StructuralError names a path within the instance and the reason the
// schema rejected it.
type StructuralError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateSchema checks instance against schema and returns every
// structural violation found. Pure and deterministic: no I/O.
func ValidateSchema(schema *Schema, instance any) []StructuralError {
	var errs []StructuralError
	validateAt(schema, instance, "$", &errs)
	return errs
}

func validateAt(schema *Schema, value any, path string, errs *[]StructuralError) {
	if schema == nil {
		return
	}

	switch schema.Type {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected object, got %s", typeName(value))})
			return
		}
		validateObject(schema, obj, path, errs)
	case "array":
		arr, ok := value.([]any)
		if !ok {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected array, got %s", typeName(value))})
			return
		}
		validateArray(schema, arr, path, errs)
	case "string":
		s, ok := value.(string)
		if !ok {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected string, got %s", typeName(value))})
			return
		}
		if schema.Pattern != nil && !schema.Pattern.MatchString(s) {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("%q does not match pattern %s", s, schema.Pattern)})
		}
	case "number":
		if !isNumber(value) {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected number, got %s", typeName(value))})
			return
		}
	case "integer":
		if !isInteger(value) {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected integer, got %s", typeName(value))})
			return
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected boolean, got %s", typeName(value))})
			return
		}
	}

	if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
		*errs = append(*errs, StructuralError{path, fmt.Sprintf("value %v is not one of %s", value, enumList(schema.Enum))})
	}
}

func validateObject(schema *Schema, obj map[string]any, path string, errs *[]StructuralError) {
	for _, req := range schema.Required {
		if _, ok := obj[req]; !ok {
			*errs = append(*errs, StructuralError{path, fmt.Sprintf("missing required property %q", req)})
		}
	}
	if schema.Closed {
		for key := range obj {
			if _, ok := schema.Properties[key]; !ok {
				*errs = append(*errs, StructuralError{path, fmt.Sprintf("unexpected property %q", key)})
			}
		}
	}
	for key, sub := range schema.Properties {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		validateAt(sub, v, path+"."+key, errs)
	}
	for _, cond := range schema.Conditionals {
		v, ok := obj[cond.Property]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if matchesCondition(cond, s) {
			validateObject(cond.Then, obj, path, errs)
		}
	}
}

func validateArray(schema *Schema, arr []any, path string, errs *[]StructuralError) {
	if len(arr) < schema.MinItems {
		*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected at least %d items, got %d", schema.MinItems, len(arr))})
	}
	if schema.MaxItems > 0 && len(arr) > schema.MaxItems {
		*errs = append(*errs, StructuralError{path, fmt.Sprintf("expected at most %d items, got %d", schema.MaxItems, len(arr))})
	}
	if schema.Items != nil {
		for i, item := range arr {
			validateAt(schema.Items, item, fmt.Sprintf("%s[%d]", path, i), errs)
		}
	}
}

func matchesCondition(cond Conditional, value string) bool {
	for _, eq := range cond.Equals {
		if value == eq {
			return true
		}
	}
	if cond.Matches != nil && cond.Matches.MatchString(value) {
		return true
	}
	return false
}

func enumContains(enum []any, value any) bool {
	for _, e := range enum {
		if e == value {
			return true
		}
		// JSON numbers arrive as float64; allow integer enum entries.
		if ef, ok := toFloat(e); ok {
			if vf, vok := toFloat(value); vok && ef == vf {
				return true
			}
		}
	}
	return false
}

func enumList(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func isInteger(v any) bool {
	f, ok := toFloat(v)
	return ok && f == float64(int64(f))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
