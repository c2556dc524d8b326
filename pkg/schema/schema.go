// Package schema rewrites caller-supplied JSON Schemas into the subset the
// backend accepts. The backend rejects $ref/$defs and anyOf/oneOf, and
// requires every object node to carry properties, so schemas are resolved
// and simplified before they are attached to a function definition.
//
// Both passes are pure: inputs are never mutated, and the composed
// Resolve(s) is idempotent, so identical logical schemas always produce
// byte-identical backend payloads.
package schema

import "strings"

// Resolve fully prepares a schema for the backend: references are inlined,
// unions are collapsed, and structural requirements are enforced.
func Resolve(s map[string]any) map[string]any {
	return Normalize(ResolveRefs(s))
}

// ResolveRefs inlines "$ref": "#/$defs/X" references with their recursively
// resolved targets, drops $defs everywhere, and collapses anyOf/oneOf
// unions. A union collapses to its first non-null variant with sibling keys
// (description, default, title) merged in unless the variant already has
// them; a union of only null types collapses to {"type": "null"}.
func ResolveRefs(s map[string]any) map[string]any {
	defs, _ := s["$defs"].(map[string]any)

	resolved, ok := resolveValue(s, defs).(map[string]any)
	if !ok {
		return s
	}
	return resolved
}

func resolveValue(obj any, defs map[string]any) any {
	switch node := obj.(type) {
	case map[string]any:
		if ref, ok := node["$ref"].(string); ok {
			if strings.HasPrefix(ref, "#/$defs/") {
				name := ref[strings.LastIndex(ref, "/")+1:]
				if target, ok := defs[name]; ok {
					return resolveValue(target, defs)
				}
			}
			// Unresolvable reference: pass through untouched.
			return node
		}

		for _, unionKey := range []string{"anyOf", "oneOf"} {
			variants, ok := node[unionKey].([]any)
			if !ok {
				continue
			}
			chosen := firstNonNullVariant(variants)
			if chosen == nil {
				return map[string]any{"type": "null"}
			}

			result, ok := resolveValue(chosen, defs).(map[string]any)
			if !ok {
				return resolveValue(chosen, defs)
			}
			// Carry sibling keys the variant does not define itself.
			for key, value := range node {
				if key == unionKey || key == "$defs" {
					continue
				}
				if _, exists := result[key]; !exists {
					result[key] = resolveValue(value, defs)
				}
			}
			return result
		}

		out := make(map[string]any, len(node))
		for key, value := range node {
			if key == "$defs" {
				continue
			}
			out[key] = resolveValue(value, defs)
		}
		return out

	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = resolveValue(item, defs)
		}
		return out

	default:
		return obj
	}
}

func firstNonNullVariant(variants []any) map[string]any {
	for _, v := range variants {
		variant, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := variant["type"].(string); t != "null" {
			return variant
		}
	}
	return nil
}

// Normalize enforces the backend's structural requirements on an already
// ref-free schema: array-style type lists become the first non-null scalar,
// residual anyOf/oneOf unions collapse the same way ResolveRefs collapses
// them, and every object node gains properties (empty when absent). It
// recurses into properties, items, additionalProperties, allOf and
// $defs/definitions.
func Normalize(s map[string]any) map[string]any {
	result := make(map[string]any, len(s))
	for key, value := range s {
		result[key] = value
	}

	if types, ok := result["type"].([]any); ok && len(types) > 0 {
		picked := types[0]
		for _, t := range types {
			if t != "null" {
				picked = t
				break
			}
		}
		result["type"] = picked
	}

	for _, unionKey := range []string{"anyOf", "oneOf"} {
		variants, ok := result[unionKey].([]any)
		if !ok {
			continue
		}
		var filtered []any
		for _, v := range variants {
			if variant, ok := v.(map[string]any); ok {
				if t, _ := variant["type"].(string); t == "null" {
					continue
				}
			}
			filtered = append(filtered, v)
		}
		delete(result, unionKey)

		if len(filtered) > 0 {
			if single, ok := filtered[0].(map[string]any); ok {
				for key, value := range Normalize(single) {
					if _, exists := result[key]; !exists {
						result[key] = value
					}
				}
			}
		}
	}

	if allOf, ok := result["allOf"].([]any); ok {
		normalized := make([]any, len(allOf))
		for i, item := range allOf {
			if sub, ok := item.(map[string]any); ok {
				normalized[i] = Normalize(sub)
			} else {
				normalized[i] = item
			}
		}
		result["allOf"] = normalized
	}

	if t, _ := result["type"].(string); t == "object" {
		if _, ok := result["properties"]; !ok {
			result["properties"] = map[string]any{}
		}
	}

	if props, ok := result["properties"].(map[string]any); ok {
		normalized := make(map[string]any, len(props))
		for key, value := range props {
			if sub, ok := value.(map[string]any); ok {
				normalized[key] = Normalize(sub)
			} else {
				normalized[key] = value
			}
		}
		result["properties"] = normalized
	}

	switch items := result["items"].(type) {
	case map[string]any:
		result["items"] = Normalize(items)
	case []any:
		normalized := make([]any, len(items))
		for i, item := range items {
			if sub, ok := item.(map[string]any); ok {
				normalized[i] = Normalize(sub)
			} else {
				normalized[i] = item
			}
		}
		result["items"] = normalized
	}

	if additional, ok := result["additionalProperties"].(map[string]any); ok {
		result["additionalProperties"] = Normalize(additional)
	}

	for _, defsKey := range []string{"$defs", "definitions"} {
		defs, ok := result[defsKey].(map[string]any)
		if !ok {
			continue
		}
		normalized := make(map[string]any, len(defs))
		for key, value := range defs {
			if sub, ok := value.(map[string]any); ok {
				normalized[key] = Normalize(sub)
			} else {
				normalized[key] = value
			}
		}
		result[defsKey] = normalized
	}

	return result
}
