package openapi

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaRegistry is the shared, possibly cyclic registry of named
// schemas ($ref targets), keyed by name. Read-only input; never
// mutated by flattening.
type SchemaRegistry map[string]any

// Flatten converts a JSON-Schema-style node into descriptive text.
// Reference cycles are cut with an inline marker: the visited set
// tracks the names on the current $ref chain, and a name is removed
// again once its subtree is done, so diamond-shaped (non-cyclic)
// sharing still expands fully. Termination is therefore bounded by
// the number of distinct schema names.
func Flatten(node any, registry SchemaRegistry, visited map[string]bool) string {
	return flatten(node, registry, visited, 0)
}

// FlattenSchema is Flatten with a fresh visited set.
func FlattenSchema(node any, registry SchemaRegistry) string {
	return flatten(node, registry, map[string]bool{}, 0)
}

func flatten(node any, registry SchemaRegistry, visited map[string]bool, depth int) string {
	schema, ok := node.(map[string]any)
	if !ok || schema == nil {
		return ""
	}

	if ref, ok := schema["$ref"].(string); ok {
		name := refName(ref)
		if visited[name] {
			return "circular reference: " + name
		}
		target, ok := registry[name]
		if !ok {
			return "unresolved reference: " + name
		}
		visited[name] = true
		out := flatten(target, registry, visited, depth)
		delete(visited, name)
		return out
	}

	var lines []string
	add := func(line string) {
		lines = append(lines, line)
	}

	if t, ok := schema["type"].(string); ok && t != "" {
		add("type: " + t)
	}
	if f, ok := schema["format"].(string); ok && f != "" {
		add("format: " + f)
	}
	if d, ok := schema["description"].(string); ok && d != "" {
		add("description: " + d)
	}
	if ex, ok := schema["example"]; ok && ex != nil {
		add(fmt.Sprintf("example: %v", ex))
	}
	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		vals := make([]string, len(enum))
		for i, v := range enum {
			vals[i] = fmt.Sprintf("%v", v)
		}
		add("enum: " + strings.Join(vals, ", "))
	}

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		required := requiredSet(schema)

		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		add("properties:")
		for _, name := range names {
			marker := "(optional)"
			if required[name] {
				marker = "(required)"
			}
			body := flatten(props[name], registry, visited, depth+1)
			add(indent(fmt.Sprintf("%s %s: %s", name, marker, compact(body)), 1))
		}
	}

	if items, ok := schema["items"]; ok && items != nil {
		body := flatten(items, registry, visited, depth+1)
		add("array item: " + compact(body))
	}

	return strings.Join(lines, "\n")
}

// refName extracts the schema name from a $ref like
// "#/components/schemas/User".
func refName(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

func requiredSet(schema map[string]any) map[string]bool {
	out := map[string]bool{}
	req, ok := schema["required"].([]any)
	if !ok {
		return out
	}
	for _, r := range req {
		if name, ok := r.(string); ok {
			out[name] = true
		}
	}
	return out
}

// compact joins a multi-line flattened subtree into one line so
// property listings stay readable.
func compact(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "; ")
}

func indent(s string, levels int) string {
	pad := strings.Repeat("  ", levels)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}
