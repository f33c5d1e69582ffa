package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// Document carries the identifying fields of a parsed specification.
type Document struct {
	Title   string
	Version string
}

var httpMethods = []string{"get", "post", "put", "patch", "delete", "head", "options"}

// Parse decodes a raw OpenAPI document (JSON or YAML) and extracts one
// endpoint record per operation, with parameter/request/response
// schemas flattened to text. Format is "json", "yaml", or "" to sniff.
func Parse(raw []byte, format string) (*Document, []*domain.IndexedEndpoint, error) {
	root, err := decode(raw, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpec, err)
	}

	doc := &Document{}
	if info, ok := root["info"].(map[string]any); ok {
		doc.Title, _ = info["title"].(string)
		doc.Version, _ = info["version"].(string)
	}

	registry := schemaRegistry(root)

	paths, ok := root["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w: no paths", domain.ErrInvalidSpec)
	}

	pathNames := make([]string, 0, len(paths))
	for p := range paths {
		pathNames = append(pathNames, p)
	}
	sort.Strings(pathNames)

	var endpoints []*domain.IndexedEndpoint
	for _, path := range pathNames {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range httpMethods {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			endpoints = append(endpoints, extractEndpoint(strings.ToUpper(method), path, op, registry))
		}
	}

	if len(endpoints) == 0 {
		return nil, nil, fmt.Errorf("%w: no operations", domain.ErrInvalidSpec)
	}
	return doc, endpoints, nil
}

// decode unmarshals the document into an untyped tree. YAML handles
// both formats, but JSON input goes through encoding/json so numbers
// and nesting behave exactly as stored.
func decode(raw []byte, format string) (map[string]any, error) {
	switch format {
	case "json":
		return decodeJSON(raw)
	case "yaml", "yml":
		return decodeYAML(raw)
	case "":
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "{") {
			return decodeJSON(raw)
		}
		return decodeYAML(raw)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func decodeJSON(raw []byte) (map[string]any, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeYAML(raw []byte) (map[string]any, error) {
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return root, nil
}

// schemaRegistry pulls the shared schema registry out of the document.
// Supports both OpenAPI 3 (components.schemas) and Swagger 2
// (definitions).
func schemaRegistry(root map[string]any) SchemaRegistry {
	if components, ok := root["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			return SchemaRegistry(schemas)
		}
	}
	if defs, ok := root["definitions"].(map[string]any); ok {
		return SchemaRegistry(defs)
	}
	return SchemaRegistry{}
}

func extractEndpoint(method, path string, op map[string]any, registry SchemaRegistry) *domain.IndexedEndpoint {
	ep := &domain.IndexedEndpoint{
		Method: method,
		Path:   path,
	}
	ep.Summary, _ = op["summary"].(string)
	ep.Description, _ = op["description"].(string)

	if tags, ok := op["tags"].([]any); ok {
		for _, t := range tags {
			if tag, ok := t.(string); ok {
				ep.Tags = append(ep.Tags, tag)
			}
		}
	}

	ep.ParametersText = parametersText(op, registry)
	ep.RequestBodyText = requestBodyText(op, registry)
	ep.ResponsesText = responsesText(op, registry)
	ep.FullText = fullText(ep)

	return ep
}

// parametersText renders each parameter as one block:
// "name (in, required): <flattened schema>".
func parametersText(op map[string]any, registry SchemaRegistry) string {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return ""
	}

	var lines []string
	for _, p := range params {
		param, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name, _ := param["name"].(string)
		in, _ := param["in"].(string)
		required, _ := param["required"].(bool)

		marker := "optional"
		if required {
			marker = "required"
		}
		head := fmt.Sprintf("%s (%s, %s)", name, in, marker)

		if desc, ok := param["description"].(string); ok && desc != "" {
			head += ": " + desc
		}
		if schema, ok := param["schema"]; ok {
			if body := FlattenSchema(schema, registry); body != "" {
				head += "\n" + indent(body, 1)
			}
		}
		lines = append(lines, head)
	}
	return strings.Join(lines, "\n")
}

func requestBodyText(op map[string]any, registry SchemaRegistry) string {
	body, ok := op["requestBody"].(map[string]any)
	if !ok {
		return ""
	}
	var lines []string
	if desc, ok := body["description"].(string); ok && desc != "" {
		lines = append(lines, desc)
	}
	for _, schema := range contentSchemas(body) {
		if text := FlattenSchema(schema, registry); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// responsesText renders each response as "code: description" plus the
// flattened response schema when present.
func responsesText(op map[string]any, registry SchemaRegistry) string {
	responses, ok := op["responses"].(map[string]any)
	if !ok || len(responses) == 0 {
		return ""
	}

	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var lines []string
	for _, code := range codes {
		resp, ok := responses[code].(map[string]any)
		if !ok {
			continue
		}
		desc, _ := resp["description"].(string)
		lines = append(lines, code+": "+desc)

		for _, schema := range contentSchemas(resp) {
			if text := FlattenSchema(schema, registry); text != "" {
				lines = append(lines, indent(text, 1))
			}
		}
		// Swagger 2 puts the schema directly on the response
		if schema, ok := resp["schema"]; ok {
			if text := FlattenSchema(schema, registry); text != "" {
				lines = append(lines, indent(text, 1))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// contentSchemas collects the schemas of all media types, in stable order.
func contentSchemas(node map[string]any) []any {
	content, ok := node["content"].(map[string]any)
	if !ok {
		return nil
	}

	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	var schemas []any
	for _, mt := range mediaTypes {
		media, ok := content[mt].(map[string]any)
		if !ok {
			continue
		}
		if schema, ok := media["schema"]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// fullText assembles the embeddable representation of an endpoint.
func fullText(ep *domain.IndexedEndpoint) string {
	var b strings.Builder
	b.WriteString(ep.Method + " " + ep.Path)
	if ep.Summary != "" {
		b.WriteString("\n" + ep.Summary)
	}
	if ep.Description != "" {
		b.WriteString("\n" + ep.Description)
	}
	if len(ep.Tags) > 0 {
		b.WriteString("\ntags: " + strings.Join(ep.Tags, ", "))
	}
	if ep.ParametersText != "" {
		b.WriteString("\nparameters:\n" + ep.ParametersText)
	}
	if ep.RequestBodyText != "" {
		b.WriteString("\nrequest body:\n" + ep.RequestBodyText)
	}
	if ep.ResponsesText != "" {
		b.WriteString("\nresponses:\n" + ep.ResponsesText)
	}
	return b.String()
}
