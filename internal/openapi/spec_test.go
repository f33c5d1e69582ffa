package openapi

import (
	"errors"
	"strings"
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

const petstoreJSON = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "1.2.0"},
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "tag": {"type": "string"}
        }
      }
    }
  },
  "paths": {
    "/pets": {
      "get": {
        "summary": "List all pets",
        "tags": ["pets"],
        "parameters": [
          {"name": "limit", "in": "query", "required": false, "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {
            "description": "A list of pets",
            "content": {
              "application/json": {
                "schema": {"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}
              }
            }
          }
        }
      },
      "post": {
        "summary": "Create a pet",
        "requestBody": {
          "content": {
            "application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}
          }
        },
        "responses": {
          "201": {"description": "Created"}
        }
      }
    }
  }
}`

const petstoreYAML = `
openapi: 3.0.0
info:
  title: Petstore
  version: 1.2.0
paths:
  /pets/{petId}:
    get:
      summary: Get a pet by id
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: The pet
`

func TestParse_JSON(t *testing.T) {
	doc, endpoints, err := Parse([]byte(petstoreJSON), "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Petstore" || doc.Version != "1.2.0" {
		t.Errorf("unexpected document identity: %+v", doc)
	}
	if len(endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(endpoints))
	}

	get := endpoints[0]
	if get.Method != "GET" || get.Path != "/pets" {
		t.Errorf("unexpected first endpoint: %s %s", get.Method, get.Path)
	}
	if get.Summary != "List all pets" {
		t.Errorf("unexpected summary: %q", get.Summary)
	}
	if len(get.Tags) != 1 || get.Tags[0] != "pets" {
		t.Errorf("unexpected tags: %v", get.Tags)
	}
	if !strings.Contains(get.ParametersText, "limit (query, optional)") {
		t.Errorf("unexpected parameters text:\n%s", get.ParametersText)
	}
	if !strings.Contains(get.ResponsesText, "200: A list of pets") {
		t.Errorf("unexpected responses text:\n%s", get.ResponsesText)
	}

	post := endpoints[1]
	if !strings.Contains(post.RequestBodyText, "name (required)") {
		t.Errorf("expected Pet schema flattened into request body:\n%s", post.RequestBodyText)
	}
	if !strings.Contains(post.FullText, "POST /pets") {
		t.Errorf("expected signature in full text:\n%s", post.FullText)
	}
}

func TestParse_YAML(t *testing.T) {
	doc, endpoints, err := Parse([]byte(petstoreYAML), "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Petstore" {
		t.Errorf("unexpected title: %q", doc.Title)
	}
	if len(endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(endpoints))
	}
	if endpoints[0].Method != "GET" || endpoints[0].Path != "/pets/{petId}" {
		t.Errorf("unexpected endpoint: %s %s", endpoints[0].Method, endpoints[0].Path)
	}
	if !strings.Contains(endpoints[0].ParametersText, "petId (path, required)") {
		t.Errorf("unexpected parameters text:\n%s", endpoints[0].ParametersText)
	}
}

func TestParse_SniffFormat(t *testing.T) {
	if _, _, err := Parse([]byte(petstoreJSON), ""); err != nil {
		t.Errorf("expected JSON sniffing to succeed: %v", err)
	}
	if _, _, err := Parse([]byte(petstoreYAML), ""); err != nil {
		t.Errorf("expected YAML sniffing to succeed: %v", err)
	}
}

func TestParse_InvalidSpec(t *testing.T) {
	cases := map[string]string{
		"garbage":  "{{{not a spec",
		"no paths": `{"openapi": "3.0.0", "info": {"title": "x"}}`,
		"no ops":   `{"openapi": "3.0.0", "paths": {"/a": {}}}`,
	}
	for name, raw := range cases {
		if _, _, err := Parse([]byte(raw), ""); !errors.Is(err, domain.ErrInvalidSpec) {
			t.Errorf("%s: expected ErrInvalidSpec, got %v", name, err)
		}
	}
}
