package domain

import (
	"strings"
	"time"
)

// ApiDocument tracks one uploaded API specification. Key is the
// caller-chosen stable identifier used for filtering and for
// replace-on-reupload; ID is opaque and changes on every upload.
type ApiDocument struct {
	Key        string    `json:"key"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Version    string    `json:"version"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// IndexedEndpoint is the unit of vector indexing for API sources: one
// HTTP operation extracted from a specification, with its schemas
// flattened to text.
type IndexedEndpoint struct {
	ID              string    `json:"id"`
	Method          string    `json:"method"`
	Path            string    `json:"path"`
	Summary         string    `json:"summary"`
	Description     string    `json:"description"`
	Tags            []string  `json:"tags"`
	ParametersText  string    `json:"parameters_text"`
	RequestBodyText string    `json:"request_body_text"`
	ResponsesText   string    `json:"responses_text"`
	FullText        string    `json:"full_text"`
	DocumentKey     string    `json:"document_key"`
	DocumentID      string    `json:"document_id"`
	Vector          []float32 `json:"-"`
}

// Signature returns the canonical "METHOD /path" form.
func (e *IndexedEndpoint) Signature() string {
	return e.Method + " " + e.Path
}

// IndexPayload builds the metadata stored alongside the endpoint's vector.
func (e *IndexedEndpoint) IndexPayload() map[string]any {
	return map[string]any{
		PayloadKind:      KindEndpoint,
		PayloadFilterKey: e.DocumentKey,
		"method":         e.Method,
		"path":           e.Path,
		"summary":        e.Summary,
		"description":    e.Description,
		"tags":           strings.Join(e.Tags, ","),
		"parameters":     e.ParametersText,
		"request_body":   e.RequestBodyText,
		"responses":      e.ResponsesText,
		"full_text":      e.FullText,
		"document_key":   e.DocumentKey,
		"document_id":    e.DocumentID,
	}
}

// ApiIngestReport summarises one API-specification upload.
type ApiIngestReport struct {
	DocumentKey   string `json:"document_key"`
	DocumentID    string `json:"document_id"`
	EndpointCount int    `json:"api_count"`
	Errors        int    `json:"errors"`

	// Replaced is true when a previous upload under the same key was
	// purged before this one was indexed
	Replaced bool `json:"replaced"`
}
