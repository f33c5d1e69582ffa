package domain

// Filter is a metadata equality filter applied to vector search.
// All entries must match. A nil filter matches everything.
type Filter map[string]string

// Payload keys shared by indexed chunks and endpoints.
const (
	PayloadKind      = "kind"
	PayloadFilterKey = "filter_key"

	KindChunk    = "chunk"
	KindEndpoint = "endpoint"
)

// RetrievedItem is one similarity-search hit. It is constructed per
// query and never persisted. Score is cosine similarity, higher is
// more similar.
type RetrievedItem struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// PayloadString returns a string payload field, or "" when absent.
func (r RetrievedItem) PayloadString(key string) string {
	if r.Payload == nil {
		return ""
	}
	s, _ := r.Payload[key].(string)
	return s
}

// IsEndpoint reports whether the item is an indexed API endpoint.
func (r RetrievedItem) IsEndpoint() bool {
	return r.PayloadString(PayloadKind) == KindEndpoint
}

// RetrievalResult is the outcome of the adaptive-threshold algorithm:
// either a non-empty item list, or the no-relevant-result sentinel
// (empty Items) carrying the best observed score and the threshold
// that was applied.
type RetrievalResult struct {
	Items         []RetrievedItem `json:"items"`
	UsedThreshold float64         `json:"used_threshold"`
	MaxScore      float64         `json:"max_score"`
}

// Empty reports whether nothing cleared the relevance threshold.
func (r RetrievalResult) Empty() bool {
	return len(r.Items) == 0
}

// RetrievalParams tunes the adaptive retriever. The defaults were
// chosen empirically; they are configuration, not invariants.
type RetrievalParams struct {
	// MinScore is the hard similarity cutoff applied first
	MinScore float64 `json:"min_score"`

	// Floor is the lowest score the single-step relaxation may accept
	Floor float64 `json:"floor"`

	// StepDown is subtracted from the best score on the one retry
	StepDown float64 `json:"step_down"`

	// ContextLimit caps how many items reach the answer generator
	ContextLimit int `json:"context_limit"`

	// Overfetch is how many candidates to pull from the index
	Overfetch int `json:"overfetch"`

	// FieldClip truncates bulky per-item text fields before they are
	// handed to the generator (an ellipsis marker is appended)
	FieldClip int `json:"field_clip"`
}

// DefaultRetrievalParams returns the tuned defaults.
func DefaultRetrievalParams() RetrievalParams {
	return RetrievalParams{
		MinScore:     0.35,
		Floor:        0.25,
		StepDown:     0.05,
		ContextLimit: 5,
		Overfetch:    10,
		FieldClip:    500,
	}
}

// Normalise fills zero values with defaults so a partially specified
// update cannot disable retrieval.
func (p RetrievalParams) Normalise() RetrievalParams {
	def := DefaultRetrievalParams()
	if p.MinScore <= 0 {
		p.MinScore = def.MinScore
	}
	if p.Floor <= 0 {
		p.Floor = def.Floor
	}
	if p.StepDown <= 0 {
		p.StepDown = def.StepDown
	}
	if p.ContextLimit <= 0 {
		p.ContextLimit = def.ContextLimit
	}
	if p.Overfetch <= 0 {
		p.Overfetch = def.Overfetch
	}
	if p.FieldClip <= 0 {
		p.FieldClip = def.FieldClip
	}
	return p
}

// SourceFromItem maps a retrieved item back to its citeable identity.
func SourceFromItem(item RetrievedItem) Source {
	src := Source{
		ID:    item.ID,
		Score: item.Score,
	}
	if item.IsEndpoint() {
		src.Method = item.PayloadString("method")
		src.Path = item.PayloadString("path")
		src.Summary = item.PayloadString("summary")
		return src
	}
	src.Title = item.PayloadString("title")
	src.URL = item.PayloadString("url")
	return src
}
