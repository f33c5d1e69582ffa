package domain

import "strings"

// Role identifies the speaker of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one prior message of a conversation.
// Conversations are owned by an external collaborator; the core only
// reads them back as a plain ordered list.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage tracks LLM token consumption for a single call or a whole request
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the sum of two usage counters
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// QueryRequest is the input to the question-answering entry point.
// History may be supplied inline or loaded via ConversationID;
// inline history wins when both are present.
type QueryRequest struct {
	Question       string             `json:"question"`
	ConversationID string             `json:"conversation_id,omitempty"`
	History        []ConversationTurn `json:"conversation_history,omitempty"`
	FilterKey      string             `json:"filter_key,omitempty"`
}

// Source identifies one retrieved item that the answer actually cites.
// Document chunks populate Title/URL; API endpoints populate
// Method/Path/Summary.
type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Method  string  `json:"method,omitempty"`
	Path    string  `json:"path,omitempty"`
	Summary string  `json:"summary,omitempty"`
	Score   float64 `json:"score"`
}

// QueryResponse is the outcome of a query. Success is authoritative:
// transport-level status codes do not signal pipeline failures.
type QueryResponse struct {
	Success        bool       `json:"success"`
	Answer         string     `json:"answer"`
	Sources        []Source   `json:"sources"`
	Question       string     `json:"question"`
	RewrittenQuery string     `json:"rewritten_query"`
	Usage          TokenUsage `json:"usage"`

	// Diagnostics for the no-relevant-result terminal state
	MaxScore  float64 `json:"max_score,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`

	// FallbackSources is set when no citation markers were detected and
	// the sources list is a best-effort top-scored subset instead
	FallbackSources bool `json:"fallback_sources,omitempty"`
}

// FormatHistory renders conversation turns as speaker-labeled lines
// for inclusion in an LLM prompt.
func FormatHistory(turns []ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "User"
		if t.Role == RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// LastTurns returns at most n trailing turns of a conversation.
func LastTurns(turns []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
