package ai

import (
	"fmt"
	"strings"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// rewriteSystemPrompt instructs the model to produce a standalone
// search query. Identifier-like tokens must survive verbatim or the
// rewritten query retrieves the wrong documents.
const rewriteSystemPrompt = `You reformulate user questions into standalone search queries.
Rules:
- Resolve pronouns and references using the conversation when provided.
- Keep identifiers exactly as written: ticket numbers, branch names, version strings, endpoint paths, error codes.
- Prefer concrete keywords over conversational filler.
- Reply with the rewritten query only, no explanations and no quotes.`

// answerSystemPrompt instructs the model to answer only from the
// provided context and to cite blocks by their [Document n] label.
const answerSystemPrompt = `You answer questions using only the provided context documents.
Rules:
- Base the answer strictly on the context. If the context does not contain the answer, say so.
- Cite every claim with the label of the document it came from, e.g. [Document 2].
- For API endpoints, name the method and path.
- Be concise and factual.`

// buildAnswerPrompt assembles the user message for answer generation:
// numbered context blocks, optional conversation, then the question.
func buildAnswerPrompt(question string, contextBlocks []string, history []domain.ConversationTurn) string {
	var b strings.Builder

	b.WriteString("Context documents:\n\n")
	for _, block := range contextBlocks {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	if formatted := domain.FormatHistory(history); formatted != "" {
		b.WriteString("Recent conversation:\n")
		b.WriteString(formatted)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
