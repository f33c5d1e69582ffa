package driving

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// AnswerService runs the full question-answering pipeline:
// rewrite -> embed -> search -> threshold adaptation -> generation ->
// citation extraction -> response assembly.
type AnswerService interface {
	// Answer answers a natural-language question from indexed content.
	// Pipeline failures are reported in the response's Success flag,
	// not as errors; the returned error is reserved for invalid input.
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}
