package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// historyWindow is how many trailing conversation turns the rewriter
// considers. More adds prompt cost without improving the rewrite.
const historyWindow = 5

// QueryRewriter turns conversational questions into keyword-dense
// standalone search queries using the configured LLM. Rewriting is an
// optimization: any failure falls back to the original question with
// zero usage, and retrieval proceeds.
type QueryRewriter struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewQueryRewriter creates a new QueryRewriter
func NewQueryRewriter(services *runtime.Services, logger *slog.Logger) *QueryRewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryRewriter{
		services: services,
		logger:   logger,
	}
}

// Rewrite returns a search-friendly form of question. The returned
// string is never empty when question is non-empty.
func (r *QueryRewriter) Rewrite(ctx context.Context, question string, history []domain.ConversationTurn) (string, domain.TokenUsage) {
	llm := r.services.LLMService()
	if llm == nil || !r.services.Config().CanRewrite() {
		return question, domain.TokenUsage{}
	}

	trimmed := domain.LastTurns(history, historyWindow)

	rewritten, usage, err := llm.RewriteQuery(ctx, question, trimmed)
	if err != nil {
		r.logger.Warn("query rewrite failed, using original question", "error", err)
		return question, domain.TokenUsage{}
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, domain.TokenUsage{}
	}
	return rewritten, usage
}
