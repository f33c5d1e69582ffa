package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// Fixed user-facing answers for the pipeline's terminal states. The
// Success flag in the response is the authoritative signal; these
// strings are placeholders for humans, not for parsing.
const (
	noInformationAnswer   = "I couldn't find relevant information in the indexed documentation to answer your question."
	generationErrorAnswer = "Sorry, I ran into a problem while generating the answer. Please try again."
	notConfiguredAnswer   = "The AI services needed to answer questions are not configured yet."
)

// historyLoadLimit bounds how many stored turns are loaded per query.
const historyLoadLimit = 20

// answerService implements the AnswerService interface:
// rewrite -> embed -> search -> threshold adaptation -> generation ->
// citation extraction -> response assembly.
type answerService struct {
	services      *runtime.Services
	retriever     *AdaptiveRetriever
	citations     *CitationExtractor
	conversations driven.ConversationStore
	usage         driven.UsageRecorder
	logger        *slog.Logger
}

// NewAnswerService creates a new AnswerService.
// AI services (embedding, LLM) are accessed dynamically via runtime.Services.
func NewAnswerService(
	services *runtime.Services,
	retriever *AdaptiveRetriever,
	conversations driven.ConversationStore,
	usage driven.UsageRecorder,
	logger *slog.Logger,
) driving.AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &answerService{
		services:      services,
		retriever:     retriever,
		citations:     NewCitationExtractor(),
		conversations: conversations,
		usage:         usage,
		logger:        logger,
	}
}

// Answer runs the full question-answering pipeline. Pipeline failures
// are reported in the response's Success flag; the returned error is
// reserved for invalid input.
func (s *answerService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", domain.ErrInvalidInput)
	}

	history := s.loadHistory(ctx, req)

	if !s.services.Config().CanAnswer() {
		return &domain.QueryResponse{
			Success:        false,
			Answer:         notConfiguredAnswer,
			Sources:        []domain.Source{},
			Question:       question,
			RewrittenQuery: question,
		}, nil
	}

	result, rewritten, usage, err := s.retriever.Retrieve(ctx, question, history, req.FilterKey)
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		return &domain.QueryResponse{
			Success:        false,
			Answer:         generationErrorAnswer,
			Sources:        []domain.Source{},
			Question:       question,
			RewrittenQuery: rewritten,
			Usage:          usage,
		}, nil
	}

	if result.Empty() {
		resp := &domain.QueryResponse{
			Success:        false,
			Answer:         noInformationAnswer,
			Sources:        []domain.Source{},
			Question:       question,
			RewrittenQuery: rewritten,
			Usage:          usage,
			MaxScore:       result.MaxScore,
			Threshold:      result.UsedThreshold,
		}
		s.recordUsage(ctx, req.ConversationID, usage)
		return resp, nil
	}

	contextBlocks := buildContextBlocks(result.Items)

	// Re-fetch after retrieval: a settings update may have cleared the
	// LLM while the embedding and search round trips were in flight.
	llm := s.services.LLMService()
	if llm == nil {
		s.recordUsage(ctx, req.ConversationID, usage)
		return &domain.QueryResponse{
			Success:        false,
			Answer:         notConfiguredAnswer,
			Sources:        []domain.Source{},
			Question:       question,
			RewrittenQuery: rewritten,
			Usage:          usage,
		}, nil
	}
	answer, genUsage, err := llm.GenerateAnswer(ctx, question, contextBlocks, history)
	usage = usage.Add(genUsage)
	if err != nil {
		s.logger.Error("answer generation failed", "error", err)
		s.recordUsage(ctx, req.ConversationID, usage)
		return &domain.QueryResponse{
			Success:        false,
			Answer:         generationErrorAnswer,
			Sources:        []domain.Source{},
			Question:       question,
			RewrittenQuery: rewritten,
			Usage:          usage,
		}, nil
	}

	sources, fallback := s.citations.Extract(answer, result.Items)
	if fallback {
		s.logger.Info("no citation markers detected, using top-scored fallback sources",
			"sources", len(sources))
	}

	s.recordUsage(ctx, req.ConversationID, usage)

	return &domain.QueryResponse{
		Success:         true,
		Answer:          answer,
		Sources:         sources,
		Question:        question,
		RewrittenQuery:  rewritten,
		Usage:           usage,
		FallbackSources: fallback,
	}, nil
}

// loadHistory resolves conversation context. Inline history wins over
// the stored conversation; load failures degrade to no history.
func (s *answerService) loadHistory(ctx context.Context, req domain.QueryRequest) []domain.ConversationTurn {
	if len(req.History) > 0 {
		return req.History
	}
	if req.ConversationID == "" || s.conversations == nil {
		return nil
	}
	history, err := s.conversations.History(ctx, req.ConversationID, historyLoadLimit)
	if err != nil {
		s.logger.Warn("loading conversation history failed", "conversation_id", req.ConversationID, "error", err)
		return nil
	}
	return history
}

// recordUsage reports token usage; failures are logged and never fail
// the query.
func (s *answerService) recordUsage(ctx context.Context, conversationID string, usage domain.TokenUsage) {
	if s.usage == nil || usage.TotalTokens == 0 {
		return
	}
	rec := driven.UsageRecord{
		ConversationID: conversationID,
		Operation:      "query",
		Usage:          usage,
		At:             time.Now().UTC(),
	}
	if err := s.usage.Record(ctx, rec); err != nil {
		s.logger.Warn("recording token usage failed", "error", err)
	}
}

// buildContextBlocks renders retrieved items as numbered blocks so the
// generator can cite them as "[Document n]". Endpoint blocks are built
// from the individual payload fields, not full_text: the retriever
// clips the schema-heavy fields, and full_text still carries them
// unclipped.
func buildContextBlocks(items []domain.RetrievedItem) []string {
	blocks := make([]string, 0, len(items))
	for i, item := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "[Document %d]\n", i+1)
		if item.IsEndpoint() {
			method := item.PayloadString("method")
			path := item.PayloadString("path")
			if method != "" || path != "" {
				fmt.Fprintf(&b, "Endpoint: %s %s\n", method, path)
			}
			if summary := item.PayloadString("summary"); summary != "" {
				fmt.Fprintf(&b, "Summary: %s\n", summary)
			}
			if desc := item.PayloadString("description"); desc != "" {
				fmt.Fprintf(&b, "Description: %s\n", desc)
			}
			if params := item.PayloadString("parameters"); params != "" {
				fmt.Fprintf(&b, "Parameters:\n%s\n", params)
			}
			if body := item.PayloadString("request_body"); body != "" {
				fmt.Fprintf(&b, "Request body:\n%s\n", body)
			}
			if resp := item.PayloadString("responses"); resp != "" {
				fmt.Fprintf(&b, "Responses:\n%s\n", resp)
			}
		} else {
			if title := item.PayloadString("title"); title != "" {
				fmt.Fprintf(&b, "Title: %s\n", title)
			}
			if url := item.PayloadString("url"); url != "" {
				fmt.Fprintf(&b, "URL: %s\n", url)
			}
			b.WriteString(item.PayloadString("text"))
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return blocks
}
