package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// clippedFields are the bulky per-item payload fields truncated before
// they reach the answer generator.
var clippedFields = []string{"parameters", "request_body", "responses"}

// AdaptiveRetriever embeds a query and searches the vector index,
// applying a similarity cutoff with a single-step relaxation: when
// nothing clears MinScore but the best candidate is above Floor, the
// threshold is lowered once to max(Floor, bestScore-StepDown) and the
// candidates refiltered. At most one retry, one fixed step.
type AdaptiveRetriever struct {
	services   *runtime.Services
	index      driven.VectorIndex
	rewriter   *QueryRewriter
	collection string
	logger     *slog.Logger

	mu     sync.RWMutex
	params domain.RetrievalParams
}

// NewAdaptiveRetriever creates a new AdaptiveRetriever
func NewAdaptiveRetriever(
	services *runtime.Services,
	index driven.VectorIndex,
	rewriter *QueryRewriter,
	collection string,
	logger *slog.Logger,
) *AdaptiveRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdaptiveRetriever{
		services:   services,
		index:      index,
		rewriter:   rewriter,
		collection: collection,
		logger:     logger,
		params:     domain.DefaultRetrievalParams(),
	}
}

// Params returns the current retrieval parameters.
func (r *AdaptiveRetriever) Params() domain.RetrievalParams {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params
}

// SetParams swaps the retrieval parameters, normalising zero values.
func (r *AdaptiveRetriever) SetParams(p domain.RetrievalParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = p.Normalise()
}

// Retrieve rewrites the question, embeds it and runs the adaptive
// threshold search. The rewritten query and accumulated token usage
// are returned alongside the result so callers can report them.
func (r *AdaptiveRetriever) Retrieve(ctx context.Context, question string, history []domain.ConversationTurn, filterKey string) (domain.RetrievalResult, string, domain.TokenUsage, error) {
	params := r.Params()
	usage := domain.TokenUsage{}

	rewritten, rewriteUsage := r.rewriter.Rewrite(ctx, question, history)
	usage = usage.Add(rewriteUsage)

	embedder := r.services.EmbeddingService()
	if embedder == nil {
		return domain.RetrievalResult{}, rewritten, usage, domain.ErrEmbeddingUnavailable
	}

	vector, embedUsage, err := embedder.EmbedQuery(ctx, rewritten)
	usage = usage.Add(embedUsage)
	if err != nil {
		return domain.RetrievalResult{}, rewritten, usage, fmt.Errorf("embedding query: %w", err)
	}

	var filter domain.Filter
	if filterKey != "" {
		filter = domain.Filter{domain.PayloadFilterKey: filterKey}
	}

	candidates, err := r.index.Search(ctx, r.collection, vector, params.Overfetch, filter)
	if err != nil {
		return domain.RetrievalResult{}, rewritten, usage, fmt.Errorf("vector search: %w", err)
	}

	result := adapt(candidates, params)
	if result.Empty() {
		r.logger.Info("no candidates cleared the relevance threshold",
			"max_score", result.MaxScore,
			"threshold", result.UsedThreshold)
	}
	return result, rewritten, usage, nil
}

// adapt applies the threshold algorithm to a scored candidate list.
func adapt(candidates []domain.RetrievedItem, params domain.RetrievalParams) domain.RetrievalResult {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := 0.0
	if len(candidates) > 0 {
		best = candidates[0].Score
	}

	kept := filterByScore(candidates, params.MinScore)
	threshold := params.MinScore

	if len(kept) == 0 && best >= params.Floor {
		threshold = best - params.StepDown
		if threshold < params.Floor {
			threshold = params.Floor
		}
		kept = filterByScore(candidates, threshold)
	}

	if len(kept) == 0 {
		// Sentinel: report the hard cutoff, not the relaxed one
		return domain.RetrievalResult{
			Items:         nil,
			UsedThreshold: params.MinScore,
			MaxScore:      best,
		}
	}

	if len(kept) > params.ContextLimit {
		kept = kept[:params.ContextLimit]
	}
	for i := range kept {
		kept[i] = clipItem(kept[i], params.FieldClip)
	}

	return domain.RetrievalResult{
		Items:         kept,
		UsedThreshold: threshold,
		MaxScore:      best,
	}
}

func filterByScore(items []domain.RetrievedItem, threshold float64) []domain.RetrievedItem {
	var kept []domain.RetrievedItem
	for _, item := range items {
		if item.Score >= threshold {
			kept = append(kept, item)
		}
	}
	return kept
}

// clipItem truncates bulky payload fields so a single schema-heavy
// endpoint cannot dominate the generator's input.
func clipItem(item domain.RetrievedItem, limit int) domain.RetrievedItem {
	if item.Payload == nil || limit <= 0 {
		return item
	}

	clipped := item
	var copied bool
	for _, field := range clippedFields {
		s, ok := item.Payload[field].(string)
		if !ok || len(s) <= limit {
			continue
		}
		if !copied {
			clipped.Payload = make(map[string]any, len(item.Payload))
			for k, v := range item.Payload {
				clipped.Payload[k] = v
			}
			copied = true
		}
		clipped.Payload[field] = s[:limit] + "..."
	}
	return clipped
}
