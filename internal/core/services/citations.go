package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// fallbackSourceCount caps the best-effort provenance list returned
// when the answer carries no detectable citations.
const fallbackSourceCount = 3

// CitationStrategy detects which context items an answer actually
// cites. Implementations return the 0-based indices of cited items.
type CitationStrategy interface {
	Extract(answer string, items []domain.RetrievedItem) []int
}

// indexMarkerPattern matches bracketed ordinal markers the generator
// is instructed to emit, e.g. "[Document 3]".
var indexMarkerPattern = regexp.MustCompile(`\[Document\s+(\d+)\]`)

// IndexMarkerStrategy maps "[Document n]" markers back to the n-th
// item (1-based) of the ordered context list.
type IndexMarkerStrategy struct{}

func (IndexMarkerStrategy) Extract(answer string, items []domain.RetrievedItem) []int {
	var indices []int
	seen := make(map[int]bool)
	for _, match := range indexMarkerPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(items) {
			continue
		}
		idx := n - 1
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}
	return indices
}

// EndpointSignatureStrategy matches API endpoint items by testing
// whether any canonical textual form of the endpoint appears in the
// answer: "METHOD /path", method and path separately, the bare path
// or the human-readable summary. Matching is case-insensitive.
type EndpointSignatureStrategy struct{}

func (EndpointSignatureStrategy) Extract(answer string, items []domain.RetrievedItem) []int {
	lower := strings.ToLower(answer)

	var indices []int
	for i, item := range items {
		if !item.IsEndpoint() {
			continue
		}
		method := strings.ToLower(item.PayloadString("method"))
		path := strings.ToLower(item.PayloadString("path"))
		summary := strings.ToLower(item.PayloadString("summary"))

		cited := false
		switch {
		case method != "" && path != "" && strings.Contains(lower, method+" "+path):
			cited = true
		case method != "" && path != "" && strings.Contains(lower, method) && strings.Contains(lower, path):
			cited = true
		case path != "" && strings.Contains(lower, path):
			cited = true
		case summary != "" && strings.Contains(lower, summary):
			cited = true
		}
		if cited {
			indices = append(indices, i)
		}
	}
	return indices
}

// CitationExtractor runs all strategies and unions their hits,
// ordered by context position. When nothing matches it falls back to
// the top-scored items rather than claiming zero sources; the
// fallback is flagged so callers can tell it apart from a genuine
// citation match.
type CitationExtractor struct {
	strategies []CitationStrategy
}

// NewCitationExtractor creates an extractor with the default
// strategies.
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{
		strategies: []CitationStrategy{
			IndexMarkerStrategy{},
			EndpointSignatureStrategy{},
		},
	}
}

// Extract returns the cited subset of items as sources. The bool is
// true when the fallback provenance list was used.
func (e *CitationExtractor) Extract(answer string, items []domain.RetrievedItem) ([]domain.Source, bool) {
	if len(items) == 0 {
		return nil, false
	}

	cited := make(map[int]bool)
	for _, strategy := range e.strategies {
		for _, idx := range strategy.Extract(answer, items) {
			if idx >= 0 && idx < len(items) {
				cited[idx] = true
			}
		}
	}

	if len(cited) == 0 {
		// Items arrive ordered by descending score, so the head of
		// the list is the best-effort provenance subset.
		n := fallbackSourceCount
		if len(items) < n {
			n = len(items)
		}
		sources := make([]domain.Source, 0, n)
		for i := 0; i < n; i++ {
			sources = append(sources, domain.SourceFromItem(items[i]))
		}
		return sources, true
	}

	sources := make([]domain.Source, 0, len(cited))
	for i, item := range items {
		if cited[i] {
			sources = append(sources, domain.SourceFromItem(item))
		}
	}
	return sources, false
}
