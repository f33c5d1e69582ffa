package postprocessors

import (
	"sort"
	"strings"
	"sync"

	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
// Input is the raw page content.
// Output is the processed chunks ready for embedding/indexing.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.Slice(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	p.mu.Unlock()

	p.mu.RLock()
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.RUnlock()

	// Start with a single chunk containing all content
	chunks := []driven.Chunk{
		{
			Content:     content,
			Position:    0,
			StartOffset: 0,
			EndOffset:   len(content),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates a pipeline with the default processors:
// whitespace normalisation followed by fixed-window chunking.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewChunker(DefaultChunkConfig()))
	return p
}

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// Window is the fixed window size in characters
	Window int

	// Overlap is the character overlap between consecutive windows
	Overlap int
}

// DefaultChunkConfig returns the tuned defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Window:  1000,
		Overlap: 200,
	}
}

// Chunker splits content into fixed-size overlapping windows. Every
// character of the input is covered by at least one chunk; the last
// chunk may be shorter than the window.
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
// Zero or nonsensical values fall back to defaults.
func NewChunker(config ChunkConfig) *Chunker {
	def := DefaultChunkConfig()
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.Overlap < 0 || config.Overlap >= config.Window {
		config.Overlap = def.Overlap
		if config.Overlap >= config.Window {
			config.Overlap = config.Window / 5
		}
	}
	return &Chunker{config: config}
}

// Process splits each incoming chunk into windows.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0

	for _, chunk := range chunks {
		result = append(result, c.split(chunk.Content, chunk.StartOffset, &position)...)
	}

	return result
}

// Split chunks a single text. Convenience for callers outside the
// pipeline (tests, ad-hoc tools).
func (c *Chunker) Split(content string) []driven.Chunk {
	position := 0
	return c.split(content, 0, &position)
}

// split emits windows [start, start+W); when a window reaches the end
// of the content it is the last one, otherwise start advances by W-O.
func (c *Chunker) split(content string, baseOffset int, position *int) []driven.Chunk {
	var chunks []driven.Chunk
	w, o := c.config.Window, c.config.Overlap

	start := 0
	for {
		end := start + w
		if end > len(content) {
			end = len(content)
		}

		chunks = append(chunks, driven.Chunk{
			Content:     content[start:end],
			Position:    *position,
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})
		*position++

		if end >= len(content) {
			break
		}
		start += w - o
	}

	return chunks
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - the chunker anchors the pipeline.
func (c *Chunker) Order() int {
	return 0
}

// WhitespaceNormalizer normalizes whitespace in page content. It runs
// before the chunker so chunk offsets refer to the normalised text.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes whitespace in chunks.
func (w *WhitespaceNormalizer) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		content := chunk.Content

		// Normalize line endings
		content = strings.ReplaceAll(content, "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")

		// Collapse runs of spaces within lines
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			for strings.Contains(line, "  ") {
				line = strings.ReplaceAll(line, "  ", " ")
			}
			lines[i] = strings.TrimRight(line, " \t")
		}
		content = strings.Join(lines, "\n")

		// Remove excessive blank lines
		for strings.Contains(content, "\n\n\n") {
			content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
		}

		content = strings.TrimSpace(content)

		if len(content) > 0 {
			newChunk := chunk
			newChunk.Content = content
			newChunk.EndOffset = newChunk.StartOffset + len(content)
			result = append(result, newChunk)
		}
	}

	return result
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns -10 - normalisation happens before chunking.
func (w *WhitespaceNormalizer) Order() int {
	return -10
}
