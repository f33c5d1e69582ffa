package driven

// Chunk represents a piece of page content for processing.
type Chunk struct {
	// Content is the text content of the chunk
	Content string

	// Position is the chunk index within the page (0-based)
	Position int

	// StartOffset is the character offset from page start
	StartOffset int

	// EndOffset is the character offset for chunk end
	EndOffset int
}

// PostProcessor applies one stage of the ingestion text pipeline.
// Processors form a pipeline: WhitespaceNormalizer -> Chunker -> etc.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// Early processors receive a single chunk with the full content;
	// later ones receive the chunks from the previous stage.
	Process(chunks []Chunk) []Chunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order. Input is raw page
	// content; output is chunks ready for embedding/indexing.
	Process(content string) []Chunk

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
