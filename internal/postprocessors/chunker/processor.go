// Package chunker splits document text into overlapping fixed-size chunks.
package chunker

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Normalize applies the chunking bounds: a non-positive size becomes
// DefaultChunkSize, a negative overlap becomes 0, and an overlap that is not
// smaller than size becomes size/3.
func Normalize(size, overlap int) (int, int) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 3
	}
	return size, overlap
}

// EffectiveOverlap returns the overlap Split actually uses for the given parameters.
// Dropping that many leading characters from every chunk after the first and
// concatenating the rest reproduces the original text.
func EffectiveOverlap(size, overlap int) int {
	_, overlap = Normalize(size, overlap)
	return overlap
}

// Split cuts text into windows of at most size characters, consecutive windows
// sharing overlap characters. Lengths are counted in runes so no chunk splits a
// UTF-8 sequence. Empty text yields no chunks.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	size, overlap = Normalize(size, overlap)

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		return []string{text}
	}

	chunks := make([]string, 0, (n-overlap)/(size-overlap)+1)
	start := 0
	for {
		end := min(start+size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// Processor turns document text into domain chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.chunkSize, p.overlap = Normalize(p.chunkSize, p.overlap)
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the effective chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the effective overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits text into chunks for the given document. Chunks get fresh IDs,
// zero-based positions and 1-based section labels. Embeddings are left empty.
func (p *Processor) Process(documentID, text string) []domain.Chunk {
	parts := Split(text, p.chunkSize, p.overlap)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, content := range parts {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Position:   i,
			Section:    domain.SectionLabel(i),
			Content:    content,
		}
	}
	return chunks
}
