package domain

import (
	"fmt"
	"time"
)

// DefaultDocumentVersion is the version tag given to documents uploaded without one.
const DefaultDocumentVersion = "v1"

// DocumentStatus is the publication state of a document.
type DocumentStatus string

// StatusPublished is the only status the ingestion path produces.
const StatusPublished DocumentStatus = "published"

// Document represents one uploaded unit of content belonging to exactly one tenant.
// Documents are immutable once created; all of their chunks are written with them.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// TenantID links to the owning Tenant.
	TenantID string `json:"tenant_id"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// Category is an optional free-form grouping (e.g. "hr", "it").
	Category string `json:"category,omitempty"`

	// Version is the version tag, "v1" when not supplied.
	Version string `json:"version"`

	// Status is the publication state.
	Status DocumentStatus `json:"status"`

	// ChunkCount is the number of chunks stored for the document.
	// Populated by stores on read.
	ChunkCount int `json:"chunk_count"`

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a contiguous slice of a document's text plus its vector representation.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// Position is the zero-based ordinal within the document.
	Position int `json:"position"`

	// Section is the ordinal label shown to users, e.g. "section-3".
	Section string `json:"section"`

	// Content is the non-empty text of this chunk.
	Content string `json:"content"`

	// Embedding is the fixed-dimension vector for the content.
	Embedding []float32 `json:"embedding,omitempty"`
}

// SectionLabel returns the label for the chunk at the given zero-based position.
func SectionLabel(position int) string {
	return fmt.Sprintf("section-%d", position+1)
}

// ChunkRecord is a chunk joined with the parent document fields a query needs.
// It is what stores return when loading a tenant's corpus.
type ChunkRecord struct {
	ChunkID         string
	DocumentID      string
	Content         string
	Section         string
	DocumentTitle   string
	DocumentVersion string
	Embedding       []float32
}

// ValidateChunks checks the storage-level shape invariants of a chunk batch:
// non-empty content and embeddings of exactly dims values.
func ValidateChunks(chunks []Chunk, dims int) error {
	for i := range chunks {
		if chunks[i].Content == "" {
			return NewValidationError(fmt.Sprintf("chunks[%d].content", i), "must not be empty")
		}
		if len(chunks[i].Embedding) != dims {
			return NewValidationError(
				fmt.Sprintf("chunks[%d].embedding", i),
				fmt.Sprintf("has %d dimensions, want %d", len(chunks[i].Embedding), dims),
			)
		}
	}
	return nil
}
