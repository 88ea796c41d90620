package domain

// Query bounds applied by the retrieval service.
const (
	// DefaultTopK is used when a query does not ask for a result count.
	DefaultTopK = 5

	// MaxTopK caps the number of results a single query may return.
	MaxTopK = 10
)

// IngestRequest describes an upload handed to the retrieval engine.
type IngestRequest struct {
	// TenantID is the owning tenant; must be a well-formed UUID.
	TenantID string

	// Title is required.
	Title string

	// Category is optional.
	Category string

	// Version defaults to DefaultDocumentVersion.
	Version string

	// Content is the uploaded payload. It is decoded to UTF-8 text before chunking.
	Content []byte

	// ContentType is the optional MIME type of Content.
	ContentType string
}

// IngestResult is returned after a successful ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// QueryRequest asks for the chunks of a tenant's corpus closest to a text.
type QueryRequest struct {
	TenantID string
	Query    string

	// TopK is the number of results wanted. Zero means DefaultTopK;
	// other values are clamped to [1, MaxTopK].
	TopK int
}

// RankedChunk is a single query hit.
type RankedChunk struct {
	ChunkID         string  `json:"chunk_id"`
	DocumentID      string  `json:"document_id"`
	Content         string  `json:"content"`
	Section         string  `json:"section"`
	DocumentTitle   string  `json:"document_title"`
	DocumentVersion string  `json:"document_version"`
	Score           float64 `json:"score"`
}

// QueryResult holds the ranked hits for a query, best first.
type QueryResult struct {
	Query   string        `json:"query"`
	Results []RankedChunk `json:"results"`
}

// ClampTopK applies the default and the [1, MaxTopK] bounds to a requested result count.
func ClampTopK(k int) int {
	switch {
	case k == 0:
		return DefaultTopK
	case k < 1:
		return 1
	case k > MaxTopK:
		return MaxTopK
	default:
		return k
	}
}
