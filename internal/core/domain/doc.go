// Package domain defines the core business entities for the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Tenant: The isolation boundary for a customer's corpus
//   - Document: An uploaded unit of content owned by one tenant
//   - Chunk: An overlapping slice of a document plus its embedding
//   - RankedChunk: A chunk scored against a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
