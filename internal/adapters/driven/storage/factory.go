// Package storage selects a corpus store backend from a DSN.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// MemoryDSN selects the in-memory store.
const MemoryDSN = "memory://"

// Open creates the corpus store named by dsn:
//   - empty: SQLite at ~/.onboard-rag/corpus.db
//   - postgres:// or postgresql://: PostgreSQL with pgvector
//   - memory://: in-memory, lost on exit
//   - anything else: SQLite at that path (a "file:" or "sqlite://" prefix is stripped)
func Open(ctx context.Context, dsn string, dims int) (driven.CorpusStore, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := postgres.NewStore(ctx, dsn, dims)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	case dsn == MemoryDSN:
		return memory.NewCorpusStore(dims), nil
	default:
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "file:")
		s, err := sqlite.NewStore(path, dims)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	}
}

// Backend names the store Open would pick for dsn.
func Backend(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case dsn == MemoryDSN:
		return "memory"
	default:
		return "sqlite"
	}
}
