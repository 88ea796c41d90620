package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/sqlite"
)

func TestBackend(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"", "sqlite"},
		{"corpus.db", "sqlite"},
		{"file:/tmp/corpus.db", "sqlite"},
		{"memory://", "memory"},
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://u:p@localhost/db", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, Backend(tt.dsn))
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), MemoryDSN, 8)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &memory.CorpusStore{}, s)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")

	s, err := Open(context.Background(), "file:"+path, 8)
	require.NoError(t, err)
	defer s.Close()

	store, ok := s.(*sqlite.Store)
	require.True(t, ok)
	assert.Equal(t, path, store.Path())
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", 8)
	assert.Error(t, err)
}
