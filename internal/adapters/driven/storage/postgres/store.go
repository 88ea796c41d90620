// Package postgres provides a PostgreSQL implementation of driven.CorpusStore.
//
// Vectors live in a pgvector column sized to the corpus dimension. Writers take
// a transaction-scoped advisory lock keyed by tenant, so ingestion into one
// tenant is serialized across every process sharing the database.
package postgres

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CorpusStore = (*Store)(nil)

// PostgreSQL error codes.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeInvalidText         = "22P02"
)

// migrationLockID serializes schema migrations between processes.
var migrationLockID = LockID("onboard-rag", "migrations")

// Store is the Postgres-backed corpus store.
type Store struct {
	pool *pgxpool.Pool
	dims int
}

// NewStore connects to dsn, applies migrations and pins the corpus dimension.
func NewStore(ctx context.Context, dsn string, dims int) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &domain.IOError{Op: "connecting to postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.IOError{Op: "pinging postgres", Err: err}
	}

	s := &Store{pool: pool, dims: dims}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Dimensions returns the corpus vector dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// LockID derives a stable advisory lock key from its parts.
func LockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)

	var id int64
	for i := range 8 {
		id = (id << 8) | int64(sum[i])
	}
	return id
}

// transact runs fn in a transaction, rolling back if fn fails.
func (s *Store) transact(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ioError("beginning transaction", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return ioError("committing transaction", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	return s.transact(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return ioError("acquiring migration lock", err)
		}

		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`); err != nil {
			return ioError("creating schema_migrations table", err)
		}

		var currentVersion int
		if err := tx.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
			return ioError("getting current version", err)
		}

		entries, err := fs.ReadDir(fsys, ".")
		if err != nil {
			return fmt.Errorf("reading migrations directory: %w", err)
		}
		var upFiles []string
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".up.sql") {
				upFiles = append(upFiles, entry.Name())
			}
		}
		sort.Strings(upFiles)

		for _, name := range upFiles {
			var version int
			if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
				continue
			}
			if version <= currentVersion {
				continue
			}

			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("reading migration %s: %w", name, err)
			}
			sql := strings.ReplaceAll(string(content), "{{dimensions}}", strconv.Itoa(s.dims))
			if _, err := tx.Exec(ctx, sql); err != nil {
				return fmt.Errorf("executing migration %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
				return fmt.Errorf("recording migration %s: %w", name, err)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO corpus_meta (key, value) VALUES ('dimensions', $1)
			ON CONFLICT (key) DO NOTHING
		`, strconv.Itoa(s.dims)); err != nil {
			return ioError("recording corpus dimensions", err)
		}

		var stored string
		if err := tx.QueryRow(ctx, "SELECT value FROM corpus_meta WHERE key = 'dimensions'").Scan(&stored); err != nil {
			return ioError("reading corpus dimensions", err)
		}
		if stored != strconv.Itoa(s.dims) {
			return fmt.Errorf("corpus uses %s-dimensional vectors, configured %d: %w",
				stored, s.dims, domain.ErrDimensionMismatch)
		}
		return nil
	})
}

// ==================== Tenants ====================

// CreateTenant stores a new tenant.
func (s *Store) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES ($1, $2, $3)
	`, tenant.ID, tenant.Name, tenant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return domain.NewValidationError("id", "tenant "+tenant.ID+" already exists")
		}
		return ioError("creating tenant", err)
	}
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *Store) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, name, created_at FROM tenants WHERE id = $1
	`, id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if err != nil {
		return nil, ioError("getting tenant", notFound(err, "tenant", id))
	}
	return &tenant, nil
}

// ListTenants returns all tenants in creation order.
func (s *Store) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, name, created_at FROM tenants ORDER BY seq`)
	if err != nil {
		return nil, ioError("listing tenants", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt); err != nil {
			return nil, ioError("scanning tenant", err)
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("listing tenants", err)
	}
	return tenants, nil
}

// RenameTenant changes a tenant's display name.
func (s *Store) RenameTenant(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tenants SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return ioError("renaming tenant", notFound(err, "tenant", id))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	return nil
}

// ==================== Corpus ====================

// Write runs fn in one transaction. The first document appended for a tenant
// takes that tenant's advisory lock until commit or rollback.
func (s *Store) Write(ctx context.Context, fn func(driven.CorpusWriter) error) error {
	return s.transact(ctx, func(tx pgx.Tx) error {
		return fn(&writer{tx: tx, dims: s.dims, locked: make(map[string]bool)})
	})
}

// writer implements driven.CorpusWriter over a pgx transaction.
type writer struct {
	tx     pgx.Tx
	dims   int
	locked map[string]bool
}

var _ driven.CorpusWriter = (*writer)(nil)

func (w *writer) AppendDocument(ctx context.Context, doc *domain.Document) error {
	if !w.locked[doc.TenantID] {
		if _, err := w.tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LockID("tenant", doc.TenantID)); err != nil {
			return ioError("acquiring tenant lock", err)
		}
		w.locked[doc.TenantID] = true
	}

	var exists bool
	if err := w.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, doc.TenantID).Scan(&exists); err != nil {
		return ioError("checking tenant", notFound(err, "tenant", doc.TenantID))
	}
	if !exists {
		return &domain.NotFoundError{Kind: "tenant", ID: doc.TenantID}
	}

	_, err := w.tx.Exec(ctx, `
		INSERT INTO documents (id, tenant_id, title, category, version, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.TenantID, doc.Title, doc.Category, doc.Version, string(doc.Status), doc.CreatedAt)
	if err != nil {
		return ioError("saving document", notFound(err, "tenant", doc.TenantID))
	}
	return nil
}

func (w *writer) AppendChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := domain.ValidateChunks(chunks, w.dims); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(`
			INSERT INTO chunks (id, document_id, position, section, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, chunk.ID, documentID, chunk.Position, chunk.Section, chunk.Content, pgvector.NewVector(chunk.Embedding))
	}

	results := w.tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return ioError("saving chunk", notFound(err, "document", documentID))
		}
	}
	if err := results.Close(); err != nil {
		return ioError("saving chunks", err)
	}
	return nil
}

// QueryChunksForTenant loads the tenant's chunks, documents in insertion order
// and chunks by position.
func (s *Store) QueryChunksForTenant(ctx context.Context, tenantID string) ([]domain.ChunkRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id::text, c.document_id::text, c.content, c.section, d.title, d.version, c.embedding::text
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.tenant_id = $1
		ORDER BY d.seq, c.position
	`, tenantID)
	if err != nil {
		return nil, ioError("loading chunks", err)
	}
	defer rows.Close()

	records := []domain.ChunkRecord{}
	for rows.Next() {
		var (
			rec domain.ChunkRecord
			raw string
			vec pgvector.Vector
		)
		if err := rows.Scan(&rec.ChunkID, &rec.DocumentID, &rec.Content, &rec.Section,
			&rec.DocumentTitle, &rec.DocumentVersion, &raw); err != nil {
			return nil, ioError("scanning chunk", err)
		}
		if err := vec.Scan(raw); err != nil {
			return nil, ioError("decoding vector", err)
		}
		rec.Embedding = vec.Slice()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("loading chunks", err)
	}
	return records, nil
}

const documentColumns = `
	d.id::text, d.tenant_id::text, d.title, d.category, d.version, d.status, d.created_at,
	(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, ioError("getting document", notFound(err, "document", id))
	}
	return doc, nil
}

// ListDocuments returns a tenant's documents in insertion order.
func (s *Store) ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents d WHERE d.tenant_id = $1 ORDER BY d.seq`, tenantID)
	if err != nil {
		return nil, ioError("listing documents", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, ioError("scanning document", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("listing documents", err)
	}
	return docs, nil
}

// DeleteDocument removes a document; its chunks go with it.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return ioError("deleting document", notFound(err, "document", id))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		doc    domain.Document
		status string
		count  int64
	)
	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Title, &doc.Category, &doc.Version,
		&status, &doc.CreatedAt, &count)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	doc.ChunkCount = int(count)
	return &doc, nil
}

// ==================== Helper Functions ====================

// ioError wraps a driver failure, leaving domain errors untouched.
func ioError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	return &domain.IOError{Op: op, Err: err}
}

// notFound maps missing rows, dangling references and malformed UUIDs to a NotFoundError.
func notFound(err error, kind, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == codeForeignKeyViolation || pgErr.Code == codeInvalidText) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
