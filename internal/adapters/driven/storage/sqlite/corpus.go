package sqlite

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Write runs fn inside one SQL transaction while holding the writer lock.
// The transaction is rolled back if fn fails.
func (s *Store) Write(ctx context.Context, fn func(driven.CorpusWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ioError("beginning transaction", err)
	}

	if err := fn(&writer{tx: tx, dims: s.dims}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return ioError("committing transaction", err)
	}
	return nil
}

// writer implements driven.CorpusWriter over an open transaction.
type writer struct {
	tx   *sql.Tx
	dims int
}

var _ driven.CorpusWriter = (*writer)(nil)

// AppendDocument inserts a document row for an existing tenant.
func (w *writer) AppendDocument(ctx context.Context, doc *domain.Document) error {
	var one int
	err := w.tx.QueryRowContext(ctx, `SELECT 1 FROM tenants WHERE id = ?`, doc.TenantID).Scan(&one)
	if err != nil {
		return ioError("checking tenant", errNoRows(err, "tenant", doc.TenantID))
	}

	_, err = w.tx.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, title, category, version, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.TenantID, doc.Title, doc.Category, doc.Version, string(doc.Status), formatTime(doc.CreatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Kind: "tenant", ID: doc.TenantID}
		}
		return ioError("saving document", err)
	}
	return nil
}

// AppendChunks inserts chunks for a document in slice order.
func (w *writer) AppendChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := domain.ValidateChunks(chunks, w.dims); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := w.tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, section, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ioError("preparing statement", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, chunk.ID, documentID, chunk.Position, chunk.Section,
			chunk.Content, float32SliceToBytes(chunk.Embedding))
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.NotFoundError{Kind: "document", ID: documentID}
			}
			return ioError("saving chunk", err)
		}
	}
	return nil
}

// QueryChunksForTenant loads every chunk of the tenant's documents,
// documents in insertion order and chunks by position.
func (s *Store) QueryChunksForTenant(ctx context.Context, tenantID string) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.content, c.section, d.title, d.version, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.tenant_id = ?
		ORDER BY d.rowid, c.position
	`, tenantID)
	if err != nil {
		return nil, ioError("loading chunks", err)
	}
	defer rows.Close()

	records := []domain.ChunkRecord{}
	for rows.Next() {
		var (
			rec  domain.ChunkRecord
			blob []byte
		)
		if err := rows.Scan(&rec.ChunkID, &rec.DocumentID, &rec.Content, &rec.Section,
			&rec.DocumentTitle, &rec.DocumentVersion, &blob); err != nil {
			return nil, ioError("scanning chunk", err)
		}
		rec.Embedding = bytesToFloat32Slice(blob)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("loading chunks", err)
	}
	return records, nil
}

const documentColumns = `
	d.id, d.tenant_id, d.title, d.category, d.version, d.status, d.created_at,
	(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, ioError("getting document", errNoRows(err, "document", id))
	}
	return doc, nil
}

// ListDocuments returns a tenant's documents in insertion order.
func (s *Store) ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents d WHERE d.tenant_id = ? ORDER BY d.rowid`, tenantID)
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
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return ioError("deleting document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioError("deleting document", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		status    string
		createdAt string
	)
	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Title, &doc.Category, &doc.Version,
		&status, &createdAt, &doc.ChunkCount)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	doc.CreatedAt = parseTime(createdAt)
	return &doc, nil
}
