package sqlite

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CorpusStore = (*Store)(nil)

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

// Store is the SQLite-backed corpus store.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	dims int
}

// NewStore opens (creating if needed) the corpus database at dbPath.
// If dbPath is empty, defaults to ~/.onboard-rag/corpus.db.
// dims is the vector dimension of the corpus; opening an existing corpus with
// a different dimension fails.
func NewStore(dbPath string, dims int) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".onboard-rag", domain.DefaultStorageDSN)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, &domain.IOError{Op: "creating data directory", Err: err}
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &domain.IOError{Op: "opening database", Err: err}
	}

	s := &Store{
		db:   db,
		path: dbPath,
		dims: dims,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimensions returns the corpus vector dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return &domain.IOError{Op: "creating schema_migrations table", Err: err}
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return &domain.IOError{Op: "getting current version", Err: err}
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
		// "001_initial.up.sql" -> 1
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

		tx, err := s.db.Begin()
		if err != nil {
			return &domain.IOError{Op: "begin migration", Err: err}
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return &domain.IOError{Op: "commit migration " + name, Err: err}
		}
	}

	return nil
}

// checkDimensions pins the corpus dimension on first open and verifies it afterwards.
func (s *Store) checkDimensions() error {
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO corpus_meta (key, value) VALUES ('dimensions', ?)",
		strconv.Itoa(s.dims),
	); err != nil {
		return &domain.IOError{Op: "recording corpus dimensions", Err: err}
	}

	var stored string
	if err := s.db.QueryRow("SELECT value FROM corpus_meta WHERE key = 'dimensions'").Scan(&stored); err != nil {
		return &domain.IOError{Op: "reading corpus dimensions", Err: err}
	}
	if stored != strconv.Itoa(s.dims) {
		return fmt.Errorf("corpus at %s uses %s-dimensional vectors, configured %d: %w",
			s.path, stored, s.dims, domain.ErrDimensionMismatch)
	}
	return nil
}

// ==================== Helper Functions ====================

// ioError wraps a driver failure, leaving domain errors untouched.
func ioError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	return &domain.IOError{Op: op, Err: err}
}

// isForeignKeyViolation reports whether err is SQLite's FOREIGN KEY constraint failure.
func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// isPrimaryKeyViolation reports whether err is SQLite's PRIMARY KEY constraint failure.
func isPrimaryKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// float32SliceToBytes encodes a vector as little-endian float32 values.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a vector written by float32SliceToBytes.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// errNoRows adapts sql.ErrNoRows to a NotFoundError.
func errNoRows(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
