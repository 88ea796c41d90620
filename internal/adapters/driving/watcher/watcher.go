// Package watcher ingests text files dropped into an inbox directory.
// It is a driving adapter: filesystem events drive RetrievalService.Ingest.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
	"github.com/custodia-labs/onboard-rag/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// MaxFileSize caps the size of a file the watcher will read.
const MaxFileSize = 10 << 20

var contentTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// ErrNotDirectory is returned when the inbox path is not a directory.
var ErrNotDirectory = errors.New("watcher: inbox is not a directory")

// Result reports the outcome of ingesting one file.
type Result struct {
	Path       string
	DocumentID string
	ChunkCount int
	Err        error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultHandler registers fn to be called after every ingestion attempt.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// pendingFile is a file waiting out its debounce period.
type pendingFile struct {
	timer *time.Timer
}

// Watcher ingests .txt and .md files created or written in a directory into one tenant.
type Watcher struct {
	dir       string
	tenantID  string
	retrieval driving.RetrievalService
	debounce  time.Duration
	onResult  func(Result)

	mu      sync.Mutex
	pending map[string]*pendingFile
	wg      sync.WaitGroup
}

// New creates a watcher for dir. The directory must already exist.
func New(dir, tenantID string, retrieval driving.RetrievalService, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	w := &Watcher{
		dir:       dir,
		tenantID:  tenantID,
		retrieval: retrieval,
		debounce:  DefaultDebounce,
		pending:   make(map[string]*pendingFile),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Eligible reports whether path is a file the watcher ingests, and its content type.
// Hidden files and editor temporaries are skipped.
func Eligible(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return "", false
	}
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(base))]
	return ct, ok
}

// Run watches the directory until ctx is cancelled. Ingestions already
// started are allowed to finish before Run returns; pending ones are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return &domain.IOError{Op: "starting watcher", Err: err}
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return &domain.IOError{Op: "watching " + w.dir, Err: err}
	}
	logger.Info("watching inbox", "dir", w.dir, "tenant_id", w.tenantID)

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent schedules an ingestion for create/write events on eligible files.
// Repeated events for the same file restart its debounce timer.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if _, ok := Eligible(event.Name); !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := event.Name
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.debounce)
		return true
	}

	p := &pendingFile{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == p {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		res := w.IngestFile(context.WithoutCancel(ctx), path)
		if w.onResult != nil {
			w.onResult(res)
		}
	})
	w.pending[path] = p
	return true
}

// drain cancels timers that have not fired and waits for running ingestions.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// IngestFile reads one file and ingests it with its file name as the title.
func (w *Watcher) IngestFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	contentType, ok := Eligible(path)
	if !ok {
		res.Err = domain.NewValidationError("path", "unsupported file type")
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = &domain.IOError{Op: "stat " + path, Err: err}
		return res
	}
	if info.IsDir() {
		res.Err = domain.NewValidationError("path", "is a directory")
		return res
	}
	if info.Size() > MaxFileSize {
		res.Err = domain.NewValidationError("path", fmt.Sprintf("file exceeds %d bytes", MaxFileSize))
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = &domain.IOError{Op: "read " + path, Err: err}
		return res
	}

	out, err := w.retrieval.Ingest(ctx, domain.IngestRequest{
		TenantID:    w.tenantID,
		Title:       filepath.Base(path),
		Content:     content,
		ContentType: contentType,
	})
	if err != nil {
		res.Err = err
		logger.Warn("ingest failed", "path", path, "error", err)
		return res
	}

	res.DocumentID = out.DocumentID
	res.ChunkCount = out.ChunkCount
	logger.Info("ingested", "path", path, "document_id", out.DocumentID, "chunks", out.ChunkCount)
	return res
}
