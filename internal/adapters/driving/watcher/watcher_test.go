package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

type mockRetrieval struct {
	mu       sync.Mutex
	requests []domain.IngestRequest
	err      error

	// started and release, when set, hold Ingest open until the test lets go.
	started chan struct{}
	release chan struct{}
}

func (m *mockRetrieval) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if m.started != nil {
		close(m.started)
		<-m.release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: "doc-" + req.Title, ChunkCount: 1}, nil
}

func (m *mockRetrieval) Query(_ context.Context, _ domain.QueryRequest) (*domain.QueryResult, error) {
	return nil, nil
}

func (m *mockRetrieval) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return nil, nil
}

func (m *mockRetrieval) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockRetrieval) DeleteDocument(_ context.Context, _ string) error {
	return nil
}

func (m *mockRetrieval) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func TestEligible(t *testing.T) {
	tests := []struct {
		path   string
		wantCT string
		wantOK bool
	}{
		{"/inbox/notes.md", "text/markdown", true},
		{"/inbox/README.MD", "text/markdown", true},
		{"/inbox/policy.txt", "text/plain", true},
		{"/inbox/report.pdf", "", false},
		{"/inbox/.hidden.md", "", false},
		{"/inbox/draft.txt~", "", false},
		{"/inbox/noext", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ct, ok := Eligible(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCT, ct)
		})
	}
}

func TestNew_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	_, err := New(file, "tenant-1", &mockRetrieval{})
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = New(filepath.Join(dir, "missing"), "tenant-1", &mockRetrieval{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onboarding.md")
	require.NoError(t, os.WriteFile(path, []byte("# Welcome\nRead the handbook."), 0600))

	svc := &mockRetrieval{}
	w, err := New(dir, "tenant-1", svc)
	require.NoError(t, err)

	res := w.IngestFile(context.Background(), path)

	require.NoError(t, res.Err)
	assert.Equal(t, "doc-onboarding.md", res.DocumentID)
	require.Len(t, svc.requests, 1)
	assert.Equal(t, "tenant-1", svc.requests[0].TenantID)
	assert.Equal(t, "onboarding.md", svc.requests[0].Title)
	assert.Equal(t, "text/markdown", svc.requests[0].ContentType)
	assert.Equal(t, "# Welcome\nRead the handbook.", string(svc.requests[0].Content))
}

func TestIngestFile_Errors(t *testing.T) {
	dir := t.TempDir()
	svc := &mockRetrieval{err: errors.New("embedding failed")}
	w, err := New(dir, "tenant-1", svc)
	require.NoError(t, err)

	res := w.IngestFile(context.Background(), filepath.Join(dir, "scan.pdf"))
	assert.ErrorIs(t, res.Err, domain.ErrInvalidInput)

	res = w.IngestFile(context.Background(), filepath.Join(dir, "gone.txt"))
	assert.ErrorIs(t, res.Err, domain.ErrIO)

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))
	res = w.IngestFile(context.Background(), path)
	assert.EqualError(t, res.Err, "embedding failed")
}

func TestHandleEvent_Filters(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, "tenant-1", &mockRetrieval{}, WithDebounce(time.Hour))
	require.NoError(t, err)
	t.Cleanup(w.drain)

	ctx := context.Background()
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create markdown", fsnotify.Event{Name: filepath.Join(dir, "a.md"), Op: fsnotify.Create}, true},
		{"write text", fsnotify.Event{Name: filepath.Join(dir, "b.txt"), Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"remove", fsnotify.Event{Name: filepath.Join(dir, "c.txt"), Op: fsnotify.Remove}, false},
		{"chmod only", fsnotify.Event{Name: filepath.Join(dir, "d.txt"), Op: fsnotify.Chmod}, false},
		{"pdf", fsnotify.Event{Name: filepath.Join(dir, "e.pdf"), Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handleEvent(ctx, tt.event))
		})
	}
}

func TestRun_DebouncesAndIngests(t *testing.T) {
	dir := t.TempDir()
	svc := &mockRetrieval{}
	results := make(chan Result, 10)

	w, err := New(dir, "tenant-1", svc,
		WithDebounce(100*time.Millisecond),
		WithResultHandler(func(r Result) { results <- r }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("first and second"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.pdf"), []byte("%PDF"), 0600))

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Equal(t, path, r.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ingestion")
	}

	// no second ingestion for the burst
	select {
	case r := <-results:
		t.Fatalf("unexpected extra ingestion of %s", r.Path)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, svc.count())
	svc.mu.Lock()
	assert.Equal(t, "first and second", string(svc.requests[0].Content))
	svc.mu.Unlock()
}

func TestRun_CancelDropsPending(t *testing.T) {
	dir := t.TempDir()
	svc := &mockRetrieval{}
	w, err := New(dir, "tenant-1", svc, WithDebounce(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.md"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, svc.count())
}

func TestHandleEvent_InFlightIngestSurvivesCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.md")
	require.NoError(t, os.WriteFile(path, []byte("# Leave policy"), 0600))

	svc := &mockRetrieval{started: make(chan struct{}), release: make(chan struct{})}
	var got Result
	w, err := New(dir, "tenant-1", svc,
		WithDebounce(time.Millisecond),
		WithResultHandler(func(r Result) { got = r }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create}))

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("ingestion did not start")
	}
	cancel()
	close(svc.release)
	w.drain()

	require.NoError(t, got.Err)
	assert.Equal(t, "doc-policy.md", got.DocumentID)
	assert.Equal(t, 1, svc.count())
}
