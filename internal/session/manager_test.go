package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"stockwatch/internal/handoff"
	"stockwatch/internal/models"
	"stockwatch/internal/upstream"
	"stockwatch/internal/watchlist"
)

// stubAPI serves an empty watchlist and counts list calls.
type stubAPI struct {
	mu        sync.Mutex
	listCalls int
}

func (s *stubAPI) ListWatch(ctx context.Context, params upstream.ListParams) (*upstream.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return &upstream.ListResult{Total: 0, Items: []models.Record{}}, nil
}

func (s *stubAPI) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *stubAPI) ListCategories(ctx context.Context) ([]models.Category, error) { return nil, nil }
func (s *stubAPI) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return &models.Category{ID: 1, Name: name}, nil
}
func (s *stubAPI) BulkAdd(ctx context.Context, codes []string, categoryID int64, onConflict string) error {
	return nil
}
func (s *stubAPI) BulkSetCategory(ctx context.Context, ids []int64, categoryID int64) error {
	return nil
}
func (s *stubAPI) BulkAddCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	return nil
}
func (s *stubAPI) BulkRemoveCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	return nil
}
func (s *stubAPI) BulkDelete(ctx context.Context, ids []int64) error { return nil }

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.API == nil {
		opts.API = &stubAPI{}
	}
	if opts.Handoff == nil {
		opts.Handoff = handoff.NewMemoryStore()
	}
	m := NewManager(context.Background(), opts)
	t.Cleanup(m.CloseAll)
	return m
}

func TestOpenGetClose(t *testing.T) {
	m := newTestManager(t, Options{})

	s := m.Open(watchlist.Criteria{}, nil)
	if s.ID == "" || s.Controller == nil || s.Dispatcher == nil {
		t.Fatalf("session incomplete: %+v", s)
	}
	if got, ok := m.Get(s.ID); !ok || got != s {
		t.Fatalf("get failed")
	}
	if m.Count() != 1 {
		t.Fatalf("count=%d", m.Count())
	}

	if !m.Close(s.ID) {
		t.Fatalf("close should report the session")
	}
	if _, ok := m.Get(s.ID); ok {
		t.Fatalf("closed session still resolvable")
	}
	if m.Close(s.ID) {
		t.Fatalf("double close should report nothing")
	}
}

func TestSweepClosesOnlyIdleSessions(t *testing.T) {
	m := newTestManager(t, Options{IdleTTL: 50 * time.Millisecond})

	idle := m.Open(watchlist.Criteria{}, nil)
	busy := m.Open(watchlist.Criteria{}, nil)

	time.Sleep(80 * time.Millisecond)
	if _, ok := m.Get(busy.ID); !ok {
		t.Fatalf("busy session vanished early")
	}

	if n := m.Sweep(context.Background()); n != 1 {
		t.Fatalf("swept=%d want=1", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Fatalf("idle session survived the sweep")
	}
	if _, ok := m.Get(busy.ID); !ok {
		t.Fatalf("recently used session must survive")
	}
}

func TestRefreshOverridePerSession(t *testing.T) {
	stub := &stubAPI{}
	m := newTestManager(t, Options{API: stub})

	every := 10 * time.Millisecond
	m.Open(watchlist.Criteria{}, &every)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && stub.listCount() < 2 {
		time.Sleep(2 * time.Millisecond)
	}
	if stub.listCount() < 2 {
		t.Fatalf("override did not start the refresh loop")
	}

	m.CloseAll()
	settled := stub.listCount()
	time.Sleep(40 * time.Millisecond)
	if stub.listCount() > settled+1 {
		t.Fatalf("refresh kept running after close-all")
	}
}
