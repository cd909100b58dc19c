package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

type mockProcessor struct {
	processFunc func(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error)
}

func (m *mockProcessor) Process(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
	if m.processFunc != nil {
		return m.processFunc(ctx, job, st)
	}
	return 0, fmt.Errorf("Process not implemented")
}

type mockStore struct {
	deleteFunc func(ctx context.Context, path string) error
}

func (m *mockStore) Root() string { return "/resized" }

func (m *mockStore) Prepare(ctx context.Context) error { return nil }

func (m *mockStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func (m *mockStore) Put(ctx context.Context, req *store.PutRequest) error { return nil }

func (m *mockStore) Delete(ctx context.Context, path string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, path)
	}
	return fmt.Errorf("Delete not implemented")
}

// mockLogger is safe for concurrent use, the executor logs from workers.
type mockLogger struct {
	mu      sync.Mutex
	resizes []string
	deletes []string
	errors  []string
}

func (m *mockLogger) Resize(source, destination string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resizes = append(m.resizes, destination)
}

func (m *mockLogger) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, path)
}

func (m *mockLogger) Error(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, operation+" "+path)
}

func (m *mockLogger) Debug(message string) {}
