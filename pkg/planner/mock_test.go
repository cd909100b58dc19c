package planner

import (
	"context"
	"fmt"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

// mockStore is a mock implementation of store.Store for testing
type mockStore struct {
	root       string
	listFunc   func(ctx context.Context) ([]string, error)
	putFunc    func(ctx context.Context, req *store.PutRequest) error
	deleteFunc func(ctx context.Context, path string) error
}

func (m *mockStore) Root() string { return m.root }

func (m *mockStore) Prepare(ctx context.Context) error { return nil }

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, fmt.Errorf("List not implemented")
}

func (m *mockStore) Put(ctx context.Context, req *store.PutRequest) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, req)
	}
	return fmt.Errorf("Put not implemented")
}

func (m *mockStore) Delete(ctx context.Context, path string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, path)
	}
	return fmt.Errorf("Delete not implemented")
}

// mockLogger is a mock implementation of logger.Logger for testing
type mockLogger struct {
	resizeCalls []resizeCall
	deleteCalls []string
	errorCalls  []errorCall
	debugCalls  []string
}

type resizeCall struct {
	source      string
	destination string
}

type errorCall struct {
	operation string
	path      string
	err       error
}

func (m *mockLogger) Resize(source, destination string) {
	m.resizeCalls = append(m.resizeCalls, resizeCall{source, destination})
}

func (m *mockLogger) Delete(path string) {
	m.deleteCalls = append(m.deleteCalls, path)
}

func (m *mockLogger) Error(operation, path string, err error) {
	m.errorCalls = append(m.errorCalls, errorCall{operation, path, err})
}

func (m *mockLogger) Debug(message string) {
	m.debugCalls = append(m.debugCalls, message)
}
