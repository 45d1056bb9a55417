// Package testutil holds shared test doubles: a mock store for fault
// injection, an in-memory store with real contract semantics, and a
// scriptable ethics gate.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

// MockStore is a testify mock over store.Store for tests that script
// per-call outcomes, such as persistence faults on specific saves.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, rec *store.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) Load(ctx context.Context, id string) (*store.Record, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*store.Record)
	return rec, args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
