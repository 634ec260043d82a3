// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextNumberFunc func(ctx context.Context, documentType string) (string, error)
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, documentType string) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, documentType)
	}
	// Default: return predictable mock number
	return "INV-MQ01260001", nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)

// MemoryCounterStore is an in-memory CounterStore for tests.
// Increments are serialized by a mutex, mirroring the row-level
// atomicity of the database implementation.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64

	// IncrementErr, when set, is returned by every Increment call.
	IncrementErr error
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

// Increment implements CounterStore.
func (s *MemoryCounterStore) Increment(_ context.Context, documentType string) (int64, error) {
	if s.IncrementErr != nil {
		return 0, s.IncrementErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[documentType]++
	return s.counters[documentType], nil
}

// Current returns the last allocated value for a type.
func (s *MemoryCounterStore) Current(documentType string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[documentType]
}

// Ensure compile-time interface compliance.
var _ CounterStore = (*MemoryCounterStore)(nil)
