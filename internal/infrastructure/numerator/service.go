// Package numerator provides the document auto-numbering service.
// This is the infrastructure layer - it implements core/numerator.Generator
// on top of a durable CounterStore.
package numerator

import (
	"context"
	"fmt"
	"time"

	corenumerator "github.com/mohit-ihs-314/invoice-backend/internal/core/numerator"
)

// Service allocates document numbers by advancing the counter for the type
// and formatting it with the wall-clock month/year at allocation time.
//
// Allocation is a separate, already-committed step: a failure in whatever
// the caller does with the number afterwards does not roll the counter back.
type Service struct {
	store corenumerator.CounterStore

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numbering service over the given counter store.
func New(store corenumerator.CounterStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// NewWithClock creates a numbering service with a fixed clock. For tests.
func NewWithClock(store corenumerator.CounterStore, now func() time.Time) *Service {
	return &Service{
		store: store,
		now:   now,
	}
}

// NextNumber implements corenumerator.Generator.
func (s *Service) NextNumber(ctx context.Context, documentType string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	counter, err := s.store.Increment(ctx, documentType)
	if err != nil {
		return "", fmt.Errorf("increment counter for %q: %w", documentType, err)
	}

	period := s.now()
	return corenumerator.Format(documentType, counter, period.Month(), period.Year()), nil
}
