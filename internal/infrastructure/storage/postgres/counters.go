package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	corenumerator "github.com/mohit-ihs-314/invoice-backend/internal/core/numerator"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

// SeedPolicy controls what Increment does for a document type
// that has no counter row yet.
type SeedPolicy int

const (
	// SeedAuto creates a missing row at zero on first use.
	// Unknown document types are tolerated and start their own lineage.
	SeedAuto SeedPolicy = iota

	// SeedStrict refuses to allocate for unseeded types.
	// Increment returns COUNTER_NOT_FOUND instead of creating a row.
	SeedStrict
)

// CounterStore is the durable per-document-type counter over the
// invoice_counters table. Implements corenumerator.CounterStore.
//
// Counter rows are pre-seeded at startup and never deleted; the only
// mutation is the atomic increment performed here.
type CounterStore struct {
	querier Querier
	policy  SeedPolicy
}

// Ensure compile-time interface compliance.
var _ corenumerator.CounterStore = (*CounterStore)(nil)

// NewCounterStore creates a counter store over the given querier.
// Counter updates run as single statements, intentionally outside any
// business transaction: once committed the value is never rolled back.
func NewCounterStore(querier Querier, policy SeedPolicy) *CounterStore {
	return &CounterStore{querier: querier, policy: policy}
}

// Increment atomically advances the counter for documentType and returns
// the post-increment value. The upsert (or conditional update in strict
// mode) serializes concurrent calls for the same type at row level, so
// correctness holds across multiple server instances. Different types
// touch different rows and do not block each other.
func (s *CounterStore) Increment(ctx context.Context, documentType string) (int64, error) {
	var counter int64

	if s.policy == SeedStrict {
		err := s.querier.QueryRow(ctx, `
			UPDATE invoice_counters
			SET counter = counter + 1
			WHERE document_type = $1
			RETURNING counter
		`, documentType).Scan(&counter)

		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewCounterNotFound(documentType)
		}
		if err != nil {
			return 0, StoreError("increment counter", err)
		}
		return counter, nil
	}

	err := s.querier.QueryRow(ctx, `
		INSERT INTO invoice_counters (document_type, counter)
		VALUES ($1, 1)
		ON CONFLICT (document_type) DO UPDATE SET counter = invoice_counters.counter + 1
		RETURNING counter
	`, documentType).Scan(&counter)

	if err != nil {
		return 0, StoreError("increment counter", err)
	}
	return counter, nil
}

// Current returns the last allocated value for a type without advancing it.
func (s *CounterStore) Current(ctx context.Context, documentType string) (int64, error) {
	var counter int64
	err := s.querier.QueryRow(ctx, `
		SELECT counter FROM invoice_counters WHERE document_type = $1
	`, documentType).Scan(&counter)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewCounterNotFound(documentType)
	}
	if err != nil {
		return 0, StoreError("read counter", err)
	}
	return counter, nil
}

// Seed creates zero-valued counter rows for the given types if missing.
// Existing counters are left untouched. Called at store setup so every
// known document type has a row before first allocation.
func (s *CounterStore) Seed(ctx context.Context, documentTypes []string) error {
	for _, documentType := range documentTypes {
		_, err := s.querier.Exec(ctx, `
			INSERT INTO invoice_counters (document_type, counter)
			VALUES ($1, 0)
			ON CONFLICT (document_type) DO NOTHING
		`, documentType)
		if err != nil {
			return StoreError(fmt.Sprintf("seed counter %q", documentType), err)
		}
		logger.Debug(ctx, "counter seeded", "document_type", documentType)
	}
	return nil
}

// StoreError classifies low-level pgx failures into the API error taxonomy.
// Timeouts and retry-safe connectivity failures surface as transient so the
// caller knows the whole request can be retried.
func StoreError(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err):
		return apperror.NewTimeout(wrapped)
	case pgconn.SafeToRetry(err):
		return apperror.NewTransientStore(wrapped)
	default:
		return wrapped
	}
}
