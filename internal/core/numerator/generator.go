// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import "context"

// Generator allocates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// NextNumber allocates the next document number for the given type.
	// Pattern: PREFIX-MQ<MM><YY><NNNN> (e.g., INV-MQ09260001).
	//
	// The returned number is unique for the type and never reused, even if
	// downstream persistence fails: the counter is not rolled back, a later
	// retry consumes a fresh number and leaves a gap rather than a collision.
	NextNumber(ctx context.Context, documentType string) (string, error)
}

// CounterStore is the durable per-document-type counter.
type CounterStore interface {
	// Increment atomically advances the counter for documentType by one and
	// returns the post-increment value. Concurrent calls for the same type
	// serialize against each other; different types do not block each other.
	Increment(ctx context.Context, documentType string) (int64, error)
}
