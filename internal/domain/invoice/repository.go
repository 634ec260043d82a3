package invoice

import (
	"context"
	"encoding/json"
)

// Repository defines the interface for invoice persistence.
// The implementation lives in infrastructure/storage/postgres.
type Repository interface {
	// Insert stores a record and returns its surrogate id.
	// created_at is assigned by the store at write time.
	Insert(ctx context.Context, rec *Record) (int64, error)

	// Get returns the full payload as originally submitted
	// (with invoiceNumber injected), or NOT_FOUND.
	Get(ctx context.Context, id int64) (json.RawMessage, error)

	// List returns summary views, newest first (descending by id).
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a record by id. Deleting a non-existent id
	// is not an error.
	Delete(ctx context.Context, id int64) error
}
