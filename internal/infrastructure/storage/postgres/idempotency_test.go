package postgres

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
)

// funcRow adapts a scan closure to pgx.Row.
type funcRow struct {
	scan func(dest ...any) error
}

func (r funcRow) Scan(dest ...any) error { return r.scan(dest...) }

// idemQuerier simulates the sys_idempotency table, including the
// inserted-vs-conflict flag the real upsert derives from xmax.
type idemQuerier struct {
	mu      sync.Mutex
	records map[string]*IdempotencyRecord
}

func newIdemQuerier() *idemQuerier {
	return &idemQuerier{records: make(map[string]*IdempotencyRecord)}
}

// GetQuerier lets the fake stand in for the transaction manager.
func (q *idemQuerier) GetQuerier(_ context.Context) Querier { return q }

func (q *idemQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !strings.Contains(sql, "INSERT INTO sys_idempotency") {
		return funcRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}

	key := args[0].(string)
	now := args[4].(time.Time)
	expiresAt := args[5].(time.Time)

	rec, ok := q.records[key]
	inserted := !ok
	if inserted {
		rec = &IdempotencyRecord{
			Key:         key,
			Operation:   args[1].(string),
			Status:      args[2].(IdempotencyStatus),
			RequestHash: args[3].(string),
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   expiresAt,
		}
		q.records[key] = rec
	} else if expiresAt.After(rec.ExpiresAt) {
		rec.ExpiresAt = expiresAt
	}

	snapshot := *rec
	return funcRow{scan: func(dest ...any) error {
		*dest[0].(*bool) = inserted
		*dest[1].(*string) = snapshot.Key
		*dest[2].(*string) = snapshot.Operation
		*dest[3].(*IdempotencyStatus) = snapshot.Status
		*dest[4].(*string) = snapshot.RequestHash
		*dest[5].(*[]byte) = snapshot.Response
		*dest[6].(*int) = snapshot.StatusCode
		*dest[7].(*string) = snapshot.ContentType
		*dest[8].(*time.Time) = snapshot.CreatedAt
		*dest[9].(*time.Time) = snapshot.UpdatedAt
		*dest[10].(*time.Time) = snapshot.ExpiresAt
		return nil
	}}
}

func (q *idemQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case strings.Contains(sql, "DELETE FROM sys_idempotency"):
		cutoff := args[0].(time.Time)
		var n int64
		for key, rec := range q.records {
			if rec.ExpiresAt.Before(cutoff) {
				delete(q.records, key)
				n++
			}
		}
		return pgconn.NewCommandTag("DELETE " + strconv.FormatInt(n, 10)), nil

	case strings.Contains(sql, "response ="):
		// finishKey: status, response, response_status, content type, updated_at, key
		rec, ok := q.records[args[5].(string)]
		if !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		rec.Status = args[0].(IdempotencyStatus)
		rec.Response = args[1].([]byte)
		rec.StatusCode = args[2].(int)
		rec.ContentType = args[3].(string)
		rec.UpdatedAt = args[4].(time.Time)
		return pgconn.NewCommandTag("UPDATE 1"), nil

	default:
		// stale-pending reclaim: status, updated_at, key, expected status
		rec, ok := q.records[args[2].(string)]
		if !ok || rec.Status != args[3].(IdempotencyStatus) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		rec.Status = args[0].(IdempotencyStatus)
		rec.UpdatedAt = args[1].(time.Time)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
}

func (q *idemQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func newTestIdempotencyStore(q *idemQuerier) *IdempotencyStore {
	return &IdempotencyStore{db: q, ttl: time.Hour}
}

func TestIdempotencyAcquire_FreshKey(t *testing.T) {
	store := newTestIdempotencyStore(newIdemQuerier())

	replay, err := store.AcquireKey(context.Background(), "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotencyAcquire_ImmediateDuplicateConflicts(t *testing.T) {
	store := newTestIdempotencyStore(newIdemQuerier())
	ctx := context.Background()

	replay, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)
	require.Nil(t, replay)

	// A retry racing in right after the first request must not run the
	// operation a second time, no matter how little time has passed.
	_, err = store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeIdempotency, appErr.Code)
}

func TestIdempotencyAcquire_ReplaysCompletedResponse(t *testing.T) {
	store := newTestIdempotencyStore(newIdemQuerier())
	ctx := context.Background()

	_, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)

	body := map[string]string{"status": "success", "invoiceNumber": "INV-MQ01260001"}
	require.NoError(t, store.CompleteKey(ctx, "key-1", 200, "application/json", body))

	replay, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 200, replay.StatusCode)
	assert.JSONEq(t, `{"status":"success","invoiceNumber":"INV-MQ01260001"}`, string(replay.Body))
}

func TestIdempotencyAcquire_MismatchedRequestRejected(t *testing.T) {
	store := newTestIdempotencyStore(newIdemQuerier())
	ctx := context.Background()

	_, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)

	_, err = store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-DIFFERENT")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeIdempotency, appErr.Code)
	assert.Equal(t, "Idempotency key mismatch", appErr.Message)
}

func TestIdempotencyAcquire_StalePendingReclaimed(t *testing.T) {
	q := newIdemQuerier()
	store := newTestIdempotencyStore(q)
	ctx := context.Background()

	_, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)

	// Simulate a request that crashed mid-flight.
	q.mu.Lock()
	q.records["key-1"].UpdatedAt = time.Now().UTC().Add(-2 * time.Minute)
	q.mu.Unlock()

	replay, err := store.AcquireKey(ctx, "key-1", "POST /save-invoice", "hash-a")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotencyCleanupExpired(t *testing.T) {
	q := newIdemQuerier()
	store := newTestIdempotencyStore(q)
	ctx := context.Background()

	_, err := store.AcquireKey(ctx, "stale", "POST /save-invoice", "hash-a")
	require.NoError(t, err)
	_, err = store.AcquireKey(ctx, "fresh", "POST /save-invoice", "hash-b")
	require.NoError(t, err)

	q.mu.Lock()
	q.records["stale"].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	q.mu.Unlock()

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	q.mu.Lock()
	_, staleGone := q.records["stale"]
	_, freshKept := q.records["fresh"]
	q.mu.Unlock()
	assert.False(t, staleGone)
	assert.True(t, freshKept)
}
