package numerator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "github.com/mohit-ihs-314/invoice-backend/internal/core/numerator"
)

func fixedClock(month time.Month, year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestNextNumber_Sequential(t *testing.T) {
	store := corenumerator.NewMemoryCounterStore()
	svc := NewWithClock(store, fixedClock(time.March, 2026))
	ctx := context.Background()

	first, err := svc.NextNumber(ctx, corenumerator.TypeQuotation)
	require.NoError(t, err)
	assert.Equal(t, "QI-MQ03260001", first)

	second, err := svc.NextNumber(ctx, corenumerator.TypeQuotation)
	require.NoError(t, err)
	assert.Equal(t, "QI-MQ03260002", second)

	// A different type has its own lineage and prefix.
	other, err := svc.NextNumber(ctx, corenumerator.TypeProformaInvoice)
	require.NoError(t, err)
	assert.Equal(t, "PINV-MQ03260001", other)
}

func TestNextNumber_ConcurrentAllocationsAreDistinctAndContiguous(t *testing.T) {
	const n = 100

	store := corenumerator.NewMemoryCounterStore()
	svc := NewWithClock(store, fixedClock(time.March, 2026))
	ctx := context.Background()

	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := svc.NextNumber(ctx, corenumerator.TypeQuotation)
			assert.NoError(t, err)
			numbers[i] = num
		}(i)
	}
	wg.Wait()

	// Pairwise distinct, and the embedded counters form a contiguous run 1..n.
	seen := make(map[int]bool, n)
	for _, num := range numbers {
		require.True(t, len(num) > len("QI-MQ0326"), "unexpected number %q", num)
		counter, err := strconv.Atoi(num[len("QI-MQ0326"):])
		require.NoError(t, err, "number %q", num)
		assert.False(t, seen[counter], "counter %d allocated twice", counter)
		seen[counter] = true
	}
	for c := 1; c <= n; c++ {
		assert.True(t, seen[c], "missing counter %d", c)
	}
}

func TestNextNumber_StoreErrorConsumesNothing(t *testing.T) {
	store := corenumerator.NewMemoryCounterStore()
	store.IncrementErr = errors.New("connection refused")
	svc := NewWithClock(store, fixedClock(time.January, 2025))

	_, err := svc.NextNumber(context.Background(), corenumerator.TypeInvoice)
	require.Error(t, err)

	// A later successful allocation gets the number that would have been
	// next, not one skipped.
	store.IncrementErr = nil
	num, err := svc.NextNumber(context.Background(), corenumerator.TypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-MQ01250001", num)
}

func TestNextNumber_NilService(t *testing.T) {
	var svc *Service
	_, err := svc.NextNumber(context.Background(), corenumerator.TypeInvoice)
	assert.Error(t, err)
}
