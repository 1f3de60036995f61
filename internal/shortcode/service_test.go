package shortcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store KeyedStore, jobs Enqueuer, oracle Oracle) *Service {
	gen := NewGenerator(digitsConfig())
	pool := NewPool(store, jobs, 100, 1000, 86400)
	return NewService(pool, NewAllocator(gen, 5), oracle)
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("fast path draws from the pool without the oracle", func(t *testing.T) {
		store := newMemStore()
		oracle := &fakeOracle{fn: func(int, string) (bool, error) {
			return false, nil
		}}
		svc := newTestService(store, &fakeQueue{}, oracle)

		require.NoError(t, svc.pool.Refill(ctx, []string{"55555555"}))

		code, err := svc.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, "55555555", code)
		assert.Zero(t, oracle.calls)
	})

	t.Run("empty pool falls back to oracle-checked generation", func(t *testing.T) {
		oracle := &fakeOracle{fn: func(int, string) (bool, error) {
			return false, nil
		}}
		svc := newTestService(newMemStore(), &fakeQueue{}, oracle)

		code, err := svc.Allocate(ctx)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.Equal(t, 1, oracle.calls)
	})

	t.Run("store outage on the fast path still allocates", func(t *testing.T) {
		store := newMemStore()
		store.failScan = true
		oracle := &fakeOracle{fn: func(int, string) (bool, error) {
			return false, nil
		}}
		svc := newTestService(store, &fakeQueue{}, oracle)

		code, err := svc.Allocate(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, code)
	})

	t.Run("saturated oracle surfaces retries exhausted", func(t *testing.T) {
		oracle := &fakeOracle{fn: func(int, string) (bool, error) {
			return true, nil
		}}
		svc := newTestService(newMemStore(), &fakeQueue{}, oracle)

		_, err := svc.Allocate(ctx)
		var exhausted *RetriesExhaustedError
		assert.ErrorAs(t, err, &exhausted)
	})
}

func TestServiceValidate(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeQueue{}, nil)

	assert.NoError(t, svc.Validate("12345678"))
	assert.Error(t, svc.Validate("nope"))
}
