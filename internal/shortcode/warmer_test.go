package shortcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmetcanozen/minilink-sub001/internal/config"
)

func TestWarm(t *testing.T) {
	ctx := context.Background()
	gen := NewGenerator(digitsConfig())

	t.Run("fills an empty pool to the floor", func(t *testing.T) {
		store := newMemStore()
		pool := NewPool(store, &fakeQueue{}, 100, 1000, 86400)
		warmer := NewWarmer(gen, pool)

		require.NoError(t, warmer.Warm(ctx))
		assert.GreaterOrEqual(t, pool.Size(ctx), 100)
	})

	t.Run("no-op when already warm", func(t *testing.T) {
		store := newMemStore()
		pool := NewPool(store, &fakeQueue{}, 2, 1000, 86400)
		warmer := NewWarmer(gen, pool)

		require.NoError(t, pool.Refill(ctx, []string{"11111111", "22222222"}))
		before := store.keyCount(poolKeyPrefix)

		require.NoError(t, warmer.Warm(ctx))
		assert.Equal(t, before, store.keyCount(poolKeyPrefix))
	})

	t.Run("warms in rounds when the deficit exceeds one batch", func(t *testing.T) {
		cfg := &config.PoolConfig{Alphabet: "0123456789", CodeLength: 8}
		gen := NewGenerator(cfg)

		store := newMemStore()
		pool := NewPool(store, &fakeQueue{}, 1500, 2000, 86400)
		warmer := NewWarmer(gen, pool)

		require.NoError(t, warmer.Warm(ctx))
		assert.GreaterOrEqual(t, pool.Size(ctx), 1500)
	})

	t.Run("fails startup when the store rejects writes", func(t *testing.T) {
		store := newMemStore()
		store.failSet = true
		pool := NewPool(store, &fakeQueue{}, 100, 1000, 86400)
		warmer := NewWarmer(gen, pool)

		assert.Error(t, warmer.Warm(ctx))
	})
}
