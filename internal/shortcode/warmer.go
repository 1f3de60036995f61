package shortcode

import (
	"context"
	"fmt"
	"log"
)

// Warmer tops the pool up synchronously at process start, bypassing the
// job queue, so the first requests never hit the slow uniqueness-check
// path. It blocks until the floor is met and fails startup if a round
// makes no progress.
type Warmer struct {
	gen  *Generator
	pool *Pool
}

func NewWarmer(gen *Generator, pool *Pool) *Warmer {
	return &Warmer{gen: gen, pool: pool}
}

// Warm generates and refills in rounds until Size reaches the pool floor.
func (w *Warmer) Warm(ctx context.Context) error {
	for {
		size := w.pool.Size(ctx)
		if size >= w.pool.MinSize() {
			log.Printf("shortcode: pool warm at %d (floor %d)", size, w.pool.MinSize())
			return nil
		}

		deficit := w.pool.MinSize() - size
		if deficit > MaxBatchSize {
			deficit = MaxBatchSize
		}

		codes, err := w.gen.GenerateBatch(deficit)
		if err != nil {
			return fmt.Errorf("startup warm generation failed: %w", err)
		}
		if err := w.pool.Refill(ctx, codes); err != nil {
			return fmt.Errorf("startup warm refill failed: %w", err)
		}

		if w.pool.Size(ctx) <= size {
			return fmt.Errorf("startup warm made no progress at size %d (floor %d)", size, w.pool.MinSize())
		}
	}
}
