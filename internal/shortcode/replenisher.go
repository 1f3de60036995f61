package shortcode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"github.com/mehmetcanozen/minilink-sub001/internal/metrics"
)

// Replenisher handles pool top-up jobs in the worker process. After a
// refill it re-checks the watermark, which may enqueue a follow-up job if
// the original deficit was computed against a stale size read. That
// self-rescheduling is gated by a token bucket so a pool that can never
// converge (misconfigured alphabet, flapping store) fans out at a bounded
// rate instead of unboundedly.
type Replenisher struct {
	gen  *Generator
	pool *Pool
	// one self-triggered re-check per enqueue delay, with a little burst
	retrigger *rate.Limiter
}

func NewReplenisher(gen *Generator, pool *Pool) *Replenisher {
	return &Replenisher{
		gen:       gen,
		pool:      pool,
		retrigger: rate.NewLimiter(rate.Every(replenishDelay), 2),
	}
}

// HandleReplenish processes one ReplenishJobType payload. Generation and
// refill errors propagate so the queue's at-least-once delivery can retry
// the job; only the re-trigger is best-effort.
func (r *Replenisher) HandleReplenish(ctx context.Context, payload json.RawMessage) error {
	var req ReplenishRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("bad replenish payload: %w", err)
	}

	count := req.Count
	if count > MaxBatchSize {
		// Deficits are clamped at enqueue time; a larger count means a
		// stale or hand-crafted job. Serve what the batch cap allows.
		log.Printf("shortcode: replenish count %d exceeds batch cap, clamping to %d", count, MaxBatchSize)
		count = MaxBatchSize
	}

	codes, err := r.gen.GenerateBatch(count)
	if err != nil {
		return fmt.Errorf("replenish generation failed: %w", err)
	}
	if err := r.pool.Refill(ctx, codes); err != nil {
		return fmt.Errorf("replenish refill failed: %w", err)
	}

	metrics.ReplenishJobs.Inc()
	log.Printf("shortcode: replenished pool with %d codes", len(codes))

	if r.retrigger.Allow() {
		r.pool.EnsureWatermark(ctx)
	} else {
		log.Printf("shortcode: replenish re-check rate limited; next draw will re-arm the watermark")
	}
	return nil
}
