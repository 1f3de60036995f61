// Package shortcode implements the short-code allocation pipeline: a
// fixed-alphabet generator, a pre-generated pool in an expiring keyed
// store, a uniqueness-checked fallback against the persistent link index,
// and asynchronous pool replenishment.
package shortcode

import (
	"context"
	"log"
	"time"

	"github.com/mehmetcanozen/minilink-sub001/internal/metrics"
)

// drawRetries bounds how many times Allocate retries a lost draw race
// before falling back to the oracle-checked slow path. A lost race against
// a non-empty pool almost always succeeds on the next scan; a persistently
// empty snapshot should fall through quickly.
const drawRetries = 3

// Service is the allocation façade: fast path from the pool, slow path
// through the uniqueness allocator, watermark maintenance on the side.
type Service struct {
	pool      *Pool
	allocator *Allocator
	oracle    Oracle
}

func NewService(pool *Pool, allocator *Allocator, oracle Oracle) *Service {
	return &Service{pool: pool, allocator: allocator, oracle: oracle}
}

// Allocate returns a code that is not in permanent use. Every successful
// pool draw triggers a watermark check off the request path; maintenance
// failures never surface here. Allocation failures (generation bugs,
// exhausted retries) propagate loudly.
func (s *Service) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < drawRetries; i++ {
		code, ok, err := s.pool.Draw(ctx)
		if err != nil {
			// Store trouble on the fast path: fall back rather than fail,
			// the oracle may still be reachable.
			log.Printf("shortcode: pool draw failed, falling back to generation: %v", err)
			break
		}
		if ok {
			s.triggerMaintenance()
			return code, nil
		}
	}

	metrics.FallbackAllocations.Inc()
	return s.allocator.AllocateUnique(ctx, s.oracle)
}

// triggerMaintenance runs the watermark check without blocking or failing
// the caller's allocation.
func (s *Service) triggerMaintenance() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.pool.EnsureWatermark(ctx)
	}()
}

// Validate exposes the validity predicate for externally supplied codes.
func (s *Service) Validate(code string) error {
	return s.allocator.gen.Validate(code)
}

// Stats exposes the pool snapshot.
func (s *Service) Stats(ctx context.Context) PoolStats {
	return s.pool.Stats(ctx)
}

// EstimateCollisionProbability exposes the birthday-bound estimate for the
// stats surface.
func (s *Service) EstimateCollisionProbability(existingCount int64) float64 {
	return s.allocator.EstimateCollisionProbability(existingCount)
}
