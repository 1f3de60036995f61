package shortcode

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mehmetcanozen/minilink-sub001/internal/metrics"
	"github.com/mehmetcanozen/minilink-sub001/internal/queue"
)

const (
	poolKeyPrefix = "shortcode:pool:"
	poolSizeKey   = "shortcode:pool:size"

	// ReplenishJobType identifies pool top-up jobs on the queue.
	ReplenishJobType = "pool.replenish"

	// replenishDelay damps thundering-herd enqueues when many concurrent
	// draws notice the low watermark at once.
	replenishDelay = 5 * time.Second
)

// ReplenishRequest is the payload of a ReplenishJobType job.
type ReplenishRequest struct {
	Count int `json:"count"`
}

// KeyedStore is the expiring keyed store the pool lives in. Implemented by
// cache.Client; tests substitute an in-memory fake.
type KeyedStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) (int64, error)
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
}

// Enqueuer is the job-queue capability the pool needs for replenishment.
// Implemented by queue.Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload any, opts queue.Options) error
}

// MaintenanceStatus classifies the outcome of a maintenance operation.
type MaintenanceStatus string

const (
	MaintenanceOK       MaintenanceStatus = "ok"
	MaintenanceDegraded MaintenanceStatus = "degraded"
	MaintenanceFailed   MaintenanceStatus = "failed"
)

// MaintenanceResult is the explicit outcome of a watermark check.
// Maintenance never returns an error: pool health may degrade quietly, and
// this result plus its metrics counter is the visible signal.
type MaintenanceResult struct {
	Status   MaintenanceStatus
	Reason   string
	Enqueued int // codes requested from the replenisher, 0 if none
}

// PoolStats is a point-in-time snapshot for the stats endpoint.
type PoolStats struct {
	Size           int      `json:"size"`
	MinSize        int      `json:"min_size"`
	MaxSize        int      `json:"max_size"`
	AvailableCodes []string `json:"available_codes"`
}

// Pool keeps pre-generated codes in the expiring keyed store so the common
// allocation path never has to touch the uniqueness oracle.
//
// No in-process lock protects the pool; multiple processes share it. The
// single atomic delete inside Draw is the only mutual exclusion between
// concurrent drawers. Entries expire via per-key TTL independent of the
// size counter, so the counter is an approximation that can drift upward;
// that drift is accepted and documented rather than reconciled away.
type Pool struct {
	store    KeyedStore
	jobs     Enqueuer
	minSize  int
	maxSize  int
	entryTTL time.Duration

	// collapses concurrent in-process watermark checks; cross-process
	// dedup relies on the enqueue delay instead
	watermark singleflight.Group
}

func NewPool(store KeyedStore, jobs Enqueuer, minSize, maxSize, entryTTLSeconds int) *Pool {
	return &Pool{
		store:    store,
		jobs:     jobs,
		minSize:  minSize,
		maxSize:  maxSize,
		entryTTL: time.Duration(entryTTLSeconds) * time.Second,
	}
}

func poolKey(code string) string {
	return poolKeyPrefix + code
}

// Refill writes every code as an available entry with the pool TTL, then
// bumps the size counter once by the number written. Best-effort, not
// transactional: a write failure mid-batch still counts the entries that
// made it in, and the error reports how far the batch got.
func (p *Pool) Refill(ctx context.Context, codes []string) error {
	written := 0
	var writeErr error
	for _, code := range codes {
		if err := p.store.Set(ctx, poolKey(code), code, p.entryTTL); err != nil {
			writeErr = &StoreUnavailableError{
				Op:  fmt.Sprintf("refill (wrote %d of %d)", written, len(codes)),
				Err: err,
			}
			break
		}
		written++
	}

	if written > 0 {
		if _, err := p.store.IncrBy(ctx, poolSizeKey, int64(written)); err != nil && writeErr == nil {
			writeErr = &StoreUnavailableError{Op: "refill counter update", Err: err}
		}
		metrics.PoolCodesRefilled.Add(float64(written))
	}
	return writeErr
}

// Draw removes and returns one pooled code, chosen uniformly at random
// from a scan-time snapshot. Returns ok=false when the pool is empty or
// when another drawer (or TTL expiry) removed the chosen key between scan
// and delete. Draw never loops: losing the race is the caller's signal to
// retry or fall back.
//
// Invariant: the delete-if-present on the chosen key is the single source
// of mutual exclusion between concurrent drawers, in this process or any
// other.
func (p *Pool) Draw(ctx context.Context) (string, bool, error) {
	keys, err := p.availableKeys(ctx)
	if err != nil {
		return "", false, &StoreUnavailableError{Op: "draw scan", Err: err}
	}
	if len(keys) == 0 {
		metrics.PoolDrawMisses.Inc()
		return "", false, nil
	}

	key := keys[rand.Intn(len(keys))]
	removed, err := p.store.Delete(ctx, key)
	if err != nil {
		return "", false, &StoreUnavailableError{Op: "draw delete", Err: err}
	}
	if removed == 0 {
		// Lost the race: a concurrent drawer took it, or it expired
		// between scan and delete.
		metrics.PoolDrawMisses.Inc()
		return "", false, nil
	}

	p.decrementSize(ctx)
	metrics.PoolDrawHits.Inc()
	return strings.TrimPrefix(key, poolKeyPrefix), true, nil
}

// Size reads the approximate pool size counter. Absent counter or store
// errors read as zero; Size never fails its caller.
func (p *Pool) Size(ctx context.Context) int {
	value, found, err := p.store.Get(ctx, poolSizeKey)
	if err != nil {
		log.Printf("shortcode: pool size read failed, assuming 0: %v", err)
		return 0
	}
	if !found {
		return 0
	}
	size, err := strconv.Atoi(value)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

// EnsureWatermark checks the pool floor and, when short, enqueues exactly
// one low-priority, delayed replenishment job for the deficit. The deficit
// is clamped so the pool never grows past MaxSize. Concurrent in-process
// calls collapse into one check.
func (p *Pool) EnsureWatermark(ctx context.Context) MaintenanceResult {
	v, _, _ := p.watermark.Do("watermark", func() (any, error) {
		return p.checkWatermark(ctx), nil
	})
	result := v.(MaintenanceResult)
	metrics.MaintenanceResults.WithLabelValues(string(result.Status)).Inc()
	if result.Status != MaintenanceOK {
		log.Printf("shortcode: pool maintenance %s: %s", result.Status, result.Reason)
	}
	return result
}

func (p *Pool) checkWatermark(ctx context.Context) MaintenanceResult {
	size := p.Size(ctx)
	if size >= p.minSize {
		return MaintenanceResult{Status: MaintenanceOK}
	}

	deficit := p.minSize - size
	if headroom := p.maxSize - size; deficit > headroom {
		deficit = headroom
	}
	if deficit <= 0 {
		return MaintenanceResult{Status: MaintenanceOK}
	}

	err := p.jobs.Enqueue(ctx, ReplenishJobType, ReplenishRequest{Count: deficit}, queue.Options{
		Priority: queue.PriorityLow,
		Delay:    replenishDelay,
	})
	if err != nil {
		return MaintenanceResult{
			Status: MaintenanceFailed,
			Reason: fmt.Sprintf("enqueue failed for deficit %d: %v", deficit, err),
		}
	}

	return MaintenanceResult{
		Status:   MaintenanceDegraded,
		Reason:   fmt.Sprintf("pool at %d, below floor %d; requested %d codes", size, p.minSize, deficit),
		Enqueued: deficit,
	}
}

// Stats scans the full pool. O(pool size), acceptable only because the
// pool is bounded by MaxSize. Scan failures degrade to an empty code list
// rather than failing the caller.
func (p *Pool) Stats(ctx context.Context) PoolStats {
	stats := PoolStats{
		Size:           p.Size(ctx),
		MinSize:        p.minSize,
		MaxSize:        p.maxSize,
		AvailableCodes: []string{},
	}

	keys, err := p.availableKeys(ctx)
	if err != nil {
		log.Printf("shortcode: pool stats scan failed: %v", err)
		return stats
	}
	for _, key := range keys {
		stats.AvailableCodes = append(stats.AvailableCodes, strings.TrimPrefix(key, poolKeyPrefix))
	}
	return stats
}

// MinSize reports the configured pool floor.
func (p *Pool) MinSize() int {
	return p.minSize
}

// availableKeys scans entry keys, excluding the size counter which shares
// the prefix.
func (p *Pool) availableKeys(ctx context.Context) ([]string, error) {
	keys, err := p.store.ScanKeys(ctx, poolKeyPrefix)
	if err != nil {
		return nil, err
	}
	entries := keys[:0]
	for _, key := range keys {
		if key != poolSizeKey {
			entries = append(entries, key)
		}
	}
	return entries, nil
}

// decrementSize bumps the counter down for a consumed entry, clamping at
// zero. TTL expiry removes entries without passing through here, which is
// why the counter only approximates the true entry count.
func (p *Pool) decrementSize(ctx context.Context) {
	value, err := p.store.IncrBy(ctx, poolSizeKey, -1)
	if err != nil {
		log.Printf("shortcode: pool size decrement failed: %v", err)
		return
	}
	if value < 0 {
		if err := p.store.Set(ctx, poolSizeKey, "0", 0); err != nil {
			log.Printf("shortcode: pool size floor reset failed: %v", err)
		}
	}
}
