package shortcode

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mehmetcanozen/minilink-sub001/internal/queue"
)

// memStore is an in-memory KeyedStore. The mutex makes Delete atomic,
// which is the one property the pool's concurrency contract leans on.
// TTLs are recorded but never enforced; tests expire keys by hand to
// exercise counter drift.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration

	failSet    bool
	failSetAt  int // fail the Nth Set call, 0 disables
	setCalls   int
	failScan   bool
	failGet    bool
	failIncrBy bool
}

var errStoreDown = errors.New("store down")

func newMemStore() *memStore {
	return &memStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.failSet || (m.failSetAt > 0 && m.setCalls >= m.failSetAt) {
		return errStoreDown
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errStoreDown
	}
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *memStore) Delete(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return 0, nil
	}
	delete(m.data, key)
	delete(m.ttls, key)
	return 1, nil
}

func (m *memStore) ScanKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failScan {
		return nil, errStoreDown
	}
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memStore) IncrBy(_ context.Context, key string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIncrBy {
		return 0, errStoreDown
	}
	current, _ := strconv.ParseInt(m.data[key], 10, 64)
	current += n
	m.data[key] = strconv.FormatInt(current, 10)
	return current, nil
}

// expire removes a key as the store's TTL reaper would: silently, without
// touching the size counter.
func (m *memStore) expire(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.ttls, key)
}

func (m *memStore) keyCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key := range m.data {
		if strings.HasPrefix(key, prefix) && key != poolSizeKey {
			count++
		}
	}
	return count
}

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu      sync.Mutex
	jobs    []recordedJob
	failure error
}

type recordedJob struct {
	Type    string
	Request ReplenishRequest
	Opts    queue.Options
}

func (q *fakeQueue) Enqueue(_ context.Context, jobType string, payload any, opts queue.Options) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failure != nil {
		return q.failure
	}
	job := recordedJob{Type: jobType, Opts: opts}
	if req, ok := payload.(ReplenishRequest); ok {
		job.Request = req
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) recorded() []recordedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]recordedJob(nil), q.jobs...)
}

// fakeOracle answers Exists from a scripted function and counts calls.
type fakeOracle struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, code string) (bool, error)
}

func (o *fakeOracle) Exists(_ context.Context, code string) (bool, error) {
	o.mu.Lock()
	o.calls++
	call := o.calls
	o.mu.Unlock()
	return o.fn(call, code)
}
