// Package memory provides the reference in-memory implementation of the
// storage contract: a map of key to (value, absolute expiry) with lazy expiry
// on read and a background sweep for keys nobody reads again.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/orris-inc/tokengate/internal/shared/goroutine"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/storage"
)

// DefaultSweepInterval is the sweep period used when the caller passes 0.
const DefaultSweepInterval int64 = 30

type entry struct {
	value    string
	expireAt int64 // unix milliseconds; storage.NeverExpire when the key never expires
}

// expired is the single expiry predicate shared by lazy reads and the sweep.
func (e entry) expired(nowMilli int64) bool {
	return e.expireAt != storage.NeverExpire && e.expireAt <= nowMilli
}

// TimedCache is safe for concurrent use. Init starts the sweep goroutine and
// Destroy stops it; a sweep interval of -1 disables sweeping entirely.
type TimedCache struct {
	mu   sync.RWMutex
	data map[string]entry

	sweepInterval int64 // seconds; -1 disables
	stop          chan struct{}
	stopOnce      sync.Once
	log           logger.Interface

	now func() time.Time // overridable in tests
}

var _ storage.StringStore = (*TimedCache)(nil)
var _ storage.ConditionalSetter = (*TimedCache)(nil)

// New creates a TimedCache sweeping at the given interval in seconds.
// Pass 0 for the default interval or -1 to disable the sweep.
func New(sweepIntervalSeconds int64, log logger.Interface) *TimedCache {
	if sweepIntervalSeconds == 0 {
		sweepIntervalSeconds = DefaultSweepInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TimedCache{
		data:          make(map[string]entry),
		sweepInterval: sweepIntervalSeconds,
		stop:          make(chan struct{}),
		log:           log.Named("timedcache"),
		now:           time.Now,
	}
}

func (c *TimedCache) nowMilli() int64 {
	return c.now().UnixMilli()
}

func (c *TimedCache) expireAtFor(ttl int64) int64 {
	if ttl == storage.NeverExpire {
		return storage.NeverExpire
	}
	return c.nowMilli() + ttl*1000
}

func (c *TimedCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if e.expired(c.nowMilli()) {
		// Lazy expiry: never hand out stale data.
		c.deleteExpired(key)
		return "", nil
	}
	return e.value, nil
}

// deleteExpired re-checks under the write lock so a concurrent Set between
// the read and the delete is not lost.
func (c *TimedCache) deleteExpired(key string) {
	c.mu.Lock()
	if e, ok := c.data[key]; ok && e.expired(c.nowMilli()) {
		delete(c.data, key)
	}
	c.mu.Unlock()
}

func (c *TimedCache) Set(ctx context.Context, key, value string, ttl int64) error {
	if ttl == 0 {
		return c.Delete(ctx, key)
	}
	c.mu.Lock()
	c.data[key] = entry{value: value, expireAt: c.expireAtFor(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *TimedCache) SetIfAbsent(ctx context.Context, key, value string, ttl int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.data[key]; ok && !e.expired(c.nowMilli()) {
		return false, nil
	}
	c.data[key] = entry{value: value, expireAt: c.expireAtFor(ttl)}
	return true, nil
}

func (c *TimedCache) Update(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok || e.expired(c.nowMilli()) {
		return nil
	}
	e.value = value
	c.data[key] = e
	return nil
}

func (c *TimedCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *TimedCache) GetTimeout(ctx context.Context, key string) (int64, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	nowMilli := c.nowMilli()
	if !ok || e.expired(nowMilli) {
		return storage.NotValueExpire, nil
	}
	if e.expireAt == storage.NeverExpire {
		return storage.NeverExpire, nil
	}
	return (e.expireAt - nowMilli) / 1000, nil
}

func (c *TimedCache) UpdateTimeout(ctx context.Context, key string, ttl int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok || e.expired(c.nowMilli()) {
		return nil
	}
	e.expireAt = c.expireAtFor(ttl)
	c.data[key] = e
	return nil
}

func (c *TimedCache) SearchKeys(ctx context.Context, prefix, keyword string, start, size int, ascending bool) ([]string, error) {
	nowMilli := c.nowMilli()
	c.mu.RLock()
	keys := make([]string, 0, len(c.data))
	for key, e := range c.data {
		if e.expired(nowMilli) {
			continue
		}
		keys = append(keys, key)
	}
	c.mu.RUnlock()
	return storage.FilterKeys(keys, prefix, keyword, start, size, ascending), nil
}

// Init starts the background sweep. Calling it with sweeping disabled is a no-op.
func (c *TimedCache) Init() error {
	if c.sweepInterval == -1 {
		return nil
	}
	goroutine.SafeGo(c.log, "timedcache-sweep", c.sweepLoop)
	return nil
}

// Destroy stops the sweep goroutine. Safe to call more than once.
func (c *TimedCache) Destroy() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *TimedCache) sweepLoop() {
	ticker := time.NewTicker(time.Duration(c.sweepInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep removes every expired entry. It snapshots the key set and deletes per
// key under short lock windows so foreground reads are never blocked behind a
// full-map scan.
func (c *TimedCache) Sweep() {
	c.mu.RLock()
	keys := make([]string, 0, len(c.data))
	for key := range c.data {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	removed := 0
	for _, key := range keys {
		c.mu.Lock()
		if e, ok := c.data[key]; ok && e.expired(c.nowMilli()) {
			delete(c.data, key)
			removed++
		}
		c.mu.Unlock()
	}
	if removed > 0 {
		c.log.Debug("swept expired entries", "removed", removed)
	}
}

// Len reports the number of live entries, counting not-yet-swept expired ones.
func (c *TimedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
