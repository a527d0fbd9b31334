// evictor.go houses the eviction loop for Cache.  Every tick it scans the
// map and removes:
//
//   - entries idle longer than idleTTL
//   - least-recently-used entries when map size exceeds maxEntries
//
// Each eviction updates Prometheus counters.
package donor

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/plasmapioneers/portal/internal/metrics"
)

func (c *Cache) evictLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case <-c.evictTicker.C:
			c.evict(time.Now())
		}
	}
}

// evict runs one idle pass and one LRU pass.
func (c *Cache) evict(now time.Time) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := now.Sub(time.Unix(0, atomic.LoadInt64(&ent.lastSeen)))
		if idle > c.idleTTL {
			c.drop(key, "idle")
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if c.maxEntries > 0 && count > c.maxEntries {
		type kv struct {
			key any
			at  int64
		}
		all := make([]kv, 0, count)
		c.m.Range(func(key, value any) bool {
			all = append(all, kv{key: key, at: atomic.LoadInt64(&value.(*entry).lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-c.maxEntries; i++ {
			c.drop(all[i].key, "lru")
		}
	}
}

func (c *Cache) drop(key any, reason string) {
	if _, ok := c.m.LoadAndDelete(key); ok {
		c.log.Debugw("donor evicted", "key", key, "reason", reason)
		metrics.DonorEvictTotal.Inc()
		metrics.CachedDonors.Dec()
	}
}
