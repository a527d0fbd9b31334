// internal/donor/cache.go
//
// Lazy donor read cache.
//
// Context
// -------
// Donor profiles are read on every request page and every dashboard load,
// and they change rarely.  Cache loads them on demand from the backend,
// stores them in a sync.Map, and evicts them on idle TTL or LRU pressure
// (see evictor.go).  Concurrent misses for the same key share one backend
// call through singleflight.
//
// Keys
// ----
//
//	"id:<donorID>"    – lookups by donor id
//	"user:<userID>"   – lookups by owning user
//
// Notes
// -----
//   - Misses are cached too, but only for AbsentTTL, so a user who creates
//     a donor profile is seen quickly.
//   - A shared fetch runs on a context detached from the first caller's
//     cancellation, so one aborted request does not fail its peers.
//   - A shared fetch uses the first caller's token.  When it fails with
//     401 or 403, every other caller retries once with its own token.
//   - Oxford commas, two spaces after periods.
package donor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/plasmapioneers/portal/internal/backend"
	"github.com/plasmapioneers/portal/internal/metrics"
)

// Defaults used when Options leaves a field zero.
const (
	IdleTTL       = 5 * time.Minute
	AbsentTTL     = 30 * time.Second
	MaxEntries    = 1000
	EvictInterval = time.Minute
	FetchTimeout  = 10 * time.Second
)

// Source fetches donor records.  *backend.Client satisfies it.  A missing
// record must be reported as backend.ErrNotFound.
type Source interface {
	Donor(ctx context.Context, token, id string, out any) error
	DonorByUser(ctx context.Context, token, userID string, out any) error
}

// Options tunes New.
type Options struct {
	IdleTTL       time.Duration
	AbsentTTL     time.Duration
	MaxEntries    int
	EvictInterval time.Duration
	Log           *zap.SugaredLogger
}

// Cache lazily loads donors.  Call Close to stop the evictor.
type Cache struct {
	src      Source
	sfg      singleflight.Group
	m        sync.Map // key → *entry
	inflight sync.Map // key → struct{}

	idleTTL    time.Duration
	absentTTL  time.Duration
	maxEntries int

	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	log         *zap.SugaredLogger
}

// New constructs a Cache and starts the background evictor.
func New(src Source, opts Options) *Cache {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = IdleTTL
	}
	if opts.AbsentTTL <= 0 {
		opts.AbsentTTL = AbsentTTL
	}
	if opts.MaxEntries < 0 {
		opts.MaxEntries = 0
	} else if opts.MaxEntries == 0 {
		opts.MaxEntries = MaxEntries
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = EvictInterval
	}
	if opts.Log == nil {
		opts.Log = zap.S()
	}

	c := &Cache{
		src:         src,
		idleTTL:     opts.IdleTTL,
		absentTTL:   opts.AbsentTTL,
		maxEntries:  opts.MaxEntries,
		evictTicker: time.NewTicker(opts.EvictInterval),
		done:        make(chan struct{}),
		log:         opts.Log.Named("donor_cache"),
	}
	c.wg.Add(1)
	go c.evictLoop()
	return c
}

// Close stops the evictor and waits for it to exit.  Safe to call twice.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
	})
	c.wg.Wait()
}

// ByID returns the donor with id.  A missing donor yields Absent and a nil
// error; any other backend failure is returned with status Loading.
func (c *Cache) ByID(ctx context.Context, token, id string) (Donor, Status, error) {
	return c.get(ctx, "id:"+id, func(ctx context.Context, out *Donor) error {
		return c.src.Donor(ctx, token, id, out)
	})
}

// ByUser returns the donor profile owned by userID, with the same status
// rules as ByID.
func (c *Cache) ByUser(ctx context.Context, token, userID string) (Donor, Status, error) {
	return c.get(ctx, "user:"+userID, func(ctx context.Context, out *Donor) error {
		return c.src.DonorByUser(ctx, token, userID, out)
	})
}

// Peek reports what the cache knows about userID's donor profile without
// calling the backend.  Unknown and in-flight keys both report Loading.
func (c *Cache) Peek(userID string) (Donor, Status) {
	if ent, ok := c.fresh("user:" + userID); ok {
		if ent.donor == nil {
			return Donor{}, Absent
		}
		return *ent.donor, Present
	}
	return Donor{}, Loading
}

// Loading reports whether a fetch for userID is in flight.
func (c *Cache) Loading(userID string) bool {
	_, ok := c.inflight.Load("user:" + userID)
	return ok
}

// Forget drops any cached lookups for the donor id and user id given.
// Either may be empty.
func (c *Cache) Forget(id, userID string) {
	for _, key := range []string{"id:" + id, "user:" + userID} {
		if _, loaded := c.m.LoadAndDelete(key); loaded {
			metrics.CachedDonors.Dec()
		}
	}
}

func (c *Cache) get(ctx context.Context, key string, fetch func(context.Context, *Donor) error) (Donor, Status, error) {
	if ent, ok := c.fresh(key); ok {
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		if ent.donor == nil {
			return Donor{}, Absent, nil
		}
		return *ent.donor, Present, nil
	}

	led := false
	v, err, _ := c.sfg.Do(key, func() (any, error) {
		led = true
		// Double-check after singleflight barrier.
		if ent, ok := c.fresh(key); ok {
			return ent, nil
		}
		c.inflight.Store(key, struct{}{})
		defer c.inflight.Delete(key)
		return c.load(ctx, key, fetch)
	})
	if err != nil && !led && backend.IsAuthError(err) {
		// The leader's token was rejected; ours may still be good.
		v, err = c.load(ctx, key, fetch)
	}
	if err != nil {
		c.log.Warnw("donor fetch failed", "key", key, "err", err)
		return Donor{}, Loading, err
	}
	ent := v.(*entry)
	if ent.donor == nil {
		return Donor{}, Absent, nil
	}
	return *ent.donor, Present, nil
}

// load fetches key and stores the result.  ErrNotFound is stored as a
// miss; any other error is returned and nothing is stored.
func (c *Cache) load(ctx context.Context, key string, fetch func(context.Context, *Donor) error) (*entry, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
	defer cancel()

	var d Donor
	err := fetch(fctx, &d)
	now := time.Now().UnixNano()
	ent := &entry{loadedAt: now, lastSeen: now}
	switch {
	case err == nil:
		ent.donor = &d
	case errors.Is(err, backend.ErrNotFound):
		// cached miss
	default:
		metrics.DonorLoadErrorsTotal.Inc()
		return nil, err
	}
	if _, loaded := c.m.Swap(key, ent); !loaded {
		metrics.CachedDonors.Inc()
	}
	metrics.DonorLoadTotal.Inc()
	return ent, nil
}

// fresh returns the entry for key unless it is a miss older than absentTTL.
func (c *Cache) fresh(key string) (*entry, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	if ent.donor == nil && time.Since(time.Unix(0, ent.loadedAt)) > c.absentTTL {
		return nil, false
	}
	return ent, true
}
