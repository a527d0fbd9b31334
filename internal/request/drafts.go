// internal/request/drafts.go
//
// In-memory form sessions.
//
// Over HTTP a form session spans several calls (field edits, then a
// submit), so its Controller must outlive one request.  Drafts keeps one
// Controller per (user, donor) pair in a bounded LRU.  Toasts and the
// redirect belong to the submit call that produced them: Drafts.Submit
// collects them in a fresh Outbox and hands it back, so a concurrent view
// or busy submit on the same draft never sees them.  A succeeded draft is
// discarded, so the next visit starts empty.

package request

import (
	"context"
	"sync"

	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/cache"
	"github.com/plasmapioneers/portal/internal/metrics"
	"github.com/plasmapioneers/portal/internal/notify"
)

// Draft is one live form session.  Submit it through Drafts.Submit.
type Draft struct {
	*Controller
}

// Drafts is the per-process draft store.  Safe for concurrent use.
type Drafts struct {
	mu   sync.Mutex // serializes Open
	lru  *cache.LRU[string, *Draft]
	deps Deps
	feed *notify.Feed
}

// NewDrafts returns a store holding up to max drafts.  deps supplies the
// Reader, Writer, Audit, and Log of every Controller it creates; Sink and
// Navigator are ignored.  feed may be nil.
func NewDrafts(max int, deps Deps, feed *notify.Feed) *Drafts {
	ds := &Drafts{lru: cache.New[string, *Draft](max), deps: deps, feed: feed}
	ds.lru.OnEvict(func(string, *Draft) { metrics.ActiveDrafts.Dec() })
	return ds
}

func draftKey(userID, donorID string) string { return userID + "\x00" + donorID }

// Open returns the user's draft for donorID, creating an empty one.
func (ds *Drafts) Open(u auth.User, donorID string) *Draft {
	key := draftKey(u.ID, donorID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if d, ok := ds.lru.Get(key); ok {
		return d
	}
	deps := ds.deps
	deps.Sink, deps.Navigator = nil, nil
	d := &Draft{Controller: New(donorID, u, deps)}
	ds.lru.Add(key, d)
	metrics.ActiveDrafts.Inc()
	return d
}

// Peek returns the draft without creating one.
func (ds *Drafts) Peek(userID, donorID string) (*Draft, bool) {
	return ds.lru.Get(draftKey(userID, donorID))
}

// Discard drops the draft, if any.
func (ds *Drafts) Discard(userID, donorID string) {
	if ds.lru.Remove(draftKey(userID, donorID)) {
		metrics.ActiveDrafts.Dec()
	}
}

// Submit runs one attempt on d and discards d once it has succeeded.  The
// returned Outbox holds only this attempt's toasts and redirect; they are
// also recorded in the feed.
func (ds *Drafts) Submit(ctx context.Context, d *Draft) (Outcome, *notify.Outbox) {
	box := notify.NewOutbox(ds.feed, d.user.ID)
	out := d.SubmitTo(ctx, box, box)
	if out.Result == ResultSucceeded {
		ds.Discard(d.user.ID, d.donorID)
	}
	return out, box
}

// Len reports how many drafts are held.
func (ds *Drafts) Len() int { return ds.lru.Len() }
