package notify

import (
	"github.com/plasmapioneers/portal/internal/cache"
)

// DefaultFeedDepth is how many notifications Feed keeps per user.
const DefaultFeedDepth = 20

// Feed keeps each user's most recent notifications for the dashboard bell.
// Users are held in a bounded LRU, so idle users fall out first.
type Feed struct {
	users *cache.LRU[string, *ring]
	depth int
}

// NewFeed returns a Feed tracking up to maxUsers users, depth entries each.
func NewFeed(maxUsers, depth int) *Feed {
	if depth < 1 {
		depth = DefaultFeedDepth
	}
	return &Feed{users: cache.New[string, *ring](maxUsers), depth: depth}
}

// Push appends n to userID's feed, dropping the oldest entry when full.
func (f *Feed) Push(userID string, n Notification) {
	r, ok := f.users.Get(userID)
	if !ok {
		r = newRing(f.depth)
		f.users.Add(userID, r)
	}
	r.push(n)
}

// Recent returns userID's notifications, newest first.
func (f *Feed) Recent(userID string) []Notification {
	r, ok := f.users.Get(userID)
	if !ok {
		return nil
	}
	return r.newestFirst()
}
