// internal/notify/notify.go
//
// Notification and navigation sinks.
//
// Context
//   The submission workflow reports its outcome through two side channels:
//   a short user-visible notification (a toast) and, on success, a request
//   to navigate elsewhere.  Over HTTP both become fields of the JSON reply,
//   so the Outbox collects them during one call and the handler drains it
//   into the response.
//
// Notes
//   An Outbox belongs to one submit call and is drained by that call's
//   handler only.  Feed is shared.
//
//------------------------------------------------------------------------------

package notify

import (
	"sync"
	"time"
)

// Level tags a notification.
type Level string

const (
	Info  Level = "info"
	Error Level = "error"
)

// Notification is one toast.
type Notification struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Sink accepts notifications.  Nothing is returned to the caller.
type Sink interface {
	Notify(level Level, text string)
}

// Navigator accepts a target route.  Fire-and-forget.
type Navigator interface {
	Navigate(route string)
}

// Outbox collects notifications and the last navigation target for one
// request.  It satisfies both Sink and Navigator.
type Outbox struct {
	mu       sync.Mutex
	toasts   []Notification
	redirect string

	feed   *Feed
	userID string
	now    func() time.Time
}

// NewOutbox returns an empty Outbox.  When feed is non-nil every
// notification is also recorded there for userID.
func NewOutbox(feed *Feed, userID string) *Outbox {
	return &Outbox{feed: feed, userID: userID, now: time.Now}
}

// Notify records a toast.
func (o *Outbox) Notify(level Level, text string) {
	n := Notification{Level: level, Text: text, At: o.now().UTC()}
	o.mu.Lock()
	o.toasts = append(o.toasts, n)
	o.mu.Unlock()
	if o.feed != nil && o.userID != "" {
		o.feed.Push(o.userID, n)
	}
}

// Navigate records route as the redirect target.
func (o *Outbox) Navigate(route string) {
	o.mu.Lock()
	o.redirect = route
	o.mu.Unlock()
}

// Drain returns and clears everything collected so far.
func (o *Outbox) Drain() (toasts []Notification, redirect string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	toasts, redirect = o.toasts, o.redirect
	o.toasts, o.redirect = nil, ""
	return toasts, redirect
}
