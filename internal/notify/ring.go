package notify

import "sync"

// ring is a fixed-size circular buffer of notifications.
type ring struct {
	mu   sync.Mutex
	buf  []Notification
	next int
	full bool
}

func newRing(n int) *ring { return &ring{buf: make([]Notification, n)} }

func (r *ring) push(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = n
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) newestFirst() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := r.next
	if r.full {
		size = len(r.buf)
	}
	out := make([]Notification, 0, size)
	for i := 1; i <= size; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}
