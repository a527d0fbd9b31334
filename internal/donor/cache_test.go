// internal/donor/cache_test.go
//
// Unit-tests for the donor cache: singleflight loading, miss caching,
// eviction passes, and a clean shutdown of the evictor goroutine.

package donor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/plasmapioneers/portal/internal/backend"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource serves donors from a map and counts calls.
type fakeSource struct {
	mu     sync.Mutex
	byID   map[string]Donor
	byUser map[string]Donor
	calls  atomic.Int32
	gate   chan struct{} // when non-nil, fetches block until closed
	err    error
}

func (f *fakeSource) Donor(_ context.Context, _, id string, out any) error {
	return f.lookup(f.byID, id, out)
}

func (f *fakeSource) DonorByUser(_ context.Context, _, userID string, out any) error {
	return f.lookup(f.byUser, userID, out)
}

func (f *fakeSource) lookup(m map[string]Donor, key string, out any) error {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	d, ok := m[key]
	if !ok {
		return backend.ErrNotFound
	}
	*out.(*Donor) = d
	return nil
}

func newTestCache(t *testing.T, src Source, opts Options) *Cache {
	t.Helper()
	if opts.EvictInterval == 0 {
		opts.EvictInterval = time.Hour
	}
	opts.Log = zap.NewNop().Sugar()
	c := New(src, opts)
	t.Cleanup(c.Close)
	return c
}

func TestByID_LoadsOnceAndCaches(t *testing.T) {
	src := &fakeSource{byID: map[string]Donor{"d1": {ID: "d1", Name: "Rahim"}}}
	c := newTestCache(t, src, Options{})

	for i := 0; i < 3; i++ {
		d, st, err := c.ByID(context.Background(), "tok", "d1")
		if err != nil || st != Present || d.Name != "Rahim" {
			t.Fatalf("ByID = %+v, %v, %v", d, st, err)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}
}

func TestByUser_SingleflightAndPeek(t *testing.T) {
	src := &fakeSource{
		byUser: map[string]Donor{"u1": {ID: "d9", UserID: "u1"}},
		gate:   make(chan struct{}),
	}
	c := newTestCache(t, src, Options{})

	if _, st := c.Peek("u1"); st != Loading {
		t.Errorf("Peek before fetch = %v, want loading", st)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, st, err := c.ByUser(context.Background(), "tok", "u1"); err != nil || st != Present {
				t.Errorf("ByUser = %v, %v", st, err)
			}
		}()
	}

	deadline := time.Now().Add(time.Second)
	for !c.Loading("u1") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !c.Loading("u1") {
		t.Error("fetch never reported in flight")
	}
	close(src.gate)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}
	if d, st := c.Peek("u1"); st != Present || d.ID != "d9" {
		t.Errorf("Peek after fetch = %+v, %v", d, st)
	}
}

func TestByUser_AbsentIsCachedBriefly(t *testing.T) {
	src := &fakeSource{byUser: map[string]Donor{}}
	c := newTestCache(t, src, Options{AbsentTTL: 20 * time.Millisecond})

	for i := 0; i < 2; i++ {
		if _, st, err := c.ByUser(context.Background(), "", "ghost"); err != nil || st != Absent {
			t.Fatalf("ByUser = %v, %v, want absent", st, err)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 while miss is fresh", n)
	}
	time.Sleep(30 * time.Millisecond)
	c.ByUser(context.Background(), "", "ghost")
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want refetch after AbsentTTL", n)
	}
}

func TestByID_ErrorNotCached(t *testing.T) {
	boom := errors.New("backend down")
	src := &fakeSource{err: boom}
	c := newTestCache(t, src, Options{})

	if _, st, err := c.ByID(context.Background(), "", "d1"); !errors.Is(err, boom) || st != Loading {
		t.Fatalf("ByID = %v, %v", st, err)
	}
	c.ByID(context.Background(), "", "d1")
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d, failures must not be cached", n)
	}
}

// tokenSource rejects the "expired" token and holds its first fetch until
// release is closed.
type tokenSource struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *tokenSource) Donor(context.Context, string, string, any) error { return backend.ErrNotFound }

func (s *tokenSource) DonorByUser(_ context.Context, token, userID string, out any) error {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		<-s.release
	}
	if token == "expired" {
		return &backend.APIError{Op: "donor by user", Status: 401, Message: "jwt expired"}
	}
	*out.(*Donor) = Donor{ID: "d1", UserID: userID}
	return nil
}

func TestByUser_SharedAuthFailureRetriesWithOwnToken(t *testing.T) {
	src := &tokenSource{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestCache(t, src, Options{})

	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.ByUser(context.Background(), "expired", "u1")
		leaderErr <- err
	}()
	<-src.entered

	type res struct {
		st  Status
		err error
	}
	follower := make(chan res, 1)
	go func() {
		_, st, err := c.ByUser(context.Background(), "good", "u1")
		follower <- res{st, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the follower join the flight
	close(src.release)

	if err := <-leaderErr; !backend.IsAuthError(err) {
		t.Errorf("leader err = %v, want 401", err)
	}
	if r := <-follower; r.err != nil || r.st != Present {
		t.Errorf("follower = %v, %v, want present", r.st, r.err)
	}
	if _, st := c.Peek("u1"); st != Present {
		t.Errorf("Peek = %v after retry", st)
	}
}

func TestEvict_IdleAndLRU(t *testing.T) {
	src := &fakeSource{byID: map[string]Donor{"a": {ID: "a"}, "b": {ID: "b"}, "c": {ID: "c"}}}
	c := newTestCache(t, src, Options{MaxEntries: 2, IdleTTL: time.Minute})

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		c.ByID(ctx, "", id)
		time.Sleep(2 * time.Millisecond)
	}

	c.evict(time.Now())
	if _, ok := c.m.Load("id:a"); ok {
		t.Error("oldest entry survived LRU pass")
	}
	if _, ok := c.m.Load("id:c"); !ok {
		t.Error("newest entry evicted")
	}

	c.evict(time.Now().Add(2 * time.Minute))
	n := 0
	c.m.Range(func(any, any) bool { n++; return true })
	if n != 0 {
		t.Errorf("%d entries survived idle pass", n)
	}
}

func TestForget(t *testing.T) {
	src := &fakeSource{byUser: map[string]Donor{"u1": {ID: "d1"}}}
	c := newTestCache(t, src, Options{})
	c.ByUser(context.Background(), "", "u1")
	c.Forget("", "u1")
	if _, st := c.Peek("u1"); st != Loading {
		t.Errorf("Peek after Forget = %v", st)
	}
}

func TestStatus_MarshalText(t *testing.T) {
	for st, want := range map[Status]string{Loading: "loading", Absent: "absent", Present: "present"} {
		if b, _ := st.MarshalText(); string(b) != want {
			t.Errorf("%d → %s, want %s", st, b, want)
		}
	}
}
