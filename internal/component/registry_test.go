package component

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubComp struct {
	name    string
	path    string
	stmts   []string
	initErr error
	inited  bool
}

func (s *stubComp) Name() string         { return s.name }
func (s *stubComp) Migrations() []string { return s.stmts }
func (s *stubComp) Init(Services) error  { s.inited = true; return s.initErr }
func (s *stubComp) Routes(r chi.Router) {
	r.Get(s.path, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func withRegistry(t *testing.T, comps ...Component) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = map[string]Component{}
	mu.Unlock()
	for _, c := range comps {
		Register(c)
	}
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
	})
}

func TestBootAndMount(t *testing.T) {
	b := &stubComp{name: "b", path: "/b/{id}", stmts: []string{"B1"}}
	a := &stubComp{name: "a", path: "/b/{id}/a", stmts: []string{"A1", "A2"}}
	withRegistry(t, b, a)

	stmts, err := Boot(&Bundle{})
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if len(stmts) != 3 || stmts[0] != "A1" || stmts[2] != "B1" {
		t.Errorf("migrations = %v, want name order", stmts)
	}
	if !a.inited || !b.inited {
		t.Error("Init not called")
	}

	r := chi.NewRouter()
	Mount(r)
	for _, p := range []string{"/b/1", "/b/1/a"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusNoContent {
			t.Errorf("%s: %d", p, rr.Code)
		}
	}
}

func TestBoot_InitError(t *testing.T) {
	boom := errors.New("boom")
	withRegistry(t, &stubComp{name: "bad", path: "/x", initErr: boom})
	_, err := Boot(&Bundle{})
	var be *BootError
	if !errors.As(err, &be) || be.Component != "bad" || !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
