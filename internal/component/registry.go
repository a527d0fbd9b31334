// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot, main calls Init()
// on every component that implements Initializer, runs the collected
// Migrations(), and lets every component add its Routes() to the shared
// “/api” router behind the authentication middleware.  Components add
// routes to one router, rather than each mounting its own, because their
// paths interleave (“/donors/{id}” and “/donors/{id}/request”).

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Initializer is optional.  If a Component implements it, boot calls
// Init(svc) once, before Routes.
type Initializer interface {
	Init(Services) error
}

// Component contract.
//
// Migrations() may return nil if the component has no schema changes.
// Routes() adds API endpoints relative to “/api”, e.g:
//
//	func (c *Comp) Routes(r chi.Router) {
//	    r.Get("/donors", c.list)
//	}
type Component interface {
	Name() string
	Routes(r chi.Router)
	Migrations() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so boot order
// and migration order are stable.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Boot initializes every registered component with svc and returns their
// migrations in component order.
func Boot(svc Services) ([]string, error) {
	var stmts []string
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(svc); err != nil {
				return nil, &BootError{Component: c.Name(), Err: err}
			}
		}
		stmts = append(stmts, c.Migrations()...)
	}
	return stmts, nil
}

// Mount adds every component's routes to r.
func Mount(r chi.Router) {
	for _, c := range All() {
		c.Routes(r)
	}
}

// BootError names the component whose Init failed.
type BootError struct {
	Component string
	Err       error
}

func (e *BootError) Error() string { return "component " + e.Component + ": init: " + e.Err.Error() }
func (e *BootError) Unwrap() error { return e.Err }
