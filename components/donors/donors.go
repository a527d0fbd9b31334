// components/donors/donors.go
//
// Donors component – donor list, donor detail, and the caller's own
// donor profile.
//
// Context
//   The list is proxied to the backend uncached because its filters make
//   every page unique.  Single donors go through the donor cache.
//
// Routes (under /api)
//   GET /donors               ?bloodType&location&availability&searchTerm&page&limit
//   GET /donors/{donorID}
//   GET /me/donor             → {status, donor}
//
//------------------------------------------------------------------------------

package donors

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plasmapioneers/portal/internal/acl"
	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/backend"
	"github.com/plasmapioneers/portal/internal/component"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/logger"
)

// Compile-time assertions.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// maxLimit caps the page size a client may ask for.
const maxLimit = 100

// Component serves donor reads.
type Component struct {
	backend *backend.Client
	donors  *donor.Cache
	policy  acl.Policy
}

func (c *Component) Name() string         { return "donors" }
func (c *Component) Migrations() []string { return nil }

// Init captures the backend client and donor cache.
func (c *Component) Init(svc component.Services) error {
	c.backend = svc.GetBackend()
	c.donors = svc.GetDonors()
	c.policy = svc.GetPolicy()
	if c.policy == nil {
		c.policy = acl.DefaultPolicy
	}
	if c.backend == nil || c.donors == nil {
		return errors.New("backend client and donor cache are required")
	}
	return nil
}

// Routes adds the donor endpoints.
func (c *Component) Routes(r chi.Router) {
	r.With(acl.RequirePermission(c.policy, "donors", "list")).Get("/donors", c.list)
	r.With(acl.RequirePermission(c.policy, "donors", "read")).Get("/donors/{donorID}", c.get)
	r.Get("/me/donor", c.me)
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := backend.DonorFilter{
		BloodType:    q.Get("bloodType"),
		Location:     q.Get("location"),
		Availability: q.Get("availability"),
		SearchTerm:   q.Get("searchTerm"),
	}
	var err error
	if f.Page, err = intParam(q.Get("page"), 1); err != nil {
		component.WriteError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	if f.Limit, err = intParam(q.Get("limit"), 10); err != nil || f.Limit > maxLimit {
		component.WriteError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	switch f.Availability {
	case "", "true", "false":
	default:
		component.WriteError(w, r, http.StatusBadRequest, "availability must be true or false")
		return
	}

	data, meta, err := c.backend.Donors(r.Context(), auth.TokenFrom(r.Context()), f)
	if err != nil {
		backendError(w, r, err)
		return
	}
	component.WriteJSON(w, r, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "donorID")
	d, st, err := c.donors.ByID(r.Context(), auth.TokenFrom(r.Context()), id)
	if err != nil {
		backendError(w, r, err)
		return
	}
	if st == donor.Absent {
		component.WriteError(w, r, http.StatusNotFound, "donor not found")
		return
	}
	component.WriteJSON(w, r, http.StatusOK, d)
}

func (c *Component) me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	d, st, err := c.donors.ByUser(r.Context(), auth.TokenFrom(r.Context()), u.ID)
	if err != nil {
		backendError(w, r, err)
		return
	}
	body := map[string]any{"status": st}
	if st == donor.Present {
		body["donor"] = d
	}
	component.WriteJSON(w, r, http.StatusOK, body)
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}

// backendError maps a backend failure to a reply.  4xx statuses from the
// backend pass through; everything else is a 502.
func backendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		component.WriteError(w, r, apiErr.Status, apiErr.Message)
		return
	}
	logger.FromContext(r.Context()).Warnw("backend read failed", "path", r.URL.Path, "err", err)
	component.WriteError(w, r, http.StatusBadGateway, "donor service unavailable")
}
