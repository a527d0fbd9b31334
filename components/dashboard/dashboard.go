// components/dashboard/dashboard.go
//
// Dashboard component – the shell around every signed-in page.
//
// Context
//   The shell needs branding, the caller's identity, the sidebar for their
//   role, and whether they already have a donor profile.  The profile check
//   never blocks: it reads whatever the donor cache holds and, on a cold
//   cache, reports "loading" while a background fetch warms it.
//
// Routes (under /api)
//   GET /dashboard                  → {branding, user, sidebar, donor}
//   GET /dashboard/notifications    → recent toasts, newest first
//
//------------------------------------------------------------------------------

package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plasmapioneers/portal/internal/acl"
	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/component"
	"github.com/plasmapioneers/portal/internal/dashboard"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/logger"
	"github.com/plasmapioneers/portal/internal/notify"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// Component serves the dashboard shell.
type Component struct {
	donors *donor.Cache
	feed   *notify.Feed
	policy acl.Policy
}

func (c *Component) Name() string         { return "dashboard" }
func (c *Component) Migrations() []string { return nil }

func (c *Component) Init(svc component.Services) error {
	c.donors = svc.GetDonors()
	c.feed = svc.GetFeed()
	c.policy = svc.GetPolicy()
	if c.policy == nil {
		c.policy = acl.DefaultPolicy
	}
	if c.donors == nil {
		return errors.New("donor cache is required")
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequirePermission(c.policy, "dashboard", "view"))
		r.Get("/dashboard", c.shell)
		r.Get("/dashboard/notifications", c.notifications)
	})
}

func init() { component.Register(&Component{}) }

type donorView struct {
	Status donor.Status `json:"status"`
	Donor  *donor.Donor `json:"donor,omitempty"`
}

type shellView struct {
	Branding dashboard.Branding `json:"branding"`
	User     auth.User          `json:"user"`
	Sidebar  []dashboard.Item   `json:"sidebar"`
	Donor    donorView          `json:"donor"`
}

func (c *Component) shell(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())

	dn, st := c.donors.Peek(u.ID)
	if st == donor.Loading {
		c.warm(r.Context(), u.ID)
	}
	v := shellView{
		Branding: dashboard.DefaultBranding,
		User:     u,
		Sidebar:  dashboard.SidebarItems(u.Role),
		Donor:    donorView{Status: st},
	}
	if st == donor.Present {
		v.Donor.Donor = &dn
	}
	component.WriteJSON(w, r, http.StatusOK, v)
}

// warm starts a detached fetch of userID's donor so the next shell call
// sees it.  The cache collapses concurrent fetches for the same key.
func (c *Component) warm(ctx context.Context, userID string) {
	if c.donors.Loading(userID) {
		return
	}
	token := auth.TokenFrom(ctx)
	log := logger.FromContext(ctx)
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, _, err := c.donors.ByUser(bg, token, userID); err != nil {
			log.Warnw("donor warm-up failed", "user", userID, "err", err)
		}
	}()
}

func (c *Component) notifications(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	var items []notify.Notification
	if c.feed != nil {
		items = c.feed.Recent(u.ID)
	}
	if items == nil {
		items = []notify.Notification{}
	}
	component.WriteJSON(w, r, http.StatusOK, map[string]any{"data": items})
}
