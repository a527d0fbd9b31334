// Package dashboard builds the role-dependent data behind the dashboard
// shell: branding, and the sidebar links each role may follow.
package dashboard

import "github.com/plasmapioneers/portal/internal/auth"

// Item is one sidebar link.  Icon names a frontend icon component.
type Item struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// Branding is the shell header block.
type Branding struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// DefaultBranding is shown on every dashboard page.
var DefaultBranding = Branding{Name: "Plasma Pioneers", Logo: "/assets/icons/logo.png"}

var sidebar = map[string][]Item{
	auth.RoleAdmin: {
		{Title: "Dashboard", Path: "/dashboard/admin", Icon: "Home"},
		{Title: "Manage Users", Path: "/dashboard/admin/manage-users", Icon: "Users"},
		{Title: "Donation Requests", Path: "/dashboard/admin/donation-requests", Icon: "Package"},
		{Title: "Profile", Path: "/dashboard/admin/profile", Icon: "CircleUser"},
	},
	auth.RoleUser: {
		{Title: "Dashboard", Path: "/dashboard/user", Icon: "Home"},
		{Title: "My Requests", Path: "/dashboard/user/my-requests", Icon: "Package"},
		{Title: "Requests For Me", Path: "/dashboard/user/requests-for-me", Icon: "Bell"},
		{Title: "Donor List", Path: "/donner-list", Icon: "Search"},
		{Title: "Profile", Path: "/dashboard/user/profile", Icon: "CircleUser"},
	},
}

// SidebarItems returns role's links in display order, or nil for an
// unknown or empty role.  The slice is a copy.
func SidebarItems(role string) []Item {
	items, ok := sidebar[role]
	if !ok {
		return nil
	}
	return append([]Item(nil), items...)
}
