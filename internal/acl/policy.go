// internal/acl/policy.go
//
// Role-based access rules.
//
// Context
// -------
// Roles arrive in the access token (ADMIN, USER), so there is no role table
// to query.  Grants are a static map from role to component/action pairs
// that components check through RequirePermission.
//
// Notes
// -----
// • Unknown roles are denied everything.
// • Oxford commas, two spaces after periods.
package acl

import "github.com/plasmapioneers/portal/internal/auth"

// Grant names one permitted component/action pair.
type Grant struct {
	Component string
	Action    string
}

// Policy maps role name → permitted grants.
type Policy map[string]map[Grant]struct{}

// NewPolicy builds a Policy from role → grants.
func NewPolicy(rules map[string][]Grant) Policy {
	p := make(Policy, len(rules))
	for role, gs := range rules {
		set := make(map[Grant]struct{}, len(gs))
		for _, g := range gs {
			set[g] = struct{}{}
		}
		p[role] = set
	}
	return p
}

// RoleAllowed reports whether role is permitted for component + action.
func (p Policy) RoleAllowed(role, component, action string) bool {
	_, ok := p[role][Grant{component, action}]
	return ok
}

// DefaultPolicy is the portal's built-in rule set.  Both roles may browse
// donors and send requests; only admins may list every donor record.
var DefaultPolicy = NewPolicy(map[string][]Grant{
	auth.RoleAdmin: {
		{"donors", "read"},
		{"donors", "list"},
		{"request", "submit"},
		{"dashboard", "view"},
	},
	auth.RoleUser: {
		{"donors", "read"},
		{"donors", "list"},
		{"request", "submit"},
		{"dashboard", "view"},
	},
})
