package dashboard

import (
	"testing"

	"github.com/plasmapioneers/portal/internal/auth"
)

func TestSidebarItems(t *testing.T) {
	admin := SidebarItems(auth.RoleAdmin)
	user := SidebarItems(auth.RoleUser)
	if len(admin) == 0 || len(user) == 0 {
		t.Fatal("known roles must have items")
	}
	if admin[0].Path != "/dashboard/admin" || user[0].Path != "/dashboard/user" {
		t.Errorf("first items: %+v, %+v", admin[0], user[0])
	}
	for _, role := range []string{"", "GUEST"} {
		if SidebarItems(role) != nil {
			t.Errorf("role %q has items", role)
		}
	}

	user[0].Title = "changed"
	if SidebarItems(auth.RoleUser)[0].Title == "changed" {
		t.Error("SidebarItems returned shared backing array")
	}
}
