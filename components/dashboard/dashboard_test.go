package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/backend"
	"github.com/plasmapioneers/portal/internal/component"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/notify"
)

func newHandler(t *testing.T, u auth.User, feed *notify.Feed) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/u1/donor", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":{"id":"d1","userId":"u1","name":"Rahim"}}`)
	})
	mux.HandleFunc("/users/u2/donor", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"message":"no donor"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	bc, err := backend.New(backend.Options{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	cache := donor.New(bc, donor.Options{EvictInterval: time.Hour})
	t.Cleanup(cache.Close)

	c := &Component{}
	if err := c.Init(&component.Bundle{Donors: cache, Feed: feed}); err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), u)))
		})
	})
	c.Routes(r)
	return r
}

func getShell(t *testing.T, h http.Handler) (int, shellView) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	var v shellView
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
			t.Fatal(err)
		}
	}
	return rr.Code, v
}

// waitStatus polls the shell until the donor status settles on want.
func waitStatus(t *testing.T, h http.Handler, want donor.Status) shellView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, v := getShell(t, h)
		if v.Donor.Status == want {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("donor status = %v, want %v", v.Donor.Status, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShell_UserWithDonor(t *testing.T) {
	h := newHandler(t, auth.User{ID: "u1", Role: auth.RoleUser}, nil)

	code, v := getShell(t, h)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if v.Branding.Name != "Plasma Pioneers" || v.User.ID != "u1" {
		t.Errorf("shell = %+v", v)
	}
	if len(v.Sidebar) != 5 || v.Sidebar[3].Path != "/donner-list" {
		t.Errorf("sidebar = %+v", v.Sidebar)
	}

	v = waitStatus(t, h, donor.Present)
	if v.Donor.Donor == nil || v.Donor.Donor.Name != "Rahim" {
		t.Errorf("donor = %+v", v.Donor)
	}
}

func TestShell_AdminWithoutDonor(t *testing.T) {
	h := newHandler(t, auth.User{ID: "u2", Role: auth.RoleAdmin}, nil)
	v := waitStatus(t, h, donor.Absent)
	if v.Donor.Donor != nil {
		t.Errorf("absent donor carried a record: %+v", v.Donor.Donor)
	}
	if len(v.Sidebar) != 4 || v.Sidebar[1].Title != "Manage Users" {
		t.Errorf("sidebar = %+v", v.Sidebar)
	}
}

func TestShell_UnknownRole(t *testing.T) {
	h := newHandler(t, auth.User{ID: "u3", Role: "GUEST"}, nil)
	if code, _ := getShell(t, h); code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", code)
	}
}

func TestNotifications(t *testing.T) {
	feed := notify.NewFeed(4, 4)
	out := notify.NewOutbox(feed, "u1")
	out.Notify(notify.Error, "Request failed")
	out.Notify(notify.Info, "Request sent successfully")

	h := newHandler(t, auth.User{ID: "u1", Role: auth.RoleUser}, feed)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/notifications", nil))

	var body struct {
		Data []notify.Notification `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || body.Data[0].Text != "Request sent successfully" {
		t.Errorf("data = %+v", body.Data)
	}
}
