package request

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/notify"
)

func TestDrafts_PerUserAndDonor(t *testing.T) {
	ds := NewDrafts(8, Deps{Reader: &fakeReader{}, Writer: &fakeWriter{}}, nil)
	alice, bob := auth.User{ID: "alice"}, auth.User{ID: "bob"}

	a1 := ds.Open(alice, "d1")
	if err := a1.UpdateField(FieldReason, "Surgery"); err != nil {
		t.Fatal(err)
	}
	if again := ds.Open(alice, "d1"); again != a1 {
		t.Error("Open returned a different draft for the same pair")
	}
	if ds.Open(alice, "d2") == a1 || ds.Open(bob, "d1") == a1 {
		t.Error("drafts shared across donors or users")
	}
	if ds.Open(bob, "d1").Fields().Reason != "" {
		t.Error("bob sees alice's fields")
	}
	if ds.Len() != 3 {
		t.Errorf("Len = %d, want 3", ds.Len())
	}
}

func TestDrafts_SubmitDiscardsOnSuccess(t *testing.T) {
	feed := notify.NewFeed(4, 4)
	w := &fakeWriter{err: context.DeadlineExceeded}
	ds := NewDrafts(8, Deps{Reader: &fakeReader{}, Writer: w}, feed)
	u := auth.User{ID: "u1"}

	d := ds.Open(u, "d1")
	fill(t, d.Controller, validInput())

	out, box := ds.Submit(context.Background(), d)
	if out.Result != ResultFailed {
		t.Fatalf("first = %+v", out)
	}
	if _, ok := ds.Peek("u1", "d1"); !ok {
		t.Fatal("failed draft discarded")
	}
	toasts, _ := box.Drain()
	if len(toasts) != 1 || toasts[0].Text != MsgFailed {
		t.Errorf("toasts = %+v", toasts)
	}

	w.err, w.result = nil, json.RawMessage(`{"id":"r1"}`)
	if out, _ := ds.Submit(context.Background(), d); out.Result != ResultSucceeded {
		t.Fatalf("retry = %+v", out)
	}
	if _, ok := ds.Peek("u1", "d1"); ok {
		t.Error("succeeded draft kept")
	}
	if fresh := ds.Open(u, "d1"); fresh.Fields() != (Input{}) || fresh.State() != StateEditing {
		t.Errorf("reopened draft not empty: %+v", fresh.Fields())
	}

	recent := feed.Recent("u1")
	if len(recent) != 2 || recent[0].Text != MsgSucceeded {
		t.Errorf("feed = %+v", recent)
	}
}

func TestDrafts_ToastsBelongToTheirSubmit(t *testing.T) {
	w := &fakeWriter{
		result:  json.RawMessage(`{"id":"r1"}`),
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	ds := NewDrafts(8, Deps{Reader: &fakeReader{}, Writer: w}, nil)
	d := ds.Open(auth.User{ID: "u1"}, "d1")
	fill(t, d.Controller, validInput())

	type result struct {
		out Outcome
		box *notify.Outbox
	}
	done := make(chan result)
	go func() {
		out, box := ds.Submit(context.Background(), d)
		done <- result{out, box}
	}()
	<-w.entered

	busy, busyBox := ds.Submit(context.Background(), d)
	if busy.Result != ResultBusy {
		t.Fatalf("second = %+v, want busy", busy)
	}
	close(w.block)
	first := <-done

	if toasts, redirect := busyBox.Drain(); len(toasts) != 0 || redirect != "" {
		t.Errorf("busy submit got %+v %q", toasts, redirect)
	}
	toasts, redirect := first.box.Drain()
	if first.out.Result != ResultSucceeded || len(toasts) != 1 || redirect != DonorListRoute {
		t.Errorf("first = %+v toasts = %+v redirect = %q", first.out, toasts, redirect)
	}
}
