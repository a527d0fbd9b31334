package cache

import "testing"

func TestLRU_EvictsOldest(t *testing.T) {
	c := New[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRU_UpdateAndRemove(t *testing.T) {
	c := New[int, string](4)
	c.Add(1, "x")
	c.Add(1, "y")
	if v, _ := c.Get(1); v != "y" {
		t.Errorf("Get(1) = %q, want y", v)
	}
	if !c.Remove(1) || c.Remove(1) {
		t.Error("Remove should succeed once")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after remove", c.Len())
	}
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New[string, string](0)
}
