package registry

import "testing"

type fakeConn struct{ id int }

func (f *fakeConn) Send(interface{}) error { return nil }

func TestInsertAndGet(t *testing.T) {
	r := New()
	c := &fakeConn{id: 1}

	r.Insert(111, c, "Europe/Berlin")

	got, ok := r.Get(111)
	if !ok || got != c {
		t.Fatal("Get did not return the inserted connection")
	}
	if tz, ok := r.TimeZone(111); !ok || tz != "Europe/Berlin" {
		t.Fatalf("TimeZone = %q, %v", tz, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestInsertReplacesPreviousConnection(t *testing.T) {
	r := New()
	old := &fakeConn{id: 1}
	replacement := &fakeConn{id: 2}

	r.Insert(111, old, "")
	r.Insert(111, replacement, "")

	got, _ := r.Get(111)
	if got != replacement {
		t.Fatal("second Insert did not replace the connection")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestRemoveIsGuardedByConnIdentity(t *testing.T) {
	r := New()
	old := &fakeConn{id: 1}
	replacement := &fakeConn{id: 2}

	r.Insert(111, old, "")
	r.Insert(111, replacement, "")

	// The stale session's teardown must not evict the newer connection, and
	// Remove must say so, the caller skips its offline bookkeeping on false.
	if r.Remove(111, old) {
		t.Fatal("stale Remove reported an eviction")
	}
	if got, ok := r.Get(111); !ok || got != replacement {
		t.Fatal("stale Remove evicted the newer connection")
	}

	if !r.Remove(111, replacement) {
		t.Fatal("matching Remove reported no eviction")
	}
	if _, ok := r.Get(111); ok {
		t.Fatal("matching Remove did not evict the connection")
	}
}

func TestRemoveNilConnEvictsUnconditionally(t *testing.T) {
	r := New()
	r.Insert(111, &fakeConn{}, "UTC")

	r.Remove(111, nil)
	if _, ok := r.Get(111); ok {
		t.Fatal("Remove with nil conn did not evict")
	}
	if _, ok := r.TimeZone(111); ok {
		t.Fatal("time zone survived eviction")
	}
}

func TestEach(t *testing.T) {
	r := New()
	r.Insert(1, &fakeConn{}, "")
	r.Insert(2, &fakeConn{}, "")

	seen := map[int64]bool{}
	r.Each(func(phone int64, _ Conn) { seen[phone] = true })

	if !seen[1] || !seen[2] || len(seen) != 2 {
		t.Fatalf("Each visited %v", seen)
	}
}
