package app

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	canceled := false
	r.Bind("c1", conn, func() { canceled = true })

	if got, ok := r.Conn("c1"); !ok || got != conn {
		t.Fatal("bound connection should be retrievable")
	}
	if _, ok := r.RoomOf("c1"); ok {
		t.Fatal("fresh connection has no room")
	}

	if !r.SetRoom("c1", "r1") {
		t.Fatal("set room on bound connection")
	}
	if key, ok := r.RoomOf("c1"); !ok || key != "r1" {
		t.Fatalf("room of c1 = %q ok=%v", key, ok)
	}

	r.ClearRoom("c1")
	if _, ok := r.RoomOf("c1"); ok {
		t.Fatal("room association should be cleared")
	}

	if !r.Cancel("c1") || !canceled {
		t.Fatal("cancel should run the bound cancel func")
	}

	r.Unbind("c1")
	if _, ok := r.Conn("c1"); ok {
		t.Fatal("unbound connection should be gone")
	}

	t.Run("unknown ids are no-ops", func(t *testing.T) {
		if r.SetRoom("ghost", "r1") {
			t.Fatal("set room on unknown conn must fail")
		}
		if r.Cancel("ghost") {
			t.Fatal("cancel on unknown conn must report false")
		}
		r.ClearRoom("ghost")
		r.Unbind("ghost")
	})
}
