package core

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/dkeye/Collab/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send buffer full")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestAdmit(t *testing.T) {
	room := NewRoomService("r1")

	alice, err := room.Admit("Alice", "c1", &fakeConn{})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if alice.ID == "" || alice.Name != "Alice" {
		t.Fatalf("unexpected member: %+v", alice)
	}

	t.Run("name taken case-insensitively", func(t *testing.T) {
		if _, err := room.Admit("alice", "c2", &fakeConn{}); !errors.Is(err, ErrNameTaken) {
			t.Fatalf("want ErrNameTaken, got %v", err)
		}
		if room.MemberCount() != 1 || room.ConnCount() != 1 {
			t.Fatalf("rejection mutated state: members=%d conns=%d", room.MemberCount(), room.ConnCount())
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		if _, err := room.Admit("", "c3", &fakeConn{}); !errors.Is(err, domain.ErrNameEmpty) {
			t.Fatalf("want ErrNameEmpty, got %v", err)
		}
		long := make([]byte, domain.MaxNameLen+1)
		for i := range long {
			long[i] = 'x'
		}
		if _, err := room.Admit(string(long), "c3", &fakeConn{}); !errors.Is(err, domain.ErrNameTooLong) {
			t.Fatalf("want ErrNameTooLong, got %v", err)
		}
	})
}

func TestAttach(t *testing.T) {
	room := NewRoomService("r1")
	alice, err := room.Admit("alice", "c1", &fakeConn{})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	if _, ok := room.Attach(alice.ID, "Alice", "c2", &fakeConn{}); !ok {
		t.Fatal("attach with matching id and name should succeed")
	}
	if room.MemberCount() != 1 || room.ConnCount() != 2 {
		t.Fatalf("attach state: members=%d conns=%d", room.MemberCount(), room.ConnCount())
	}

	if _, ok := room.Attach("no-such-id", "alice", "c3", &fakeConn{}); ok {
		t.Fatal("attach with unknown id should fail")
	}
	if _, ok := room.Attach(alice.ID, "bob", "c3", &fakeConn{}); ok {
		t.Fatal("attach with mismatched name should fail")
	}
}

func TestRemoveConn(t *testing.T) {
	room := NewRoomService("r1")
	alice, _ := room.Admit("alice", "c1", &fakeConn{})
	room.Attach(alice.ID, "alice", "c2", &fakeConn{})

	if departed, gone := room.RemoveConn("c1"); gone || departed != nil {
		t.Fatalf("member still has a live connection, got departed=%v gone=%v", departed, gone)
	}
	if room.MemberCount() != 1 {
		t.Fatalf("member count = %d, want 1", room.MemberCount())
	}

	departed, gone := room.RemoveConn("c2")
	if !gone || departed == nil || departed.Name != "alice" {
		t.Fatalf("last connection should delete the record, got departed=%v gone=%v", departed, gone)
	}
	if room.MemberCount() != 0 || room.ConnCount() != 0 {
		t.Fatalf("room not empty: members=%d conns=%d", room.MemberCount(), room.ConnCount())
	}

	t.Run("idempotent", func(t *testing.T) {
		if departed, gone := room.RemoveConn("c2"); gone || departed != nil {
			t.Fatal("removing an absent connection must be a no-op")
		}
	})
}

func TestMembersSnapshot(t *testing.T) {
	room := NewRoomService("r1")
	room.Admit("carol", "c1", &fakeConn{})
	room.Admit("bob", "c2", &fakeConn{})
	room.Admit("dave", "c3", &fakeConn{})

	snap := room.MembersSnapshot()
	got := make([]string, 0, len(snap))
	for _, v := range snap {
		got = append(got, v.Name)
	}
	want := []string{"carol", "bob", "dave"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want first-seen %v", got, want)
	}

	t.Run("idempotent", func(t *testing.T) {
		if !reflect.DeepEqual(room.MembersSnapshot(), room.MembersSnapshot()) {
			t.Fatal("two snapshots with no intervening events must match")
		}
	})

	t.Run("keeps order after departure", func(t *testing.T) {
		room.RemoveConn("c2")
		snap := room.MembersSnapshot()
		if len(snap) != 2 || snap[0].Name != "carol" || snap[1].Name != "dave" {
			t.Fatalf("snapshot after departure = %+v", snap)
		}
	})
}

func TestBufferLastWriterWins(t *testing.T) {
	room := NewRoomService("r1")
	room.SetBuffer("x=1", "python")
	room.SetBuffer("x=2", "python")
	text, lang := room.Buffer()
	if text != "x=2" || lang != "python" {
		t.Fatalf("buffer = %q/%q, want x=2/python", text, lang)
	}
}

func TestBroadcast(t *testing.T) {
	room := NewRoomService("r1")
	sender := &fakeConn{}
	healthy := &fakeConn{}
	slow := &fakeConn{fail: true}
	room.Admit("a", "c1", sender)
	room.Admit("b", "c2", healthy)
	room.Admit("c", "c3", slow)

	res := room.Broadcast("c1", Frame(`{"type":"buffer_sync"}`))
	if res.SentTo != 1 {
		t.Fatalf("sent_to = %d, want 1", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "c3" {
		t.Fatalf("dropped = %v, want [c3]", res.Dropped)
	}
	if sender.count() != 0 {
		t.Fatal("sender must not receive its own broadcast")
	}
	if healthy.count() != 1 {
		t.Fatalf("healthy conn got %d frames, want 1", healthy.count())
	}
}

func TestSendTo(t *testing.T) {
	room := NewRoomService("r1")
	conn := &fakeConn{}
	room.Admit("a", "c1", conn)

	if err := room.SendTo("c1", Frame("hi")); err != nil {
		t.Fatalf("send to known conn: %v", err)
	}
	if err := room.SendTo("ghost", Frame("hi")); !errors.Is(err, ErrUnknownConn) {
		t.Fatalf("want ErrUnknownConn, got %v", err)
	}
}
