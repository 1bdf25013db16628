package core

import "github.com/dkeye/Collab/internal/domain"

// Frame is an encoded payload ready for the wire.
type Frame []byte

// ConnID identifies one live transport connection. Two browser tabs are
// two ConnIDs even when they back the same member.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the coordinator.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// MemberView is a read-only presence entry (no transport fields).
type MemberView struct {
	ID          domain.MemberID `json:"id"`
	Name        string          `json:"name"`
	SignalingID string          `json:"signaling_id,omitempty"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set and the shared buffer but never touches
// transport resources beyond TrySend.
type RoomService interface {
	Key() domain.RoomKey
	MemberCount() int
	ConnCount() int

	// Admit creates a fresh identity for a new connection, enforcing
	// case-insensitive display-name uniqueness. Nothing is mutated on
	// ErrNameTaken.
	Admit(name string, cid ConnID, conn SignalConnection) (*domain.Member, error)

	// Attach binds another connection to an existing member record,
	// provided id and name match. Used for explicit reconnects.
	Attach(id domain.MemberID, name string, cid ConnID, conn SignalConnection) (*domain.Member, bool)

	// RemoveConn detaches a connection. The returned member is non-nil
	// only when its last connection departed and the record was deleted.
	// Unknown ids are a no-op.
	RemoveConn(cid ConnID) (departed *domain.Member, gone bool)

	NameFree(name string) bool
	MemberOf(cid ConnID) (*domain.Member, bool)
	SetSignalingID(cid ConnID, sig string) bool

	Buffer() (text, language string)
	SetBuffer(text, language string)

	MembersSnapshot() []MemberView
	Broadcast(except ConnID, f Frame) PublishResult
	SendTo(cid ConnID, f Frame) error
}

type RoomInfo struct {
	Key         domain.RoomKey `json:"key"`
	MemberCount int            `json:"member_count"`
	ConnCount   int            `json:"conn_count"`
}
