package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/domain"
	"github.com/dkeye/Collab/internal/protocol"
)

// Coordinator runs the room lifecycle: admission, buffer sync, chat and
// signaling relay, presence and disconnect cleanup. Adapters decode the
// wire and call in; all state mutation funnels through here.
type Coordinator struct {
	Registry *Registry
	Rooms    *RoomStore
	Policy   Policy

	// PresenceInterval drives the per-room self-healing member-list
	// rebroadcast. Zero disables it.
	PresenceInterval time.Duration
}

// Connect binds a fresh transport connection before any join.
func (c *Coordinator) Connect(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	c.Registry.Bind(cid, conn, cancel)
}

// Join admits a connection into a room. With a member token it attaches
// to the existing record (explicit reconnect / second tab); otherwise a
// fresh identity is created and a case-insensitive name collision is
// rejected. Rejections reach only the requesting connection and mutate
// nothing.
func (c *Coordinator) Join(cid core.ConnID, key domain.RoomKey, name string, memberID domain.MemberID) {
	conn, ok := c.Registry.Conn(cid)
	if !ok {
		return
	}
	if _, joined := c.Registry.RoomOf(cid); joined {
		c.leaveRoom(cid)
		log.Info().Str("module", "app.coordinator").Str("cid", string(cid)).Msg("left previous room on join")
	}

	room, roomCtx, created := c.Rooms.GetOrCreate(key)

	var member *domain.Member
	attached := false
	if memberID != "" {
		member, attached = room.Attach(memberID, name, cid, conn)
	}
	if member == nil {
		var err error
		member, err = room.Admit(name, cid, conn)
		if err != nil {
			if created {
				c.Rooms.Remove(key)
			}
			log.Info().Str("module", "app.coordinator").Str("cid", string(cid)).
				Str("room", string(key)).Str("name", name).Msg("join rejected")
			_ = conn.TrySend(protocol.JoinRejected(key, name))
			return
		}
	}

	c.Registry.SetRoom(cid, key)
	if created {
		go c.presenceLoop(roomCtx, room)
	}

	_ = conn.TrySend(protocol.Joined(key, member.ID, room.MemberCount()))
	if !attached {
		c.applyPolicy(room, room.Broadcast(cid, protocol.MemberJoined(member.Name)))
	}
	c.broadcastPresence(room)
	if !created {
		text, lang := room.Buffer()
		if err := room.SendTo(cid, protocol.BufferSync(text, lang)); err != nil {
			log.Debug().Err(err).Str("module", "app.coordinator").Str("cid", string(cid)).Msg("buffer catch-up")
		}
	}
}

// OnEdit overwrites the shared buffer and fans the new value out to
// every other connection in the room. Last writer wins, no ack.
func (c *Coordinator) OnEdit(cid core.ConnID, text, language string) {
	room, ok := c.roomOf(cid)
	if !ok {
		return
	}
	room.SetBuffer(text, language)
	c.applyPolicy(room, room.Broadcast(cid, protocol.BufferSync(text, language)))
}

// OnChat stamps the message server-side and relays it to everyone else.
// The sender's own copy is optimistic; no echo.
func (c *Coordinator) OnChat(cid core.ConnID, text string) {
	room, ok := c.roomOf(cid)
	if !ok {
		return
	}
	member, ok := room.MemberOf(cid)
	if !ok {
		return
	}
	msg := domain.ChatMessage{
		ID:         uuid.NewString(),
		Text:       text,
		Sender:     member.Name,
		SenderConn: string(cid),
		Timestamp:  time.Now().UTC(),
	}
	c.applyPolicy(room, room.Broadcast(cid, protocol.ChatBroadcast(msg)))
}

// OnAnnounce records a peer's signaling id and rebroadcasts the member
// list so every peer discovers the new address. The id stays opaque.
func (c *Coordinator) OnAnnounce(cid core.ConnID, signalingID string) {
	room, ok := c.roomOf(cid)
	if !ok {
		return
	}
	if !room.SetSignalingID(cid, signalingID) {
		return
	}
	c.broadcastPresence(room)
}

// OnPresenceRefresh recomputes and rebroadcasts the member list on demand.
func (c *Coordinator) OnPresenceRefresh(cid core.ConnID) {
	room, ok := c.roomOf(cid)
	if !ok {
		return
	}
	c.broadcastPresence(room)
}

// Leave detaches the connection from its room without closing the
// transport; it can join another room afterwards.
func (c *Coordinator) Leave(cid core.ConnID) {
	c.leaveRoom(cid)
	if conn, ok := c.Registry.Conn(cid); ok {
		_ = conn.TrySend(protocol.Left())
	}
}

// OnDisconnect runs transport-level cleanup. Safe to call repeatedly.
func (c *Coordinator) OnDisconnect(cid core.ConnID) {
	c.leaveRoom(cid)
	c.Registry.Unbind(cid)
}

// NameFree answers the advisory uniqueness pre-check. A missing room
// means any name is free; the authoritative check stays at join time.
func (c *Coordinator) NameFree(key domain.RoomKey, name string) bool {
	room, ok := c.Rooms.Get(key)
	if !ok {
		return true
	}
	return room.NameFree(name)
}

func (c *Coordinator) leaveRoom(cid core.ConnID) {
	key, ok := c.Registry.RoomOf(cid)
	if !ok {
		return
	}
	c.Registry.ClearRoom(cid)
	room, ok := c.Rooms.Get(key)
	if !ok {
		return
	}
	departed, gone := room.RemoveConn(cid)
	if !gone {
		// The identity is still present via another connection; no
		// user-visible departure.
		return
	}
	c.applyPolicy(room, room.Broadcast("", protocol.MemberLeft(departed.Name)))
	c.broadcastPresence(room)
	if room.MemberCount() == 0 {
		c.Rooms.Remove(key)
	}
}

func (c *Coordinator) broadcastPresence(room core.RoomService) {
	frame := protocol.MemberList(room.Key(), room.MembersSnapshot())
	c.applyPolicy(room, room.Broadcast("", frame))
}

func (c *Coordinator) presenceLoop(ctx context.Context, room core.RoomService) {
	if c.PresenceInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.PresenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.broadcastPresence(room)
		}
	}
}

func (c *Coordinator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if c.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch c.Policy.OnBackPressure(room, slow) {
		case KickConn:
			log.Warn().Str("module", "app.coordinator").Str("cid", string(slow)).
				Str("room", string(room.Key())).Msg("kicking slow connection")
			c.Registry.Cancel(slow)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}

func (c *Coordinator) roomOf(cid core.ConnID) (core.RoomService, bool) {
	key, ok := c.Registry.RoomOf(cid)
	if !ok {
		return nil, false
	}
	return c.Rooms.Get(key)
}
