// Package protocol defines the JSON envelopes exchanged with clients.
// Every frame carries a "type" discriminator.
package protocol

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/domain"
)

const (
	// inbound
	TypeJoin     = "join"
	TypeEdit     = "edit"
	TypeChat     = "chat"
	TypeAnnounce = "announce"
	TypePresence = "presence"
	TypePing     = "ping"
	TypeLeave    = "leave"

	// outbound
	TypeJoined       = "joined"
	TypeJoinRejected = "join_rejected"
	TypeBufferSync   = "buffer_sync"
	TypeMemberList   = "member_list"
	TypeChatMessage  = "chat"
	TypeMemberJoined = "member_joined"
	TypeMemberLeft   = "member_left"
	TypeLeft         = "left"
	TypePong         = "pong"
	TypeError        = "error"
)

// ReasonNameTaken is the only admission rejection the service produces.
const ReasonNameTaken = "name_taken"

// Envelope is the minimal inbound frame, enough to dispatch on.
type Envelope struct {
	Type string `json:"type"`
}

type JoinPayload struct {
	Type   string `json:"type"`
	Room   string `json:"room"`
	Name   string `json:"name"`
	Member string `json:"member,omitempty"`
}

type EditPayload struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type ChatPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnnouncePayload struct {
	Type        string `json:"type"`
	SignalingID string `json:"signaling_id"`
}

type JoinedEvent struct {
	Type   string          `json:"type"`
	Room   domain.RoomKey  `json:"room"`
	Member domain.MemberID `json:"member"`
	Count  int             `json:"count"`
}

type JoinRejectedEvent struct {
	Type   string         `json:"type"`
	Reason string         `json:"reason"`
	Name   string         `json:"name"`
	Room   domain.RoomKey `json:"room"`
}

type BufferSyncEvent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type MemberListEvent struct {
	Type    string            `json:"type"`
	Room    domain.RoomKey    `json:"room"`
	Members []core.MemberView `json:"members"`
	Count   int               `json:"count"`
}

type ChatEvent struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type MemberEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func Joined(room domain.RoomKey, member domain.MemberID, count int) core.Frame {
	return marshal(JoinedEvent{Type: TypeJoined, Room: room, Member: member, Count: count})
}

func JoinRejected(room domain.RoomKey, name string) core.Frame {
	return marshal(JoinRejectedEvent{Type: TypeJoinRejected, Reason: ReasonNameTaken, Name: name, Room: room})
}

func BufferSync(text, language string) core.Frame {
	return marshal(BufferSyncEvent{Type: TypeBufferSync, Text: text, Language: language})
}

func MemberList(room domain.RoomKey, members []core.MemberView) core.Frame {
	return marshal(MemberListEvent{Type: TypeMemberList, Room: room, Members: members, Count: len(members)})
}

func ChatBroadcast(msg domain.ChatMessage) core.Frame {
	return marshal(ChatEvent{Type: TypeChatMessage, Message: msg})
}

func MemberJoined(name string) core.Frame {
	return marshal(MemberEvent{Type: TypeMemberJoined, Name: name})
}

func MemberLeft(name string) core.Frame {
	return marshal(MemberEvent{Type: TypeMemberLeft, Name: name})
}

func Left() core.Frame {
	return marshal(Envelope{Type: TypeLeft})
}

func Pong() core.Frame {
	return marshal(Envelope{Type: TypePong})
}

func Error(msg string) core.Frame {
	return marshal(ErrorEvent{Type: TypeError, Error: msg})
}

func marshal(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "protocol").Msg("marshal frame")
		return nil
	}
	return b
}
