package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/domain"
)

type roomEntry struct {
	room   core.RoomService
	cancel context.CancelFunc
}

// RoomStore owns room lifetimes: a room is created on first join and
// deleted the instant membership reaches zero. Each room gets a child
// context that dies with it, so per-room timers never leak.
type RoomStore struct {
	ctx   context.Context
	mu    sync.RWMutex
	rooms map[domain.RoomKey]*roomEntry
}

func NewRoomStore(parent context.Context) *RoomStore {
	return &RoomStore{
		ctx:   parent,
		rooms: make(map[domain.RoomKey]*roomEntry),
	}
}

func (s *RoomStore) Get(key domain.RoomKey) (core.RoomService, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.rooms[key]; ok {
		return e.room, true
	}
	return nil, false
}

// GetOrCreate returns the room for key, creating it when absent. The
// returned context is the room's lifetime; created reports whether this
// call brought the room into existence.
func (s *RoomStore) GetOrCreate(key domain.RoomKey) (room core.RoomService, roomCtx context.Context, created bool) {
	s.mu.RLock()
	e, ok := s.rooms[key]
	s.mu.RUnlock()
	if ok {
		return e.room, s.ctx, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.rooms[key]; ok {
		return e.room, s.ctx, false
	}
	roomCtx, cancel := context.WithCancel(s.ctx)
	e = &roomEntry{room: core.NewRoomService(key), cancel: cancel}
	s.rooms[key] = e
	log.Info().Str("module", "app.store").Str("room", string(key)).Msg("room created")
	return e.room, roomCtx, true
}

// Remove destroys the room and cancels its context. A room that picked
// up a member since the caller observed it empty is left alone.
func (s *RoomStore) Remove(key domain.RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rooms[key]
	if !ok {
		return
	}
	if e.room.MemberCount() > 0 {
		return
	}
	delete(s.rooms, key)
	e.cancel()
	log.Info().Str("module", "app.store").Str("room", string(key)).Msg("room destroyed")
}

func (s *RoomStore) List() []core.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(s.rooms))
	for key, e := range s.rooms {
		out = append(out, core.RoomInfo{
			Key:         key,
			MemberCount: e.room.MemberCount(),
			ConnCount:   e.room.ConnCount(),
		})
	}
	return out
}
