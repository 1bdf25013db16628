package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/domain"
)

type connEntry struct {
	RoomKey domain.RoomKey
	Conn    core.SignalConnection
	Cancel  context.CancelFunc
}

// Registry indexes live connections: conn id -> room key + transport +
// cancel. Pure bookkeeping; room membership stays the source of truth
// and unknown ids are no-ops everywhere.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

func (r *Registry) Bind(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("bound connection")
}

func (r *Registry) Unbind(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unbound connection")
}

func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// SetRoom registers the connection into a room's index entry.
func (r *Registry) SetRoom(cid core.ConnID, key domain.RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.RoomKey = key
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("room", string(key)).Msg("registered in room")
	return true
}

// RoomOf looks up the room a connection is registered to.
func (r *Registry) RoomOf(cid core.ConnID) (domain.RoomKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.RoomKey == "" {
		return "", false
	}
	return e.RoomKey, true
}

func (r *Registry) ClearRoom(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.RoomKey = ""
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("removed room association")
}

func (r *Registry) Cancel(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
