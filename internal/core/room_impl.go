package core

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/domain"
)

// memberRecord pairs a member's meta with every live connection backing it.
// A record with an empty conns map must not exist; RemoveConn deletes it.
type memberRecord struct {
	member *domain.Member
	conns  map[ConnID]SignalConnection
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	key domain.RoomKey

	mu     sync.RWMutex
	byConn map[ConnID]*memberRecord
	order  []*memberRecord // admission order, drives presence ordering
	buffer string
	lang   string
}

func NewRoomService(key domain.RoomKey) RoomService {
	return &roomImpl{
		key:    key,
		byConn: make(map[ConnID]*memberRecord),
	}
}

func (r *roomImpl) Key() domain.RoomKey { return r.key }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func (r *roomImpl) Admit(name string, cid ConnID, conn SignalConnection) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.nameFreeLocked(name, "") {
		return nil, ErrNameTaken
	}
	member, err := domain.NewMember(name)
	if err != nil {
		return nil, err
	}
	rec := &memberRecord{
		member: member,
		conns:  map[ConnID]SignalConnection{cid: conn},
	}
	r.byConn[cid] = rec
	r.order = append(r.order, rec)
	log.Info().Str("module", "core.room").Str("room", string(r.key)).
		Str("cid", string(cid)).Str("name", name).Msg("member admitted")
	return member, nil
}

func (r *roomImpl) Attach(id domain.MemberID, name string, cid ConnID, conn SignalConnection) (*domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.order {
		if rec.member.ID != id {
			continue
		}
		if !strings.EqualFold(rec.member.Name, name) {
			return nil, false
		}
		rec.conns[cid] = conn
		r.byConn[cid] = rec
		log.Info().Str("module", "core.room").Str("room", string(r.key)).
			Str("cid", string(cid)).Str("member", string(id)).Msg("connection attached")
		return rec.member, true
	}
	return nil, false
}

func (r *roomImpl) RemoveConn(cid ConnID) (*domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byConn[cid]
	if !ok {
		return nil, false
	}
	delete(r.byConn, cid)
	delete(rec.conns, cid)
	if len(rec.conns) > 0 {
		return nil, false
	}
	for i, other := range r.order {
		if other == rec {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.key)).
		Str("cid", string(cid)).Str("name", rec.member.Name).Msg("member departed")
	return rec.member, true
}

func (r *roomImpl) NameFree(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameFreeLocked(name, "")
}

func (r *roomImpl) nameFreeLocked(name string, exceptID domain.MemberID) bool {
	for _, rec := range r.order {
		if rec.member.ID == exceptID {
			continue
		}
		if strings.EqualFold(rec.member.Name, name) {
			return false
		}
	}
	return true
}

func (r *roomImpl) MemberOf(cid ConnID) (*domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.byConn[cid]; ok {
		return rec.member, true
	}
	return nil, false
}

func (r *roomImpl) SetSignalingID(cid ConnID, sig string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byConn[cid]
	if !ok {
		return false
	}
	rec.member.SignalingID = sig
	return true
}

func (r *roomImpl) Buffer() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buffer, r.lang
}

// SetBuffer overwrites the shared text, last writer wins. No merge.
func (r *roomImpl) SetBuffer(text, language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = text
	r.lang = language
}

// MembersSnapshot recomputes presence from current state, never patches.
// Deduplicated case-insensitively by name, admission order preserved.
func (r *roomImpl) MembersSnapshot() []MemberView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberView, 0, len(r.order))
	seen := make(map[string]struct{}, len(r.order))
	for _, rec := range r.order {
		lower := strings.ToLower(rec.member.Name)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, MemberView{
			ID:          rec.member.ID,
			Name:        rec.member.Name,
			SignalingID: rec.member.SignalingID,
		})
	}
	return out
}

func (r *roomImpl) Broadcast(except ConnID, f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for cid, rec := range r.byConn {
		if cid == except {
			continue
		}
		if err := rec.conns[cid].TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.key)).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) SendTo(cid ConnID, f Frame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byConn[cid]
	if !ok {
		return ErrUnknownConn
	}
	return rec.conns[cid].TrySend(f)
}
