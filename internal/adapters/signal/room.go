package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/domain"
	"github.com/dkeye/Collab/internal/protocol"
)

func (ctl *Controller) handleJoin(cid core.ConnID, ct string, c *wsConn, data []byte) {
	var p protocol.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		_ = c.TrySend(protocol.Error("bad_payload"))
		return
	}
	if p.Name == "" {
		_ = c.TrySend(protocol.Error("empty name"))
		return
	}
	if p.Room == "" {
		p.Room = "main"
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(ct) {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("ct", ct).Msg("join rate limited")
		_ = c.TrySend(protocol.Error("too_many_join_attempts"))
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(cid)).
		Str("room", p.Room).Str("name", p.Name).Msg("join")
	ctl.Coord.Join(cid, domain.RoomKey(p.Room), p.Name, domain.MemberID(p.Member))
}

// handleLeave detaches from the current room; the socket stays open.
func (ctl *Controller) handleLeave(cid core.ConnID) {
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("leave")
	ctl.Coord.Leave(cid)
}
