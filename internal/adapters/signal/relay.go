package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/core"
	"github.com/dkeye/Collab/internal/protocol"
)

func (ctl *Controller) handleEdit(cid core.ConnID, c *wsConn, data []byte) {
	var p protocol.EditPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad edit payload")
		_ = c.TrySend(protocol.Error("bad_payload"))
		return
	}
	ctl.Coord.OnEdit(cid, p.Text, p.Language)
}

func (ctl *Controller) handleChat(cid core.ConnID, c *wsConn, data []byte) {
	var p protocol.ChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		_ = c.TrySend(protocol.Error("bad_payload"))
		return
	}
	if p.Text == "" {
		return
	}
	ctl.Coord.OnChat(cid, p.Text)
}

func (ctl *Controller) handleAnnounce(cid core.ConnID, c *wsConn, data []byte) {
	var p protocol.AnnouncePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad announce payload")
		_ = c.TrySend(protocol.Error("bad_payload"))
		return
	}
	if p.SignalingID == "" {
		_ = c.TrySend(protocol.Error("empty signaling id"))
		return
	}
	ctl.Coord.OnAnnounce(cid, p.SignalingID)
}
