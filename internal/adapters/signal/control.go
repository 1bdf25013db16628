package signal

import "github.com/dkeye/Collab/internal/protocol"

func (ctl *Controller) handlePing(c *wsConn) {
	_ = c.TrySend(protocol.Pong())
}
