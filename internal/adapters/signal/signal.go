package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/app"
	"github.com/dkeye/Collab/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller upgrades HTTP requests into signal WebSockets and feeds
// decoded envelopes to the coordinator.
type Controller struct {
	Coord   *app.Coordinator
	Limiter *JoinRateLimiter

	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewController(coord *app.Coordinator, limiter *JoinRateLimiter, readLimit int64, pingPeriod time.Duration, sendBuffer int) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Controller{
		Coord:      coord,
		Limiter:    limiter,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
		sendBuffer: sendBuffer,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ct := c.GetString("client_token")
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("ct", ct).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Connect(cid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, ct, conn)
}
