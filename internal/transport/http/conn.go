package http

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/wire"
)

// wsConn adapts a gorilla websocket connection to the app.Conn contract: one
// JSON object per frame, same schema as the TCP line protocol.
type wsConn struct {
	ws       *websocket.Conn
	inbound  chan wire.Envelope
	done     chan struct{}
	doneOnce sync.Once
	writeMu  sync.Mutex
	log      zerolog.Logger
}

func newWSConn(ws *websocket.Conn, queueCapacity int, log zerolog.Logger) *wsConn {
	if queueCapacity <= 0 {
		queueCapacity = 16
	}
	c := &wsConn{
		ws:      ws,
		inbound: make(chan wire.Envelope, queueCapacity),
		done:    make(chan struct{}),
		log:     log.With().Str("remote", ws.RemoteAddr().String()).Logger(),
	}
	go c.readLoop()
	return c
}

func (c *wsConn) readLoop() {
	defer close(c.inbound)
	defer c.signalDone()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("websocket read ended")
			return
		}
		env, err := wire.Decode(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed packet")
			continue
		}
		select {
		case c.inbound <- env:
		default:
			c.log.Warn().Str("type", env.Type).Msg("inbound queue full, dropping packet")
		}
	}
}

func (c *wsConn) Receive() <-chan wire.Envelope { return c.inbound }

func (c *wsConn) Done() <-chan struct{} { return c.done }

func (c *wsConn) Send(v any) error {
	select {
	case <-c.done:
		return domain.ErrSessionClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close() error {
	c.signalDone()
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *wsConn) signalDone() {
	c.doneOnce.Do(func() { close(c.done) })
}
