package tcp

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/wire"
)

// Conn adapts a raw TCP connection speaking newline-delimited JSON to the
// app.Conn contract. A reader pump decodes inbound lines onto a buffered
// channel; malformed packets are logged and dropped, never fatal.
type Conn struct {
	raw      net.Conn
	inbound  chan wire.Envelope
	done     chan struct{}
	doneOnce sync.Once
	writeMu  sync.Mutex
	log      zerolog.Logger
}

// NewConn wraps raw and starts its reader pump. queueCapacity bounds how many
// undelivered inbound packets are held; past that, new packets are dropped
// with a warning rather than blocking the pump.
func NewConn(raw net.Conn, queueCapacity int, log zerolog.Logger) *Conn {
	if queueCapacity <= 0 {
		queueCapacity = 16
	}
	c := &Conn{
		raw:     raw,
		inbound: make(chan wire.Envelope, queueCapacity),
		done:    make(chan struct{}),
		log:     log.With().Str("remote", raw.RemoteAddr().String()).Logger(),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.inbound)
	defer c.signalDone()

	scanner := bufio.NewScanner(c.raw)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := wire.Decode(line)
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
	if err := scanner.Err(); err != nil {
		c.log.Debug().Err(err).Msg("connection read ended")
	}
}

func (c *Conn) Receive() <-chan wire.Envelope { return c.inbound }

func (c *Conn) Done() <-chan struct{} { return c.done }

// Send marshals v and writes it as one line. Safe for concurrent use. Returns
// ErrSessionClosed once the connection is gone.
func (c *Conn) Send(v any) error {
	select {
	case <-c.done:
		return domain.ErrSessionClosed
	default:
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.raw.Write(append(data, '\n'))
	return err
}

func (c *Conn) Close() error {
	c.signalDone()
	return c.raw.Close()
}

func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

func (c *Conn) signalDone() {
	c.doneOnce.Do(func() { close(c.done) })
}
