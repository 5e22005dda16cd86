package app

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/wire"
)

// silent marks a script entry whose player never answers that round.
const silent = -2

type scriptedAnswer struct {
	choice int
	delay  time.Duration
}

// scriptConn is an in-memory Conn whose client side plays from a script: one
// entry per question received, each delivered after its delay. Everything the
// server sends is recorded for assertions.
type scriptConn struct {
	mu                sync.Mutex
	inbound           chan wire.Envelope
	done              chan struct{}
	closed            bool
	script            []scriptedAnswer
	prompts           int
	closeAfterPrompts int
	sent              []any
}

func newScriptConn(name string, script ...scriptedAnswer) *scriptConn {
	c := &scriptConn{
		inbound: make(chan wire.Envelope, 16),
		done:    make(chan struct{}),
		script:  script,
	}
	if name != "" {
		c.inbound <- wire.Envelope{Type: wire.TypeName, Name: name}
	}
	return c
}

func (c *scriptConn) Receive() <-chan wire.Envelope { return c.inbound }

func (c *scriptConn) Done() <-chan struct{} { return c.done }

func (c *scriptConn) RemoteAddr() string { return "script" }

func (c *scriptConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	c.sent = append(c.sent, v)

	if _, ok := v.(wire.Prompt); !ok {
		return nil
	}
	c.prompts++
	if c.closeAfterPrompts > 0 && c.prompts > c.closeAfterPrompts {
		c.closeLocked()
		return domain.ErrSessionClosed
	}
	if len(c.script) == 0 {
		return nil
	}
	entry := c.script[0]
	c.script = c.script[1:]
	if entry.choice == silent {
		return nil
	}
	go func() {
		time.Sleep(entry.delay)
		choice := entry.choice
		select {
		case c.inbound <- wire.Envelope{Type: wire.TypeAnswer, Answer: &choice}:
		case <-c.done:
		}
	}()
	return nil
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *scriptConn) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// disconnect simulates the peer going away: Receive closes. Only safe when
// no scripted answer is still in flight.
func (c *scriptConn) disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	close(c.inbound)
}

func (c *scriptConn) push(env wire.Envelope) {
	c.inbound <- env
}

func (c *scriptConn) notices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.sent {
		if n, ok := v.(wire.Notice); ok {
			out = append(out, n.Content)
		}
	}
	return out
}

func (c *scriptConn) responses() []wire.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []wire.Response
	for _, v := range c.sent {
		if r, ok := v.(wire.Response); ok {
			out = append(out, r)
		}
	}
	return out
}

func newTestSession(t *testing.T, id int, name string, conn *scriptConn) *PlayerSession {
	t.Helper()
	session := NewPlayerSession(id, conn, zerolog.Nop())
	if name != "" {
		require.NoError(t, session.PerformHandshake(time.Second))
	}
	return session
}
