// Package tcp is the original line-protocol dispatcher: it accepts
// connections on a fixed port, runs the handshake on a goroutine per
// connection and hands surviving sessions to the matchmaker.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// Config carries the dispatcher tunables.
type Config struct {
	Addr                 string
	HandshakeTimeout     time.Duration
	InboundQueueCapacity int
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	return c
}

// Server accepts player connections and feeds the matchmaker. A handshake in
// progress never blocks the accept loop.
type Server struct {
	cfg        Config
	matchmaker *app.Matchmaker
	playerIDs  *domain.IDAllocator
	listener   net.Listener
	log        zerolog.Logger
}

func NewServer(cfg Config, matchmaker *app.Matchmaker, playerIDs *domain.IDAllocator, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg.withDefaults(),
		matchmaker: matchmaker,
		playerIDs:  playerIDs,
		log:        log.With().Str("component", "tcp").Logger(),
	}
}

// Listen binds the port. Split from Serve so tests can learn the bound
// address before serving.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	s.log.Info().Str("addr", listener.Addr().String()).Msg("tcp dispatcher listening")
	return nil
}

// Addr returns the bound address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.handle(raw)
	}
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handle(raw net.Conn) {
	conn := NewConn(raw, s.cfg.InboundQueueCapacity, s.log)
	session := app.NewPlayerSession(s.playerIDs.Next(), conn, s.log)

	if err := session.PerformHandshake(s.cfg.HandshakeTimeout); err != nil {
		s.log.Warn().Err(err).Str("remote", conn.RemoteAddr()).Msg("handshake failed")
		_ = conn.Close()
		return
	}
	s.log.Info().Int("player", session.ID()).Str("name", session.Name()).Msg("player connected")

	if err := s.matchmaker.Enqueue(session); err != nil {
		session.SendMessage("Server is full, try again later.")
		s.log.Warn().Err(err).Int("player", session.ID()).Msg("rejecting player")
		_ = conn.Close()
	}
}
