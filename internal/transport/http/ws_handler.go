// Package http exposes the websocket flavor of the connection dispatcher.
// Browser clients speak the exact same message schema as the TCP transport,
// one JSON object per frame.
package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// Config carries the websocket dispatcher tunables.
type Config struct {
	HandshakeTimeout     time.Duration
	InboundQueueCapacity int
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	return c
}

// WSHandler upgrades HTTP requests and wires the resulting sessions into the
// matchmaker.
type WSHandler struct {
	cfg        Config
	matchmaker *app.Matchmaker
	playerIDs  *domain.IDAllocator
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func NewWSHandler(cfg Config, matchmaker *app.Matchmaker, playerIDs *domain.IDAllocator, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		cfg:        cfg.withDefaults(),
		matchmaker: matchmaker,
		playerIDs:  playerIDs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

// ServeWS upgrades the request and runs the handshake. The handler parks
// until the connection dies (the match closes it at teardown); each upgrade
// runs on its own goroutine, so acceptance is never blocked.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	conn := newWSConn(ws, h.cfg.InboundQueueCapacity, h.log)
	session := app.NewPlayerSession(h.playerIDs.Next(), conn, h.log)

	if err := session.PerformHandshake(h.cfg.HandshakeTimeout); err != nil {
		h.log.Warn().Err(err).Str("remote", conn.RemoteAddr()).Msg("handshake failed")
		_ = conn.Close()
		return
	}
	h.log.Info().Int("player", session.ID()).Str("name", session.Name()).Msg("player connected")

	if err := h.matchmaker.Enqueue(session); err != nil {
		session.SendMessage("Server is full, try again later.")
		h.log.Warn().Err(err).Int("player", session.ID()).Msg("rejecting player")
		_ = conn.Close()
		return
	}

	<-conn.Done()
}

// NewRouter wires the websocket endpoint and a health check.
func NewRouter(handler *WSHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ws", handler.ServeWS)
	return router
}
