package app

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/wire"
)

// Conn is one player's connection, transport-agnostic. Implementations run a
// reader pump that delivers decoded packets on the Receive channel and close
// it when the connection dies. Send must be safe for concurrent use. Done is
// closed once the connection is gone, whichever side ended it.
type Conn interface {
	Receive() <-chan wire.Envelope
	Send(v any) error
	Done() <-chan struct{}
	Close() error
	RemoteAddr() string
}

// PlayerSession wraps one connection with the game protocol. It is owned by
// at most one match at a time; the score is only ever mutated by that match's
// round loop.
type PlayerSession struct {
	id           int
	name         string
	score        int
	conn         Conn
	roundTimeout time.Duration
	log          zerolog.Logger
}

func NewPlayerSession(id int, conn Conn, log zerolog.Logger) *PlayerSession {
	return &PlayerSession{
		id:   id,
		conn: conn,
		log:  log.With().Int("player", id).Logger(),
	}
}

// PerformHandshake waits for the name packet and acknowledges it. On any
// failure a negative response is sent best-effort and the caller must
// abandon the session.
func (s *PlayerSession) PerformHandshake(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env, ok := <-s.conn.Receive():
		if !ok {
			return domain.ErrHandshakeFailed
		}
		name := strings.TrimSpace(env.Name)
		if env.Type != wire.TypeName || name == "" {
			_ = s.conn.Send(wire.NewResponse(false))
			return domain.ErrHandshakeFailed
		}
		s.name = name
		if err := s.conn.Send(wire.NewResponse(true)); err != nil {
			return domain.ErrHandshakeFailed
		}
		return nil
	case <-timer.C:
		_ = s.conn.Send(wire.NewResponse(false))
		return domain.ErrHandshakeFailed
	}
}

// SendMessage delivers a free-text notice best-effort. A broken connection
// is logged, never raised: the match treats the player as unreachable.
func (s *PlayerSession) SendMessage(content string) {
	if err := s.conn.Send(wire.NewNotice(content)); err != nil {
		s.log.Debug().Err(err).Msg("dropping notice to unreachable player")
	}
}

// SetRoundTimeout configures the wait used by subsequent AskQuestion calls.
func (s *PlayerSession) SetRoundTimeout(d time.Duration) {
	s.roundTimeout = d
}

// AskQuestion sends the question and blocks until an answer arrives, the
// connection dies or the round timeout elapses. Timeout and disconnect are
// the expected no-answer outcome and return nil, not an error. Packets other
// than an answer are logged and skipped.
func (s *PlayerSession) AskQuestion(q domain.Question) *domain.Answer {
	s.discardBuffered()
	if err := s.conn.Send(wire.NewPrompt(q.Render())); err != nil {
		s.log.Debug().Err(err).Msg("could not deliver question")
		return nil
	}

	timer := time.NewTimer(s.roundTimeout)
	defer timer.Stop()

	for {
		select {
		case env, ok := <-s.conn.Receive():
			if !ok {
				return nil
			}
			if env.Type != wire.TypeAnswer || env.Answer == nil {
				s.log.Debug().Str("type", env.Type).Msg("ignoring unexpected packet")
				continue
			}
			if *env.Answer < 0 {
				// Explicit pass from the client.
				return nil
			}
			return &domain.Answer{QuestionID: q.ID, Choice: *env.Answer, PlayerID: s.id}
		case <-timer.C:
			return nil
		}
	}
}

// discardBuffered empties the inbound queue before a new prompt goes out. An
// answer that arrived after its round closed is still sitting there; consuming
// it later would misapply it to the question being asked.
func (s *PlayerSession) discardBuffered() {
	for {
		select {
		case env, ok := <-s.conn.Receive():
			if !ok {
				return
			}
			s.log.Debug().Str("type", env.Type).Msg("discarding packet from a closed round")
		default:
			return
		}
	}
}

// Closed reports whether the underlying connection has gone away.
func (s *PlayerSession) Closed() bool {
	select {
	case <-s.conn.Done():
		return true
	default:
		return false
	}
}

// Close tears down the underlying connection.
func (s *PlayerSession) Close() error {
	return s.conn.Close()
}

func (s *PlayerSession) ID() int { return s.id }

func (s *PlayerSession) Name() string { return s.name }

func (s *PlayerSession) Score() int { return s.score }

// AddPoints credits the player. Only the owning match's round loop calls
// this, so no locking is needed.
func (s *PlayerSession) AddPoints(points int) {
	s.score += points
}
