package app

import (
	"context"

	"github.com/rs/zerolog"

	"trivia-match-service/internal/domain"
)

// MatchmakerConfig tunes matchmaking. Zero values fall back to a game size
// of 2 and a waiting queue of 100, matching the original deployment.
type MatchmakerConfig struct {
	GameSize      int
	QueueCapacity int
	Match         MatchConfig
	// QuestionsPerMatch is how many questions each new match draws.
	QuestionsPerMatch int
}

const (
	defaultGameSize          = 2
	defaultQueueCapacity     = 100
	defaultQuestionsPerMatch = 5
)

func (c MatchmakerConfig) withDefaults() MatchmakerConfig {
	if c.GameSize <= 0 {
		c.GameSize = defaultGameSize
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = defaultQueueCapacity
	}
	if c.QuestionsPerMatch <= 0 {
		c.QuestionsPerMatch = defaultQuestionsPerMatch
	}
	return c
}

// Matchmaker groups waiting sessions into matches. The waiting queue is a
// buffered channel drained by a single consumer goroutine, so roster
// assembly is serialized by construction: two matches can never seat the
// same session and a match never starts short.
type Matchmaker struct {
	cfg     MatchmakerConfig
	bank    *QuestionBank
	queue   chan *PlayerSession
	matchID *domain.IDAllocator
	log     zerolog.Logger

	// startMatch is swapped out by tests to observe launches.
	startMatch func(ctx context.Context, m *Match)
}

func NewMatchmaker(bank *QuestionBank, cfg MatchmakerConfig, log zerolog.Logger) *Matchmaker {
	cfg = cfg.withDefaults()
	mm := &Matchmaker{
		cfg:     cfg,
		bank:    bank,
		queue:   make(chan *PlayerSession, cfg.QueueCapacity),
		matchID: domain.NewIDAllocator(),
		log:     log.With().Str("component", "matchmaker").Logger(),
	}
	mm.startMatch = func(ctx context.Context, m *Match) {
		go m.Run(ctx)
	}
	return mm
}

// Enqueue appends a session to the waiting queue and tells the player it is
// waiting. When the queue is at capacity it returns ErrQueueFull so the
// dispatcher can push back instead of dropping the session silently.
func (mm *Matchmaker) Enqueue(session *PlayerSession) error {
	select {
	case mm.queue <- session:
		session.SendMessage("Waiting for other players...")
		mm.log.Info().Int("player", session.ID()).Str("name", session.Name()).Msg("player queued")
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Run drains the waiting queue until the context ends, launching a match
// every time a full roster is seated. Event-driven: it blocks on the queue
// rather than polling it.
func (mm *Matchmaker) Run(ctx context.Context) error {
	roster := make([]*PlayerSession, 0, mm.cfg.GameSize)
	for {
		select {
		case <-ctx.Done():
			// A half-assembled roster will never be seated; release the
			// players instead of stranding their connections.
			for _, session := range roster {
				_ = session.Close()
			}
			return ctx.Err()
		case session := <-mm.queue:
			if session.Closed() {
				// Left while waiting; seating it would start a dead match.
				mm.log.Debug().Int("player", session.ID()).Msg("discarding session that left the queue")
				_ = session.Close()
				continue
			}
			roster = append(roster, session)
			if len(roster) < mm.cfg.GameSize {
				continue
			}
			mm.launch(ctx, roster)
			roster = make([]*PlayerSession, 0, mm.cfg.GameSize)
		}
	}
}

func (mm *Matchmaker) launch(ctx context.Context, roster []*PlayerSession) {
	match := NewMatch(mm.matchID.Next(), mm.bank.DrawRandomSet(mm.cfg.QuestionsPerMatch), mm.cfg.Match, mm.log)
	for _, session := range roster {
		match.AddPlayer(session)
	}
	mm.log.Info().Int("match", match.ID()).Int("players", len(roster)).Msg("match created")
	mm.startMatch(ctx, match)
}
