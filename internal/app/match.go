package app

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"trivia-match-service/internal/domain"
)

// MatchConfig carries the per-match tunables. Zero values fall back to the
// defaults the game shipped with.
type MatchConfig struct {
	QuestionTime        time.Duration
	BetweenQuestions    time.Duration
	AnswerQueueCapacity int
}

const (
	defaultQuestionTime     = 30 * time.Second
	defaultBetweenQuestions = 3 * time.Second
)

func (c MatchConfig) withDefaults() MatchConfig {
	if c.QuestionTime <= 0 {
		c.QuestionTime = defaultQuestionTime
	}
	if c.BetweenQuestions <= 0 {
		c.BetweenQuestions = defaultBetweenQuestions
	}
	return c
}

// Match states. The only transitions are Forming -> Running (once, via Run)
// and Running -> Finished.
const (
	StateForming int32 = iota
	StateRunning
	StateFinished
)

// Match is one active game: a fixed roster of player sessions racing through
// N rounds of "first correct answer wins". Each match runs on its own
// goroutine, fully independent of other matches.
type Match struct {
	id        int
	cfg       MatchConfig
	state     atomic.Int32
	players   map[int]*PlayerSession
	questions []domain.Question
	log       zerolog.Logger
}

func NewMatch(id int, questions []domain.Question, cfg MatchConfig, log zerolog.Logger) *Match {
	return &Match{
		id:        id,
		cfg:       cfg.withDefaults(),
		players:   make(map[int]*PlayerSession),
		questions: questions,
		log:       log.With().Int("match", id).Logger(),
	}
}

func (m *Match) ID() int { return m.id }

// State reports the current lifecycle state.
func (m *Match) State() int32 { return m.state.Load() }

// AddPlayer attaches a session to the roster. Only the matchmaker calls this,
// and only while the match is forming.
func (m *Match) AddPlayer(p *PlayerSession) {
	if m.state.Load() != StateForming {
		m.log.Error().Int("player", p.ID()).Msg("refusing roster change after start")
		return
	}
	p.SetRoundTimeout(m.cfg.QuestionTime)
	m.players[p.ID()] = p
	m.log.Info().Int("player", p.ID()).Str("name", p.Name()).Msg("player added to match")
}

// Run executes the full round loop and returns the final verdict. It
// transitions Forming -> Running exactly once; a second call is a no-op.
// Player failures never abort the match: a dead connection just contributes
// no answers and misses its broadcasts.
func (m *Match) Run(ctx context.Context) domain.Verdict {
	if !m.state.CompareAndSwap(StateForming, StateRunning) {
		m.log.Error().Msg("match already started")
		return domain.Verdict{MatchID: m.id}
	}
	m.log.Info().Int("players", len(m.players)).Int("questions", len(m.questions)).Msg("match started")
	m.broadcast("You were added to a match.\nMatch is starting...")

	for _, question := range m.questions {
		// Inter-question pause so players can read the previous result.
		if !m.pause(ctx, m.cfg.BetweenQuestions) {
			break
		}
		m.playRound(ctx, question)
	}

	verdict := m.finalVerdict()
	m.announce(verdict)
	m.state.Store(StateFinished)
	m.log.Info().Msg("match ended")

	// Roster released: players are not reused after the match.
	for _, p := range m.players {
		_ = p.Close()
	}
	return verdict
}

func (m *Match) pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// playRound runs one question-answer-resolution cycle: fan the question out
// to every player, collect submissions until the roster has responded or the
// round timer fires, then credit the first correct submission.
func (m *Match) playRound(ctx context.Context, question domain.Question) {
	m.log.Debug().Int("question", question.ID).Msg("round started")

	answers := m.collectAnswers(ctx, question)
	winning := firstCorrect(question, answers)

	result := fmt.Sprintf("Correct answer is: %d\n", question.Correct)
	if winning == nil {
		result += "No correct answers. Points don't go to anyone."
	} else {
		winner := m.players[winning.PlayerID]
		winner.AddPoints(question.Points)
		result += fmt.Sprintf("%s got %d points for this question.", winner.Name(), question.Points)
		m.log.Debug().Int("player", winner.ID()).Int("points", question.Points).Msg("round won")
	}
	m.broadcast(result)
}

// collectAnswers fans out AskQuestion to every roster player on its own
// goroutine and gathers submissions in arrival order. Every round gets a
// fresh collector channel, so pending answers are implicitly cleared and a
// late answer for a closed round can never leak into a later one. The
// channel is buffered for the whole roster, so straggler goroutines finish
// without leaking even after the round has moved on.
func (m *Match) collectAnswers(ctx context.Context, question domain.Question) []domain.Answer {
	capacity := m.cfg.AnswerQueueCapacity
	if capacity < len(m.players) {
		capacity = len(m.players)
	}
	pending := make(chan *domain.Answer, capacity)

	for _, p := range m.players {
		go func(p *PlayerSession) {
			pending <- p.AskQuestion(question)
		}(p)
	}

	timer := time.NewTimer(m.cfg.QuestionTime)
	defer timer.Stop()

	var collected []domain.Answer
	seq := 0
	for responded := 0; responded < len(m.players); {
		select {
		case answer := <-pending:
			responded++
			if answer == nil {
				// Timeout or disconnect: the expected no-answer outcome.
				continue
			}
			answer.Seq = seq
			seq++
			collected = append(collected, *answer)
		case <-timer.C:
			return collected
		case <-ctx.Done():
			return collected
		}
	}
	return collected
}

// firstCorrect returns the earliest-arriving correct submission for the
// current question, or nil when nobody got it. Submissions carrying another
// question id are stale and never considered.
func firstCorrect(question domain.Question, answers []domain.Answer) *domain.Answer {
	for i := range answers {
		if answers[i].QuestionID != question.ID {
			continue
		}
		if answers[i].Choice == question.Correct {
			return &answers[i]
		}
	}
	return nil
}

// finalVerdict ranks the roster by score. Only a strictly highest non-zero
// score wins; an all-zero board has no winners and a shared top score is a
// tie.
func (m *Match) finalVerdict() domain.Verdict {
	standings := make([]domain.Standing, 0, len(m.players))
	for _, p := range m.players {
		standings = append(standings, domain.Standing{PlayerID: p.ID(), Name: p.Name(), Score: p.Score()})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].PlayerID < standings[j].PlayerID
	})

	var winners []domain.Standing
	if len(standings) > 0 && standings[0].Score > 0 {
		for _, s := range standings {
			if s.Score != standings[0].Score {
				break
			}
			winners = append(winners, s)
		}
	}
	return domain.Verdict{MatchID: m.id, Winners: winners, Standings: standings}
}

func (m *Match) announce(verdict domain.Verdict) {
	switch {
	case len(verdict.Winners) == 0:
		m.broadcast("Everyone loses")
	case len(verdict.Winners) > 1:
		m.broadcast("It's a tie!")
	default:
		m.broadcast(verdict.Winners[0].Name + " wins!")
	}
}

func (m *Match) broadcast(content string) {
	for _, p := range m.players {
		p.SendMessage(content)
	}
}
