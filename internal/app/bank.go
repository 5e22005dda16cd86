package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-match-service/internal/domain"
)

// Loader fetches raw question records from a backing store (flat file,
// Postgres, Redis). The bank loads exactly once at startup.
type Loader interface {
	LoadQuestions(ctx context.Context) ([]QuestionRecord, error)
}

// QuestionRecord is the persisted form of a question:
// {question, choices, correct, points}.
type QuestionRecord struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Correct  int      `json:"correct"`
	Points   int      `json:"points"`
}

// Validate rejects records the game could not play.
func (r QuestionRecord) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("empty question text")
	}
	if len(r.Choices) < 2 {
		return fmt.Errorf("need at least 2 choices, got %d", len(r.Choices))
	}
	if r.Correct < 0 || r.Correct >= len(r.Choices) {
		return fmt.Errorf("correct index %d out of range", r.Correct)
	}
	if r.Points <= 0 {
		return fmt.Errorf("points must be positive, got %d", r.Points)
	}
	return nil
}

// QuestionBank is the immutable question set. Draws are serialized so
// concurrent matchmaking can never race the shuffle.
type QuestionBank struct {
	mu        sync.Mutex
	questions []domain.Question
	rnd       *rand.Rand
}

// LoadBank reads all records through the loader, validates them and assigns
// each question a sequential id from the allocator. A load failure is fatal
// to the caller: the server refuses to start without questions.
func LoadBank(ctx context.Context, loader Loader, ids *domain.IDAllocator) (*QuestionBank, error) {
	records, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrNoQuestions
	}

	questions := make([]domain.Question, 0, len(records))
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, domain.Question{
			ID:      ids.Next(),
			Text:    record.Question,
			Choices: record.Choices,
			Correct: record.Correct,
			Points:  record.Points,
		})
	}

	return &QuestionBank{
		questions: questions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// DrawRandomSet picks count distinct questions uniformly at random, in a
// fresh random order per call. When count exceeds the bank size the whole
// bank is returned (shuffled). The underlying slice is never reordered.
func (b *QuestionBank) DrawRandomSet(count int) []domain.Question {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count > len(b.questions) {
		count = len(b.questions)
	}
	if count < 0 {
		count = 0
	}

	drawn := make([]domain.Question, 0, count)
	for _, i := range b.rnd.Perm(len(b.questions))[:count] {
		drawn = append(drawn, b.questions[i])
	}
	return drawn
}

// Size reports how many questions the bank holds.
func (b *QuestionBank) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions)
}
