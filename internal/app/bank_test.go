package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-match-service/internal/domain"
)

type loaderFunc func(ctx context.Context) ([]QuestionRecord, error)

func (f loaderFunc) LoadQuestions(ctx context.Context) ([]QuestionRecord, error) {
	return f(ctx)
}

func staticLoader(records []QuestionRecord) Loader {
	return loaderFunc(func(context.Context) ([]QuestionRecord, error) {
		return records, nil
	})
}

func testRecords(n int) []QuestionRecord {
	records := make([]QuestionRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, QuestionRecord{
			Question: fmt.Sprintf("question %d", i),
			Choices:  []string{"a", "b", "c"},
			Correct:  i % 3,
			Points:   10,
		})
	}
	return records
}

func TestLoadBankAssignsSequentialIDs(t *testing.T) {
	bank, err := LoadBank(context.Background(), staticLoader(testRecords(4)), domain.NewIDAllocator())
	require.NoError(t, err)
	require.Equal(t, 4, bank.Size())

	for i, q := range bank.questions {
		assert.Equal(t, i, q.ID)
	}
}

func TestLoadBankRejectsBadRecords(t *testing.T) {
	cases := map[string]QuestionRecord{
		"empty text":        {Choices: []string{"a", "b"}, Correct: 0, Points: 1},
		"one choice":        {Question: "q", Choices: []string{"a"}, Correct: 0, Points: 1},
		"correct oob":       {Question: "q", Choices: []string{"a", "b"}, Correct: 2, Points: 1},
		"negative correct":  {Question: "q", Choices: []string{"a", "b"}, Correct: -1, Points: 1},
		"zero points":       {Question: "q", Choices: []string{"a", "b"}, Correct: 0, Points: 0},
	}
	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBank(context.Background(), staticLoader([]QuestionRecord{record}), domain.NewIDAllocator())
			assert.Error(t, err)
		})
	}
}

func TestLoadBankEmptyIsFatal(t *testing.T) {
	_, err := LoadBank(context.Background(), staticLoader(nil), domain.NewIDAllocator())
	require.ErrorIs(t, err, domain.ErrNoQuestions)
}

func TestLoadBankWrapsLoaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := LoadBank(context.Background(), loaderFunc(func(context.Context) ([]QuestionRecord, error) {
		return nil, boom
	}), domain.NewIDAllocator())
	require.ErrorIs(t, err, boom)
}

func TestDrawRandomSetDistinct(t *testing.T) {
	bank, err := LoadBank(context.Background(), staticLoader(testRecords(10)), domain.NewIDAllocator())
	require.NoError(t, err)

	drawn := bank.DrawRandomSet(4)
	require.Len(t, drawn, 4)
	seen := make(map[int]bool)
	for _, q := range drawn {
		assert.False(t, seen[q.ID], "duplicate question id %d", q.ID)
		seen[q.ID] = true
	}
}

func TestDrawRandomSetClampsToBankSize(t *testing.T) {
	bank, err := LoadBank(context.Background(), staticLoader(testRecords(3)), domain.NewIDAllocator())
	require.NoError(t, err)

	drawn := bank.DrawRandomSet(50)
	require.Len(t, drawn, 3)
}

func TestDrawRandomSetDoesNotMutateBank(t *testing.T) {
	bank, err := LoadBank(context.Background(), staticLoader(testRecords(8)), domain.NewIDAllocator())
	require.NoError(t, err)

	bank.DrawRandomSet(8)
	bank.DrawRandomSet(8)
	for i, q := range bank.questions {
		assert.Equal(t, i, q.ID, "bank order changed at %d", i)
	}
}

func TestDrawRandomSetShufflesOrder(t *testing.T) {
	bank, err := LoadBank(context.Background(), staticLoader(testRecords(12)), domain.NewIDAllocator())
	require.NoError(t, err)

	// Two draws of the full bank should differ in order with overwhelming
	// probability; retry a few times to keep the test honest rather than flaky.
	first := ids(bank.DrawRandomSet(12))
	for attempt := 0; attempt < 5; attempt++ {
		if !assert.ObjectsAreEqual(first, ids(bank.DrawRandomSet(12))) {
			return
		}
	}
	t.Fatal("five full draws in identical order")
}

func ids(questions []domain.Question) []int {
	out := make([]int, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}
