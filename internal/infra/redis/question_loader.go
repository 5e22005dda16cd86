// Package redis loads the question bank from a Redis key holding the full
// JSON array of records, for deployments that stage question content there.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-match-service/internal/app"
)

// QuestionLoader reads the bank from a single key.
type QuestionLoader struct {
	client *redis.Client
	key    string
}

func NewQuestionLoader(client *redis.Client, key string) *QuestionLoader {
	if key == "" {
		key = "trivia:questions"
	}
	return &QuestionLoader{client: client, key: key}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]app.QuestionRecord, error) {
	data, err := l.client.Get(ctx, l.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("questions key %q not found", l.key)
	}
	if err != nil {
		return nil, fmt.Errorf("read questions from redis: %w", err)
	}
	var records []app.QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse questions at %q: %w", l.key, err)
	}
	return records, nil
}
