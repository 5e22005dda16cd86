// Package file loads the question bank from a flat JSON file, the default
// source: an array of {question, choices, correct, points} records.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"trivia-match-service/internal/app"
)

type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]app.QuestionRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var records []app.QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse questions file %s: %w", l.path, err)
	}
	return records, nil
}
