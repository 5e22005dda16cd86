package domain

import (
	"fmt"
	"strings"
)

// Question is a single multiple-choice question. Identity is ID alone: two
// questions with the same text but different ids are distinct. Ids are
// assigned once at load time and never reused within a process.
type Question struct {
	ID      int
	Text    string
	Choices []string
	Correct int
	Points  int
}

// Render formats the question the way it is shown to players, with the point
// value and one choice per line.
func (q Question) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d points)\n", q.Text, q.Points)
	for _, choice := range q.Choices {
		b.WriteString(choice)
		b.WriteByte('\n')
	}
	return b.String()
}

// Answer is one player's submission for one round. Seq is the arrival order
// stamped by the round collector; it is what breaks first-correct ties.
type Answer struct {
	QuestionID int
	Choice     int
	PlayerID   int
	Seq        int
}

// Standing is one player's final score line.
type Standing struct {
	PlayerID int
	Name     string
	Score    int
}

// Verdict is the outcome of a finished match. Winners is empty when the top
// score is zero and holds more than one entry on a tie.
type Verdict struct {
	MatchID   int
	Winners   []Standing
	Standings []Standing
}
