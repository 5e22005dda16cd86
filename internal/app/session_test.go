package app

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/wire"
)

func answerEnv(choice int) wire.Envelope {
	return wire.Envelope{Type: wire.TypeAnswer, Answer: &choice}
}

func sampleQuestion() domain.Question {
	return domain.Question{ID: 7, Text: "pick b", Choices: []string{"a", "b"}, Correct: 1, Points: 10}
}

func TestHandshakeAcceptsName(t *testing.T) {
	conn := newScriptConn("Alice")
	session := NewPlayerSession(1, conn, zerolog.Nop())

	require.NoError(t, session.PerformHandshake(time.Second))
	assert.Equal(t, "Alice", session.Name())

	responses := conn.responses()
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Successful)
}

func TestHandshakeRejectsWrongPacket(t *testing.T) {
	conn := newScriptConn("")
	conn.push(answerEnv(2))
	session := NewPlayerSession(1, conn, zerolog.Nop())

	err := session.PerformHandshake(time.Second)
	require.ErrorIs(t, err, domain.ErrHandshakeFailed)

	responses := conn.responses()
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Successful)
}

func TestHandshakeRejectsBlankName(t *testing.T) {
	conn := newScriptConn("   ")
	session := NewPlayerSession(1, conn, zerolog.Nop())

	require.ErrorIs(t, session.PerformHandshake(time.Second), domain.ErrHandshakeFailed)
}

func TestHandshakeTimesOut(t *testing.T) {
	conn := newScriptConn("")
	session := NewPlayerSession(1, conn, zerolog.Nop())

	require.ErrorIs(t, session.PerformHandshake(20*time.Millisecond), domain.ErrHandshakeFailed)
}

func TestAskQuestionReturnsSubmission(t *testing.T) {
	conn := newScriptConn("Alice", scriptedAnswer{choice: 1})
	session := newTestSession(t, 3, "Alice", conn)
	session.SetRoundTimeout(time.Second)

	answer := session.AskQuestion(sampleQuestion())
	require.NotNil(t, answer)
	assert.Equal(t, 7, answer.QuestionID)
	assert.Equal(t, 1, answer.Choice)
	assert.Equal(t, 3, answer.PlayerID)
}

func TestAskQuestionTimeoutIsNoAnswer(t *testing.T) {
	conn := newScriptConn("Alice", scriptedAnswer{choice: silent})
	session := newTestSession(t, 1, "Alice", conn)
	session.SetRoundTimeout(30 * time.Millisecond)

	assert.Nil(t, session.AskQuestion(sampleQuestion()))
}

func TestAskQuestionExplicitPassIsNoAnswer(t *testing.T) {
	conn := newScriptConn("Alice", scriptedAnswer{choice: -1})
	session := newTestSession(t, 1, "Alice", conn)
	session.SetRoundTimeout(time.Second)

	assert.Nil(t, session.AskQuestion(sampleQuestion()))
}

func TestAskQuestionDisconnectIsNoAnswer(t *testing.T) {
	conn := newScriptConn("Alice")
	session := newTestSession(t, 1, "Alice", conn)
	session.SetRoundTimeout(time.Second)
	conn.disconnect()

	assert.Nil(t, session.AskQuestion(sampleQuestion()))
	assert.True(t, session.Closed())
}

func TestAskQuestionSkipsUnexpectedPackets(t *testing.T) {
	conn := newScriptConn("Alice")
	session := newTestSession(t, 1, "Alice", conn)
	session.SetRoundTimeout(time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		conn.push(wire.Envelope{Type: wire.TypeName, Name: "noise"})
		conn.push(answerEnv(0))
	}()

	answer := session.AskQuestion(sampleQuestion())
	require.NotNil(t, answer)
	assert.Equal(t, 0, answer.Choice)
}

func TestAskQuestionDiscardsPacketsBufferedBeforeThePrompt(t *testing.T) {
	conn := newScriptConn("Alice")
	session := newTestSession(t, 1, "Alice", conn)
	session.SetRoundTimeout(30 * time.Millisecond)

	// Queued before the prompt: belongs to an earlier round, must not count.
	conn.push(answerEnv(1))

	assert.Nil(t, session.AskQuestion(sampleQuestion()))
}

func TestSendMessageSurvivesClosedConn(t *testing.T) {
	conn := newScriptConn("Alice")
	session := newTestSession(t, 1, "Alice", conn)
	require.NoError(t, session.Close())

	// Must not panic or surface an error.
	session.SendMessage("hello?")
}
