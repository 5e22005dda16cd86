package domain

import "errors"

var (
	// ErrHandshakeFailed is returned when a connection's first message is not
	// a well-formed name packet.
	ErrHandshakeFailed = errors.New("handshake failed")
	// ErrQueueFull signals back-pressure on the matchmaking queue; callers
	// must reject the session rather than drop it silently.
	ErrQueueFull = errors.New("waiting queue is full")
	// ErrNoQuestions indicates the question bank loaded empty. The server
	// must not start serving without questions.
	ErrNoQuestions = errors.New("question bank is empty")
	// ErrSessionClosed is returned when writing to a player whose connection
	// has already gone away.
	ErrSessionClosed = errors.New("player session closed")
)
