// Package wire defines the line protocol spoken between server and players:
// one JSON object per message over a persistent connection. The same schema
// is used for the raw TCP transport (newline-delimited) and the websocket
// transport (one object per frame).
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeName     = "name"
	TypeResponse = "response"
	TypeMessage  = "message"
	TypeQuestion = "question"
	TypeAnswer   = "answer"
)

// Envelope is a decoded client packet. Answer is a pointer so an omitted
// answer field can be told apart from choice 0.
type Envelope struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	Answer *int   `json:"answer,omitempty"`
}

// Decode parses one inbound packet. Callers log and drop packets that fail
// to decode; a bad packet never kills the connection.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed packet: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, errors.New("packet missing type")
	}
	return env, nil
}

// Response acknowledges (or rejects) a handshake.
type Response struct {
	Type       string `json:"type"`
	Successful bool   `json:"successful"`
}

func NewResponse(successful bool) Response {
	return Response{Type: TypeResponse, Successful: successful}
}

// Notice carries a free-text notification: waiting status, round results,
// the final outcome.
type Notice struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func NewNotice(content string) Notice {
	return Notice{Type: TypeMessage, Content: content}
}

// Prompt carries a round's question, pre-formatted with choices and points.
type Prompt struct {
	Type     string `json:"type"`
	Question string `json:"question"`
}

func NewPrompt(question string) Prompt {
	return Prompt{Type: TypeQuestion, Question: question}
}
