package realtime

import (
	"context"
	"encoding/json"

	"github.com/Vovarama1992/homecare-engage/internal/chat"
)

const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventError   = "error"
)

// MessageCreator is the slice of the Session Service the gateway needs.
type MessageCreator interface {
	CreateMessage(ctx context.Context, sessionID string, in chat.MessageInput) (chat.Message, error)
}

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type messagePayload struct {
	SessionID string      `json:"sessionId"`
	Content   string      `json:"content"`
	Sender    chat.Sender `json:"sender"`
}

type typingPayload struct {
	SessionID string `json:"sessionId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

const sendFailed = "Failed to send message"
