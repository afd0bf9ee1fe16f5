package chat

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the three session states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderAdmin    Sender = "admin"
)

func (s Sender) Valid() bool {
	return s == SenderCustomer || s == SenderAdmin
}

var ErrSessionNotFound = errors.New("Chat session not found")

// Tombstone marks a soft-deleted record. A nil *Tombstone means the record is active.
type Tombstone struct {
	At time.Time
	By string
}

type Session struct {
	ID         string     `json:"_id"`
	CustomerID string     `json:"customerId"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Deleted    *Tombstone `json:"-"`
}

type Message struct {
	ID            string     `json:"_id"`
	ChatSessionID string     `json:"chatSessionId"`
	Sender        Sender     `json:"sender"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	Deleted       *Tombstone `json:"-"`
}

// MessageInput is what a participant submits. Content is validated at the boundary.
type MessageInput struct {
	Content string
	Sender  Sender
}

// SessionRepo is the only write path for sessions. Every read excludes
// soft-deleted sessions.
type SessionRepo interface {
	Create(ctx context.Context, s Session) error
	FindByID(ctx context.Context, id string) (Session, bool, error)
	FindByCustomerID(ctx context.Context, customerID string) (Session, bool, error)
	// FindAll orders by UpdatedAt, most recent first.
	FindAll(ctx context.Context) ([]Session, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Session, bool, error)
	SoftDelete(ctx context.Context, id string, t Tombstone) (bool, error)
}

// MessageRepo is the only write path for messages. Every read excludes
// soft-deleted messages.
type MessageRepo interface {
	Create(ctx context.Context, m Message) error
	FindByID(ctx context.Context, id string) (Message, bool, error)
	// FindBySessionID orders by Timestamp ascending, insertion order on ties.
	FindBySessionID(ctx context.Context, sessionID string) ([]Message, error)
	SoftDeleteBySessionID(ctx context.Context, sessionID string, at time.Time) (int64, error)
}

// Cascader is an optional capability of stores that can soft-delete a session
// and its messages atomically.
type Cascader interface {
	SoftDeleteCascade(ctx context.Context, sessionID string, t Tombstone) (bool, error)
}

// Notifier receives best-effort staff alerts. Implementations swallow and log
// their own failures.
type Notifier interface {
	NewSession(ctx context.Context, sessionID, customerID string)
	NewMessage(ctx context.Context, sessionID, customerID, content string)
}

// Service is the Session Service: the sole writer of session and message state.
type Service interface {
	CreateSession(ctx context.Context) (Session, error)
	GetSession(ctx context.Context, id string) (Session, bool, error)
	GetAllSessions(ctx context.Context) ([]Session, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Session, bool, error)
	CreateMessage(ctx context.Context, sessionID string, in MessageInput) (Message, error)
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)
	DeleteSession(ctx context.Context, id, actor string) (bool, error)
}
