package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Service = (*SessionService)(nil)

// SessionService orchestrates sessions and messages and triggers staff alerts.
type SessionService struct {
	sessions SessionRepo
	messages MessageRepo
	notifier Notifier
	log      *slog.Logger
	nowFn    func() time.Time

	bg sync.WaitGroup
}

type Option func(*SessionService)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.nowFn = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *SessionService) { s.log = l }
}

// NewService returns the Session Service. notifier may be nil.
func NewService(sessions SessionRepo, messages MessageRepo, notifier Notifier, opts ...Option) *SessionService {
	s := &SessionService{
		sessions: sessions,
		messages: messages,
		notifier: notifier,
		log:      slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "chat")
	return s
}

func (s *SessionService) CreateSession(ctx context.Context) (Session, error) {
	now := s.nowFn()
	session := Session{
		ID:         uuid.NewString(),
		CustomerID: uuid.NewString(),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("session created", "session_id", session.ID, "customer_id", session.CustomerID)

	s.detach(ctx, func(ctx context.Context, n Notifier) {
		n.NewSession(ctx, session.ID, session.CustomerID)
	})
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (Session, bool, error) {
	return s.sessions.FindByID(ctx, id)
}

func (s *SessionService) GetAllSessions(ctx context.Context) ([]Session, error) {
	return s.sessions.FindAll(ctx)
}

func (s *SessionService) UpdateStatus(ctx context.Context, id string, status Status) (Session, bool, error) {
	session, ok, err := s.sessions.UpdateStatus(ctx, id, status, s.nowFn())
	if err != nil {
		return Session{}, false, fmt.Errorf("update status: %w", err)
	}
	if ok {
		s.log.Info("session status updated", "session_id", id, "status", status)
	}
	return session, ok, nil
}

func (s *SessionService) CreateMessage(ctx context.Context, sessionID string, in MessageInput) (Message, error) {
	session, ok, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("find session: %w", err)
	}
	if !ok {
		return Message{}, ErrSessionNotFound
	}

	msg := Message{
		ID:            uuid.NewString(),
		ChatSessionID: session.ID,
		Sender:        in.Sender,
		Content:       in.Content,
		Timestamp:     s.nowFn(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	s.log.Debug("message created", "session_id", session.ID, "message_id", msg.ID, "sender", msg.Sender)

	if msg.Sender == SenderCustomer {
		s.detach(ctx, func(ctx context.Context, n Notifier) {
			n.NewMessage(ctx, session.ID, session.CustomerID, msg.Content)
		})
	}
	return msg, nil
}

func (s *SessionService) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	return s.messages.FindBySessionID(ctx, sessionID)
}

// DeleteSession soft-deletes the session and all of its messages.
//
// Without a Cascader the two steps are not atomic: a failure after the
// messages step leaves the messages hidden and the session visible. Running
// DeleteSession again completes the cascade; the messages step is then a no-op.
func (s *SessionService) DeleteSession(ctx context.Context, id, actor string) (bool, error) {
	if _, ok, err := s.sessions.FindByID(ctx, id); err != nil {
		return false, fmt.Errorf("find session: %w", err)
	} else if !ok {
		return false, nil
	}

	tomb := Tombstone{At: s.nowFn(), By: actor}
	if c, ok := s.sessions.(Cascader); ok {
		deleted, err := c.SoftDeleteCascade(ctx, id, tomb)
		if err != nil {
			return false, fmt.Errorf("delete session: %w", err)
		}
		return deleted, nil
	}

	n, err := s.messages.SoftDeleteBySessionID(ctx, id, tomb.At)
	if err != nil {
		return false, fmt.Errorf("delete session messages: %w", err)
	}
	deleted, err := s.sessions.SoftDelete(ctx, id, tomb)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	s.log.Debug("session cascade", "session_id", id, "messages", n, "deleted", deleted)
	return deleted, nil
}

// Wait blocks until every detached notification has returned.
func (s *SessionService) Wait() {
	s.bg.Wait()
}

// detach runs fn on its own goroutine with a context that outlives the request.
func (s *SessionService) detach(ctx context.Context, fn func(context.Context, Notifier)) {
	if s.notifier == nil {
		return
	}
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification panicked", "panic", r)
			}
		}()
		fn(bgCtx, s.notifier)
	}()
}
