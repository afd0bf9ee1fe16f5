package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemorySessionRepo keeps sessions in-process. Used for local runs and tests.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	customer map[string]string // customer id -> session id
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]Session),
		customer: make(map[string]string),
	}
}

func (r *MemorySessionRepo) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	if _, exists := r.customer[s.CustomerID]; exists {
		return fmt.Errorf("customer id %s already in use", s.CustomerID)
	}
	r.sessions[s.ID] = s
	r.customer[s.CustomerID] = s.ID
	return nil
}

func (r *MemorySessionRepo) FindByID(_ context.Context, id string) (Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.Deleted != nil {
		return Session{}, false, nil
	}
	return s, true, nil
}

func (r *MemorySessionRepo) FindByCustomerID(ctx context.Context, customerID string) (Session, bool, error) {
	r.mu.RLock()
	id, ok := r.customer[customerID]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false, nil
	}
	return r.FindByID(ctx, id)
}

func (r *MemorySessionRepo) FindAll(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Deleted == nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemorySessionRepo) UpdateStatus(_ context.Context, id string, status Status, at time.Time) (Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Deleted != nil {
		return Session{}, false, nil
	}
	s.Status = status
	s.UpdatedAt = at
	r.sessions[id] = s
	return s, true, nil
}

func (r *MemorySessionRepo) SoftDelete(_ context.Context, id string, t Tombstone) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Deleted != nil {
		return false, nil
	}
	s.Deleted = &t
	r.sessions[id] = s
	return true, nil
}

// MemoryMessageRepo keeps messages in insertion order.
type MemoryMessageRepo struct {
	mu       sync.RWMutex
	messages []Message
}

func NewMemoryMessageRepo() *MemoryMessageRepo {
	return &MemoryMessageRepo{}
}

func (r *MemoryMessageRepo) Create(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryMessageRepo) FindByID(_ context.Context, id string) (Message, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.messages {
		if m.ID == id && m.Deleted == nil {
			return m, true, nil
		}
	}
	return Message{}, false, nil
}

func (r *MemoryMessageRepo) FindBySessionID(_ context.Context, sessionID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, 0)
	for _, m := range r.messages {
		if m.ChatSessionID == sessionID && m.Deleted == nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *MemoryMessageRepo) SoftDeleteBySessionID(_ context.Context, sessionID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.messages {
		if r.messages[i].ChatSessionID == sessionID && r.messages[i].Deleted == nil {
			r.messages[i].Deleted = &Tombstone{At: at}
			n++
		}
	}
	return n, nil
}
