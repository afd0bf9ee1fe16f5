package review

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	reviews map[string]Review
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reviews: make(map[string]Review)}
}

func (m *MemoryRepo) Create(_ context.Context, r Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reviews[r.ID]; exists {
		return fmt.Errorf("review %s already exists", r.ID)
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *MemoryRepo) FindApproved(_ context.Context) ([]Review, error) {
	return m.filter(func(r Review) bool { return r.Approved }), nil
}

func (m *MemoryRepo) FindAll(_ context.Context) ([]Review, error) {
	return m.filter(func(Review) bool { return true }), nil
}

func (m *MemoryRepo) filter(keep func(Review) bool) []Review {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryRepo) Approve(_ context.Context, id string) (Review, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return Review{}, false, nil
	}
	r.Approved = true
	m.reviews[id] = r
	return r, true, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return false, nil
	}
	delete(m.reviews, id)
	return true, nil
}

// Len reports how many reviews are physically stored.
func (m *MemoryRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reviews)
}
