package settings

import (
	"strings"
	"sync"
)

// Preferences are per-admin notification toggles. Every field defaults to true.
type Preferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	NewChatAlerts      bool `json:"newChatAlerts"`
	ReviewAlerts       bool `json:"reviewAlerts"`
}

func DefaultPreferences() Preferences {
	return Preferences{EmailNotifications: true, NewChatAlerts: true, ReviewAlerts: true}
}

// PreferenceUpdate is a partial update; nil fields are left unchanged.
type PreferenceUpdate struct {
	EmailNotifications *bool `json:"emailNotifications"`
	NewChatAlerts      *bool `json:"newChatAlerts"`
	ReviewAlerts       *bool `json:"reviewAlerts"`
}

type Kind string

const (
	KindNewChat    Kind = "newChat"
	KindNewMessage Kind = "newMessage"
	KindNewReview  Kind = "newReview"
)

// PreferenceStore keeps preferences in process memory, keyed by admin email.
// Contents are lost on restart.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{prefs: make(map[string]Preferences)}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get returns the stored preferences, or the defaults for an unknown identity.
// It never writes.
func (s *PreferenceStore) Get(email string) Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[key(email)]; ok {
		return p
	}
	return DefaultPreferences()
}

func (s *PreferenceStore) Update(email string, u PreferenceUpdate) Preferences {
	k := key(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[k]
	if !ok {
		p = DefaultPreferences()
	}
	if u.EmailNotifications != nil {
		p.EmailNotifications = *u.EmailNotifications
	}
	if u.NewChatAlerts != nil {
		p.NewChatAlerts = *u.NewChatAlerts
	}
	if u.ReviewAlerts != nil {
		p.ReviewAlerts = *u.ReviewAlerts
	}
	s.prefs[k] = p
	return p
}

// ShouldSend applies the global toggle first, then the category toggle.
// New chats and new messages share the newChatAlerts toggle.
func (s *PreferenceStore) ShouldSend(email string, kind Kind) bool {
	p := s.Get(email)
	if !p.EmailNotifications {
		return false
	}
	switch kind {
	case KindNewChat, KindNewMessage:
		return p.NewChatAlerts
	case KindNewReview:
		return p.ReviewAlerts
	}
	return false
}

// Len reports how many identities have stored preferences.
func (s *PreferenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}
