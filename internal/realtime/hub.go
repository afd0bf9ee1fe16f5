package realtime

import (
	"log/slog"
	"sync"
)

const sendBuffer = 256

// client is one websocket connection. send is never closed; quit tells the
// write pump to stop.
type client struct {
	id        string
	sessionID string
	send      chan []byte
	quit      chan struct{}
	closeOnce sync.Once
}

func newClient(id, sessionID string) *client {
	return &client{
		id:        id,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		quit:      make(chan struct{}),
	}
}

func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

type room struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// Hub tracks rooms keyed by session id. Rooms are created on first join and
// dropped when the last member leaves.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*client
	rooms map[string]*room

	lockMu sync.Mutex
	locks  map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log.With("component", "realtime"),
		conns: make(map[string]*client),
		rooms: make(map[string]*room),
		locks: make(map[string]*sessionLock),
	}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
	if c.sessionID == "" {
		return
	}
	r, ok := h.rooms[c.sessionID]
	if !ok {
		r = &room{clients: make(map[string]*client)}
		h.rooms[c.sessionID] = r
	}
	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
}

func (h *Hub) leave(c *client) {
	c.close()
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.id)
	r, ok := h.rooms[c.sessionID]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.clients, c.id)
	empty := len(r.clients) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, c.sessionID)
	}
}

// broadcast queues frame for every member of the session's room except the
// ids in except. Members whose buffer is full are disconnected.
func (h *Hub) broadcast(sessionID string, frame []byte, except string) int {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return 0
	}

	var slow []*client
	delivered := 0
	r.mu.RLock()
	for id, c := range r.clients {
		if id == except {
			continue
		}
		if c.enqueue(frame) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("client send buffer full, disconnecting", "client_id", c.id, "session_id", sessionID)
		h.leave(c)
	}
	return delivered
}

// lockSession serializes persist+broadcast per session so broadcast order
// matches commit order.
func (h *Hub) lockSession(sessionID string) func() {
	h.lockMu.Lock()
	l, ok := h.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		h.locks[sessionID] = l
	}
	l.refs++
	h.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, sessionID)
		}
		h.lockMu.Unlock()
	}
}

// Members returns the number of live connections in a session's room.
func (h *Hub) Members(sessionID string) int {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		all = append(all, c)
	}
	h.conns = make(map[string]*client)
	h.rooms = make(map[string]*room)
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
