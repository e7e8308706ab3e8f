// Package websocket pushes watch list and log events to connected clients.
// Each connection belongs to the user resolved when it was opened, and
// per-user events only reach that user's connections.
package websocket

import (
	"sync"

	"github.com/rs/zerolog"
)

const (
	queueSize      = 256
	clientSendSize = 256
)

// Hub tracks open connections by user and fans messages out to them.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}

	queue   chan envelope
	inbound chan inbound
	done    chan struct{}
	stop    sync.Once

	handlerMu sync.RWMutex
	devMode   func(enabled bool) error
	focus     func(userID string)

	logger zerolog.Logger
}

// envelope is an encoded message and its audience. An empty userID reaches
// every client.
type envelope struct {
	userID string
	data   []byte
}

// NewHub creates a hub. Run must be started before messages are delivered.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		users:   make(map[string]map[*Client]struct{}),
		queue:   make(chan envelope, queueSize),
		inbound: make(chan inbound, queueSize),
		done:    make(chan struct{}),
		logger:  logger.With().Str("component", "websocket").Logger(),
	}
}

// SetDevModeHandler registers a handler for dev mode toggle messages.
func (h *Hub) SetDevModeHandler(handler func(enabled bool) error) {
	h.handlerMu.Lock()
	h.devMode = handler
	h.handlerMu.Unlock()
}

// SetFocusHandler registers a handler for window:focus messages. It is
// called with the user the sending connection belongs to.
func (h *Hub) SetFocusHandler(handler func(userID string)) {
	h.handlerMu.Lock()
	h.focus = handler
	h.handlerMu.Unlock()
}

// Run delivers queued messages and dispatches client requests until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case env := <-h.queue:
			h.deliver(env)
		case in := <-h.inbound:
			h.dispatch(in)
		}
	}
}

// Stop ends Run and closes every connection.
func (h *Hub) Stop() {
	h.stop.Do(func() { close(h.done) })
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	return h.enqueue("", msgType, payload)
}

// BroadcastToUser sends a message to the connections of one user.
func (h *Hub) BroadcastToUser(userID, msgType string, payload interface{}) error {
	return h.enqueue(userID, msgType, payload)
}

func (h *Hub) enqueue(userID, msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.queue <- envelope{userID: userID, data: data}:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.users {
		n += len(set)
	}
	return n
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	set := h.users[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	c.closeSend()
}

// deliver hands env to its audience. Clients whose buffer is full are
// disconnected.
func (h *Hub) deliver(env envelope) {
	var slow []*Client

	h.mu.RLock()
	for userID, set := range h.users {
		if env.userID != "" && userID != env.userID {
			continue
		}
		for c := range set {
			if !c.offer(env.data) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		h.removeLocked(c)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.users {
		for c := range set {
			c.closeSend()
		}
	}
	clear(h.users)
}
