package logger

import (
	"encoding/json"
	"sync"
)

const defaultBufferSize = 1000

// Broadcaster pushes a typed message to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// LogEntry is a decoded log line.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Stream is an io.Writer that keeps the most recent zerolog entries and
// forwards each one to a hub as a "logs:entry" message.
type Stream struct {
	mu      sync.RWMutex
	hub     Broadcaster
	entries []LogEntry
	next    int
	full    bool
}

// NewStream creates a stream retaining up to size entries.
func NewStream(size int) *Stream {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Stream{entries: make([]LogEntry, size)}
}

// SetHub sets the hub new entries are forwarded to.
func (s *Stream) SetHub(hub Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = hub
}

// Write implements io.Writer. Lines that are not JSON objects are dropped.
func (s *Stream) Write(p []byte) (int, error) {
	entry, ok := decodeEntry(p)
	if !ok {
		return len(p), nil
	}

	s.mu.Lock()
	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	hub := s.hub
	s.mu.Unlock()

	if hub != nil {
		hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// Recent returns the retained entries, oldest first.
func (s *Stream) Recent() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.full {
		out := make([]LogEntry, s.next)
		copy(out, s.entries[:s.next])
		return out
	}
	out := make([]LogEntry, 0, len(s.entries))
	out = append(out, s.entries[s.next:]...)
	out = append(out, s.entries[:s.next]...)
	return out
}

func decodeEntry(data []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{Fields: map[string]any{}}
	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}
	entry.Timestamp = take("time")
	entry.Level = take("level")
	entry.Component = take("component")
	entry.Message = take("message")

	for k, v := range raw {
		entry.Fields[k] = v
	}
	return entry, true
}
