package websocket

import (
	"encoding/json"
	"time"

	"github.com/cinetrack/cinetrack/internal/auth"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// DevModePayload is the payload for devmode:set messages.
type DevModePayload struct {
	Enabled bool `json:"enabled"`
}

// request is a frame as read from a client. The payload is decoded once the
// type is known.
type request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inbound is a raw frame and the client it came from.
type inbound struct {
	client *Client
	data   []byte
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// dispatch runs on the hub loop. Handlers may broadcast, so they are started
// on their own goroutines.
func (h *Hub) dispatch(in inbound) {
	var req request
	if err := json.Unmarshal(in.data, &req); err != nil {
		return
	}

	h.handlerMu.RLock()
	onFocus, onDevMode := h.focus, h.devMode
	h.handlerMu.RUnlock()

	userID := in.client.userID
	switch req.Type {
	case "window:focus":
		if onFocus != nil {
			go onFocus(userID)
		}

	case "devmode:set":
		if onDevMode == nil {
			return
		}
		var p DevModePayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &p); err != nil {
				return
			}
		}

		// Developer mode swaps the database for everyone.
		if userID != auth.LocalUserID {
			go h.BroadcastToUser(userID, "devmode:error", devModeError("developer mode can only be changed by the local user", p.Enabled))
			return
		}

		go func() {
			if err := onDevMode(p.Enabled); err != nil {
				h.Broadcast("devmode:error", devModeError(err.Error(), p.Enabled))
				return
			}
			h.Broadcast("devmode:changed", map[string]interface{}{"enabled": p.Enabled})
		}()
	}
}

// devModeError reports a failed toggle along with the mode still in effect.
func devModeError(msg string, requested bool) map[string]interface{} {
	return map[string]interface{}{
		"error":   msg,
		"enabled": !requested,
	}
}
