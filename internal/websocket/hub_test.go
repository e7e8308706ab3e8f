package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/auth"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	go hub.Run()

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user := c.QueryParam("user"); user != "" {
				c.Set(auth.UserIDKey, user)
			}
			return next(c)
		}
	})
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) (Message, bool) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return Message{}, false
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message %s: %v", data, err)
	}
	return msg, true
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub, server := newTestHub(t)
	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")
	waitForClients(t, hub, 2)

	if err := hub.BroadcastToUser("alice", "watchlist:updated", map[string]int{"externalId": 603}); err != nil {
		t.Fatalf("BroadcastToUser() error = %v", err)
	}

	msg, ok := readMessage(t, alice)
	if !ok || msg.Type != "watchlist:updated" {
		t.Errorf("alice got %+v, %v", msg, ok)
	}
	if msg, ok := readMessage(t, bob); ok {
		t.Errorf("bob received another user's event: %+v", msg)
	}
}

func TestHub_BroadcastReachesEveryone(t *testing.T) {
	hub, server := newTestHub(t)
	conns := []*websocket.Conn{dial(t, server, "alice"), dial(t, server, auth.LocalUserID)}
	waitForClients(t, hub, 2)

	hub.Broadcast("logs:entry", map[string]string{"message": "hello"})

	for i, conn := range conns {
		if msg, ok := readMessage(t, conn); !ok || msg.Type != "logs:entry" {
			t.Errorf("client %d got %+v, %v", i, msg, ok)
		}
	}
}

func TestHub_FocusInvokesHandlerForSender(t *testing.T) {
	hub, server := newTestHub(t)

	focused := make(chan string, 1)
	hub.SetFocusHandler(func(userID string) { focused <- userID })

	conn := dial(t, server, "alice")
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: "window:focus"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	select {
	case got := <-focused:
		if got != "alice" {
			t.Errorf("focus handler called with %q, want alice", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("focus handler not called")
	}
}

func TestHub_DevModeToggle(t *testing.T) {
	hub, server := newTestHub(t)

	calls := make(chan bool, 1)
	hub.SetDevModeHandler(func(enabled bool) error {
		calls <- enabled
		return nil
	})

	conn := dial(t, server, auth.LocalUserID)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: "devmode:set", Payload: DevModePayload{Enabled: true}}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "devmode:changed" {
		t.Errorf("message type = %q, want devmode:changed", msg.Type)
	}
	if enabled := <-calls; !enabled {
		t.Error("dev mode handler called with enabled = false")
	}
}

func TestHub_DevModeRejectsSignedInUser(t *testing.T) {
	hub, server := newTestHub(t)
	hub.SetDevModeHandler(func(enabled bool) error {
		t.Error("dev mode handler should not run for signed-in users")
		return nil
	})

	conn := dial(t, server, "alice")
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: "devmode:set", Payload: DevModePayload{Enabled: true}}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "devmode:error" {
		t.Errorf("message type = %q, want devmode:error", msg.Type)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dial(t, server, "alice")
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := &Client{hub: hub, userID: "alice", send: make(chan []byte, 1)}
	if !hub.add(c) {
		t.Fatal("add() = false before Stop")
	}

	hub.deliver(envelope{data: []byte("one")})
	hub.deliver(envelope{data: []byte("two")})

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want slow client removed", got)
	}
	<-c.send
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestHub_AddAfterStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Stop()
	if hub.add(&Client{hub: hub, userID: "alice", send: make(chan []byte, 1)}) {
		t.Error("add() after Stop should fail")
	}
}
