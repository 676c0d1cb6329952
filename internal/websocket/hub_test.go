package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func waitForClients(t *testing.T, hub *Hub, sessionID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients[sessionID])
		hub.mu.RUnlock()
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d registered clients, have %d", want, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSendToSlowClientUnregistersWithoutPanic(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	sessionID := uuid.New()
	// Unbuffered Send with no reader: the first delivery hits the full-buffer
	// path immediately.
	client := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte)}
	hub.register <- client
	waitForClients(t, hub, sessionID, 1)

	hub.Send(sessionID, "deck.card.generated", map[string]interface{}{"session_id": sessionID.String()})

	// Run owns the close; the dropped client's channel must be closed exactly
	// once, by the unregister path.
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected Send channel to be closed, got a message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send channel was never closed after the client was dropped")
	}

	// The session no longer has local clients; another Send must be a no-op,
	// not a second close.
	hub.Send(sessionID, "deck.card.generated", map[string]interface{}{"session_id": sessionID.String()})
}

func TestSendDeliversToEverySessionConnection(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	sessionID := uuid.New()
	first := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, 1)}
	second := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, 1)}
	hub.register <- first
	hub.register <- second
	waitForClients(t, hub, sessionID, 2)

	hub.Send(sessionID, "deck.card.generated", map[string]interface{}{"title": "Photosynthesis"})

	for i, c := range []*Client{first, second} {
		select {
		case msg := <-c.Send:
			if len(msg) == 0 {
				t.Errorf("client %d received an empty payload", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %d never received the event", i)
		}
	}
}
