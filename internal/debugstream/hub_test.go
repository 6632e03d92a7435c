package debugstream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClientCountZeroWithNoConnections(t *testing.T) {
	h := NewHub()
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("ClientCount() = %d, want 0", got)
	}
}

func TestBroadcastWithNoClientsIsNoop(t *testing.T) {
	h := NewHub()
	h.Broadcast([]byte(`{"type":"tick"}`)) // must not panic or block
}

func TestBroadcastDeliversToConnectedClient(t *testing.T) {
	h := NewHub()
	server := httptest.NewServer(h)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1 after connect", h.ClientCount())
	}

	h.Broadcast([]byte(`{"type":"tick","idleActive":true}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(msg), "idleActive") {
		t.Fatalf("received message = %q, want it to contain idleActive", msg)
	}
}

func TestClientCountDropsAfterDisconnect(t *testing.T) {
	h := NewHub()
	server := httptest.NewServer(h)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount() != 1 {
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount() != 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0 after disconnect", h.ClientCount())
	}
}
