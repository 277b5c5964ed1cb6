package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(r.Context(), w, r); err != nil {
			t.Logf("ServeWS() error = %v", err)
		}
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return hub, cancel, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
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
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub, _, url := startHub(t)
	fixed := time.Date(2021, 6, 1, 9, 30, 0, 0, time.UTC)
	hub.now = func() time.Time { return fixed }

	first := dial(t, url)
	second := dial(t, url)
	waitForClients(t, hub, 2)

	hub.Notify("person.added", 3)

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d ReadMessage() error = %v", i, err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("client %d got invalid json %s: %v", i, data, err)
		}
		if msg.Type != "person.added" || msg.Count != 3 || !msg.Timestamp.Equal(fixed) {
			t.Errorf("client %d got %+v", i, msg)
		}
	}
}

func TestHub_MessageCarriesOnlyTypeCountAndTimestamp(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	hub.Notify("collection.locked", 0)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("invalid json %s: %v", data, err)
	}
	if len(fields) != 3 {
		t.Errorf("message fields = %v, want type, count and timestamp", fields)
	}
	for _, key := range []string{"type", "count", "timestamp"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("message is missing %q: %s", key, data)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection to close after hub shutdown")
	}
}

func TestHub_NotifyNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Notify("person.added", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked with nobody draining the queue")
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("queued %d events, want %d", len(hub.broadcast), cap(hub.broadcast))
	}
}
