package web

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

func TestWebSocketHub_New(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	hub := NewWebSocketHub(log)

	if hub == nil {
		t.Fatal("NewWebSocketHub returned nil")
	}
}

func TestWebSocketHub_Run(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	hub := NewWebSocketHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	go hub.Run(ctx)

	time.Sleep(50 * time.Millisecond)

	cancel()

	time.Sleep(50 * time.Millisecond)
}

func TestWebSocketHub_Broadcast(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	hub := NewWebSocketHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go hub.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Broadcast should not panic even with no clients
	hub.BroadcastRegistration("192.168.22.10:50000")
	hub.BroadcastIdentity(bridge.Snapshot{RepeaterID: 312000, Callsign: "OK0ABC"})
	hub.BroadcastPacket("HSTRP", 53, "192.168.22.10:50001")
	hub.BroadcastUpstreamState(true, 312000)

	time.Sleep(50 * time.Millisecond)
}

func TestWebSocketClientReceivesBroadcast(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	hub := NewWebSocketHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Wait for the registration to land in the hub
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastIdentity(bridge.Snapshot{RepeaterID: 312000, Callsign: "OK0ABC"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}
	if !strings.Contains(string(msg), "repeater_identity") {
		t.Errorf("Expected repeater_identity event, got %s", msg)
	}
	if !strings.Contains(string(msg), "OK0ABC") {
		t.Errorf("Expected callsign in event, got %s", msg)
	}
}

func TestEvent_Marshal(t *testing.T) {
	event := Event{
		Type:      "repeater_registered",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"addr": "192.168.22.10:50000",
		},
	}

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	if len(data) == 0 {
		t.Error("Marshaled data is empty")
	}

	if !strings.Contains(string(data), "repeater_registered") {
		t.Error("Marshaled data doesn't contain event type")
	}
}
