package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestNewPublisher tests creating a new MQTT publisher
func TestNewPublisher(t *testing.T) {
	config := Config{
		Enabled:     true,
		Broker:      "tcp://localhost:1883",
		TopicPrefix: "hytera/test",
		ClientID:    "test-client",
		QoS:         1,
		Retained:    false,
	}

	pub := New(config, nil)
	if pub == nil {
		t.Fatal("Expected non-nil publisher")
	}

	if pub.config.Broker != config.Broker {
		t.Errorf("Expected broker %s, got %s", config.Broker, pub.config.Broker)
	}
	if pub.client == nil {
		t.Error("Expected a configured client when enabled")
	}
}

// TestPublisher_StartWhenDisabled tests starting the publisher when disabled
func TestPublisher_StartWhenDisabled(t *testing.T) {
	config := Config{
		Enabled: false,
	}

	pub := New(config, nil)
	ctx := context.Background()

	err := pub.Start(ctx)
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
}

// TestPublisher_Stop tests stopping the publisher
func TestPublisher_Stop(t *testing.T) {
	config := Config{
		Enabled: false,
	}

	pub := New(config, nil)

	// Should not panic when stopping without starting
	pub.Stop()
}

// TestPublisher_PublishWhenDisabled tests that publishing is a no-op when
// the publisher is disabled
func TestPublisher_PublishWhenDisabled(t *testing.T) {
	config := Config{
		Enabled:     false,
		TopicPrefix: "hytera/test",
	}

	pub := New(config, nil)

	if err := pub.PublishRegistration(RegistrationEvent{
		SourceAddr: "192.168.22.10:50000",
		Timestamp:  time.Now(),
	}); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}

	if err := pub.PublishIdentity(IdentityEvent{
		RepeaterID: 312000,
		Callsign:   "OK0ABC",
		Timestamp:  time.Now(),
	}); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}

	if err := pub.PublishTraffic(TrafficEvent{
		Kind:      "HSTRP",
		Size:      53,
		Timestamp: time.Now(),
	}); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}

	if err := pub.PublishUpstream(UpstreamEvent{
		RepeaterID: 312000,
		Connected:  true,
		Timestamp:  time.Now(),
	}); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
}

// TestTopicFormat tests topic formatting
func TestTopicFormat(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		suffix   string
		expected string
	}{
		{
			name:     "simple topic",
			prefix:   "hytera/bridge",
			suffix:   "repeater/identity",
			expected: "hytera/bridge/repeater/identity",
		},
		{
			name:     "trailing slash in prefix",
			prefix:   "hytera/bridge/",
			suffix:   "repeater/identity",
			expected: "hytera/bridge/repeater/identity",
		},
		{
			name:     "empty prefix",
			prefix:   "",
			suffix:   "repeater/identity",
			expected: "repeater/identity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{
				TopicPrefix: tt.prefix,
			}
			pub := New(config, nil)
			topic := pub.formatTopic(tt.suffix)
			if topic != tt.expected {
				t.Errorf("Expected topic %s, got %s", tt.expected, topic)
			}
		})
	}
}

// TestEventSerialization tests that events can be serialized to JSON
func TestEventSerialization(t *testing.T) {
	pub := New(Config{Enabled: false}, nil)

	payload, err := pub.serializeEvent(IdentityEvent{
		RepeaterID:   312000,
		Callsign:     "OK0ABC",
		Firmware:     "A8.01.07.005",
		Hardware:     "RD985",
		SerialNumber: "20200116001",
		TXFreq:       438_500_000,
		RXFreq:       430_900_000,
		Timestamp:    time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to serialize identity event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	if decoded["callsign"] != "OK0ABC" {
		t.Errorf("Expected callsign OK0ABC, got %v", decoded["callsign"])
	}
}
