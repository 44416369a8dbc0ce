package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// Config holds MQTT publisher configuration
type Config struct {
	Enabled     bool
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	Retained    bool
}

// Publisher publishes bridge events to an MQTT broker
type Publisher struct {
	config Config
	log    *logger.Logger
	client paho.Client
}

// Event types for MQTT publishing

// RegistrationEvent represents a repeater registration
type RegistrationEvent struct {
	SourceAddr string    `json:"source_addr"`
	Timestamp  time.Time `json:"timestamp"`
}

// IdentityEvent represents a completed identification sequence
type IdentityEvent struct {
	RepeaterID   uint32    `json:"repeater_id"`
	Callsign     string    `json:"callsign"`
	Firmware     string    `json:"firmware"`
	Hardware     string    `json:"hardware"`
	SerialNumber string    `json:"serial_number"`
	TXFreq       uint32    `json:"tx_freq"`
	RXFreq       uint32    `json:"rx_freq"`
	Timestamp    time.Time `json:"timestamp"`
}

// TrafficEvent represents a classified datagram on the DMR endpoint
type TrafficEvent struct {
	Kind       string    `json:"kind"`
	Size       int       `json:"size"`
	SourceAddr string    `json:"source_addr"`
	Timestamp  time.Time `json:"timestamp"`
}

// UpstreamEvent represents a master link state change
type UpstreamEvent struct {
	RepeaterID uint32    `json:"repeater_id"`
	Connected  bool      `json:"connected"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a new MQTT publisher
func New(config Config, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	p := &Publisher{
		config: config,
		log:    log.WithComponent("mqtt"),
	}
	if !config.Enabled {
		return p
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(config.Broker)
	if config.ClientID != "" {
		opts.SetClientID(config.ClientID)
	} else {
		opts.SetClientID("hytera-bridge")
	}
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	opts.SetOnConnectHandler(func(client paho.Client) {
		p.log.Info("MQTT connected", logger.String("broker", config.Broker))
	})
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		p.log.Warn("MQTT connection lost", logger.Error(err))
	})

	p.client = paho.NewClient(opts)
	return p
}

// Start connects to the MQTT broker
func (p *Publisher) Start(ctx context.Context) error {
	if !p.config.Enabled {
		p.log.Info("MQTT publisher disabled")
		return nil
	}

	p.log.Info("Starting MQTT publisher",
		logger.String("broker", p.config.Broker),
		logger.String("client_id", p.config.ClientID))

	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// Stop disconnects from the MQTT broker
func (p *Publisher) Stop() {
	if !p.config.Enabled || p.client == nil {
		return
	}

	p.log.Info("Stopping MQTT publisher")
	p.client.Disconnect(250)
}

// PublishRegistration publishes a repeater registration event
func (p *Publisher) PublishRegistration(event RegistrationEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("repeater/registered")
	return p.publish(topic, event)
}

// PublishIdentity publishes the identity extracted by a completed
// identification sequence
func (p *Publisher) PublishIdentity(event IdentityEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("repeater/identity")
	return p.publish(topic, event)
}

// PublishTraffic publishes a traffic event
func (p *Publisher) PublishTraffic(event TrafficEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("repeater/traffic")
	return p.publish(topic, event)
}

// PublishUpstream publishes a master link state change
func (p *Publisher) PublishUpstream(event UpstreamEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("upstream/state")
	return p.publish(topic, event)
}

// publish publishes an event to a topic
func (p *Publisher) publish(topic string, event interface{}) error {
	payload, err := p.serializeEvent(event)
	if err != nil {
		p.log.Error("Failed to serialize event",
			logger.String("topic", topic),
			logger.Error(err))
		return err
	}

	token := p.client.Publish(topic, p.config.QoS, p.config.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.log.Debug("Published MQTT event",
		logger.String("topic", topic),
		logger.Int("payload_size", len(payload)))
	return nil
}

// serializeEvent serializes an event to JSON
func (p *Publisher) serializeEvent(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}

// formatTopic formats a topic with the configured prefix
func (p *Publisher) formatTopic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s/%s", prefix, suffix)
}
