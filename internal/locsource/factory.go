package locsource

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
)

// SourceType represents the transport that delivers fixes.
type SourceType string

const (
	// SourceFeed receives fixes pushed in-process, e.g. over the HTTP API.
	SourceFeed SourceType = "feed"
	// SourceMQTT subscribes to fixes on an MQTT topic.
	SourceMQTT SourceType = "mqtt"
	// SourceNATS subscribes to fixes on a NATS subject.
	SourceNATS SourceType = "nats"
)

// Config holds configuration for creating a location source.
type Config struct {
	Type         SourceType    // Type of source to create
	MQTTBroker   string        // Broker URL, e.g. tcp://localhost:1883
	MQTTTopic    string        // Topic carrying fix messages
	MQTTClientID string        // Client identifier presented to the broker
	NATSURL      string        // NATS server URL
	NATSSubject  string        // Subject carrying fix messages
	Timeout      time.Duration // Bound for connect, subscribe and unsubscribe round trips
	Logger       *slog.Logger  // Logger for the source
}

// NewSource creates a location source based on the provided configuration. The returned
// close function releases the underlying connection.
func NewSource(config Config) (Source, func(), error) {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	switch config.Type {
	case SourceFeed:
		return NewFeed(), func() {}, nil
	case SourceMQTT:
		return newMQTTSource(config)
	case SourceNATS:
		return newNATSSource(config)
	default:
		return nil, nil, fmt.Errorf("unsupported location source type: %s", config.Type)
	}
}

func newMQTTSource(config Config) (Source, func(), error) {
	if config.MQTTBroker == "" || config.MQTTTopic == "" {
		return nil, nil, errors.New("broker and topic are required for MQTT source")
	}

	source := NewMQTTSource(nil, config.MQTTTopic, config.Timeout, config.Logger)
	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker).
		SetClientID(config.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(source.ConnectionLost)

	client := mqtt.NewClient(opts)
	if err := waitToken(client.Connect(), config.Timeout); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	source.client = client

	const quiesceMillis = 250
	return source, func() { client.Disconnect(quiesceMillis) }, nil
}

func newNATSSource(config Config) (Source, func(), error) {
	if config.NATSURL == "" || config.NATSSubject == "" {
		return nil, nil, errors.New("url and subject are required for NATS source")
	}

	source := NewNATSSource(nil, config.NATSSubject, config.Logger)
	conn, err := nats.Connect(config.NATSURL,
		nats.Name("pathfinder"),
		nats.Timeout(config.Timeout),
		nats.DisconnectErrHandler(source.Disconnected),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	source.conn = conn

	return source, conn.Close, nil
}
