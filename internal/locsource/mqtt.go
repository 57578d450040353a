package locsource

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTClient is the part of the paho client used by MQTTSource.
type MQTTClient interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// MQTTSource watches fixes published on an MQTT topic.
type MQTTSource struct {
	client  MQTTClient
	topic   string
	qos     byte
	timeout time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	current *watch
}

// NewMQTTSource creates a source reading fixes from topic. timeout bounds how long
// subscribe and unsubscribe wait for the broker.
func NewMQTTSource(client MQTTClient, topic string, timeout time.Duration, log *slog.Logger) *MQTTSource {
	return &MQTTSource{client: client, topic: topic, qos: 1, timeout: timeout, log: log}
}

func (ms *MQTTSource) Subscribe(onFix FixHandler, onError ErrorHandler, opts Options) (Subscription, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.current != nil {
		return nil, ErrAlreadySubscribed
	}

	w := newWatch(onFix, onError, opts)
	token := ms.client.Subscribe(ms.topic, ms.qos, func(_ mqtt.Client, msg mqtt.Message) {
		w.dispatch(msg.Payload())
	})
	if err := waitToken(token, ms.timeout); err != nil {
		w.cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ms.topic, err)
	}

	ms.current = w
	ms.log.Info("Subscribed to MQTT fixes", "topic", ms.topic, "high_accuracy", opts.HighAccuracy)

	return &mqttSubscription{source: ms, watch: w}, nil
}

// ConnectionLost reports a broken broker connection to the current subscriber.
// It is meant to be installed as the client's connection lost handler.
func (ms *MQTTSource) ConnectionLost(_ mqtt.Client, err error) {
	ms.mu.Lock()
	w := ms.current
	ms.mu.Unlock()

	ms.log.Warn("MQTT connection lost", "error", err)
	if w != nil {
		w.fail(&LocationError{Code: PositionUnavailable, Message: fmt.Sprintf("connection lost: %v", err)})
	}
}

type mqttSubscription struct {
	source *MQTTSource
	watch  *watch
}

func (s *mqttSubscription) Unsubscribe() error {
	if !s.watch.cancel() {
		return nil
	}

	ms := s.source
	ms.mu.Lock()
	if ms.current == s.watch {
		ms.current = nil
	}
	ms.mu.Unlock()

	if err := waitToken(ms.client.Unsubscribe(ms.topic), ms.timeout); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", ms.topic, err)
	}

	return nil
}

var errTokenTimeout = errors.New("timed out waiting for broker")

func waitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errTokenTimeout
	}

	return token.Error()
}
