package events

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
)

// MQTTEmitter publishes stage events to <topic>/<stage>.
type MQTTEmitter struct {
	broker   string
	clientID string
	topic    string
	encoding string
	client   mqtt.Client
	logger   *logger.Logger

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
	connected bool
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// NewMQTTEmitter creates an emitter from configuration. Connect must be
// called before events are published.
func NewMQTTEmitter(cfg *config.Config, logger *logger.Logger) *MQTTEmitter {
	broker := cfg.MQTTBroker
	if broker != "" && !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	return &MQTTEmitter{
		broker:    broker,
		clientID:  cfg.MQTTClientID,
		topic:     strings.TrimSuffix(cfg.MQTTTopic, "/"),
		encoding:  cfg.MQTTEncoding,
		logger:    logger,
		published: make(map[string]uint64),
	}
}

// Connect establishes the connection to the broker with auto-reconnect.
func (e *MQTTEmitter) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(e.broker)
	opts.SetClientID(e.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.setConnected(true)
		e.logger.Info("MQTT connection established: %s", e.broker)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.setConnected(false)
		e.logger.Warning("MQTT connection lost, will auto-reconnect: %v", err)
	}

	e.client = mqtt.NewClient(opts)

	e.logger.Info("Connecting to MQTT broker %s", e.broker)
	token := e.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.setConnected(true)
	return nil
}

// Emit publishes the event; failures are counted and logged.
func (e *MQTTEmitter) Emit(event Event) {
	if err := e.Publish(event); err != nil {
		e.logger.Warning("Failed to publish %s event: %v", event.Stage, err)
	}
}

// Publish publishes one event and waits for the broker acknowledgement.
func (e *MQTTEmitter) Publish(event Event) error {
	if !e.isConnected() {
		e.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := event.Encode(e.encoding)
	if err != nil {
		e.countError()
		return fmt.Errorf("failed to encode event: %w", err)
	}

	topic := e.Topic(event.Stage)
	token := e.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		e.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	return nil
}

// Topic returns the topic events of a stage are published to.
func (e *MQTTEmitter) Topic(stage string) string {
	return fmt.Sprintf("%s/%s", e.topic, stage)
}

// Disconnect closes the MQTT connection.
func (e *MQTTEmitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		e.logger.Info("MQTT disconnected")
	}
	e.setConnected(false)
}

// Stats returns emitter statistics.
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}

	return Stats{
		Connected: e.connected,
		Published: published,
		Errors:    e.errors,
	}
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
