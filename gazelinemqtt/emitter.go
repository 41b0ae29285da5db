package gazelinemqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gazeline-go/gazeline-go"
	"github.com/gazeline-go/gazeline-go/readingspeed"
)

const (
	// publishWait is the max time allowed for a publish to complete.
	publishWait = 2 * time.Second

	connectRetryInterval = 2 * time.Second
	maxReconnectInterval = 30 * time.Second
)

type emitter struct {
	config      *emitterConfig
	eventsTopic string
	speedTopic  string

	mtx       sync.Mutex
	client    mqtt.Client
	connected bool

	events atomic.Uint64
	speeds atomic.Uint64
	errors atomic.Uint64
}

var _ Emitter = &emitter{}

func newEmitter(c *emitterConfig) *emitter {
	return &emitter{
		config:      c,
		eventsTopic: c.topicPrefix + "/events",
		speedTopic:  c.topicPrefix + "/speed",
	}
}

func (e *emitter) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mtx.Lock()
	if e.client != nil {
		e.mtx.Unlock()
		return nil
	}
	e.mtx.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(e.config.brokerURL)
	opts.SetClientID(e.config.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)
	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		if e.config.logger != nil {
			e.config.logger.Info("broker connection established", "broker", e.config.brokerURL, "client", e.config.clientID)
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		if e.config.logger != nil {
			e.config.logger.Warn("broker connection lost", "broker", e.config.brokerURL, "error", err)
		}
	}

	client := mqtt.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, e.config.connectTimeout)
	defer cancel()
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return fmt.Errorf("connecting to %s: %w", e.config.brokerURL, ctx.Err())
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", e.config.brokerURL, err)
	}

	e.mtx.Lock()
	e.client = client
	e.connected = true
	e.mtx.Unlock()
	return nil
}

func (e *emitter) Disconnect() {
	e.mtx.Lock()
	client := e.client
	e.client = nil
	e.connected = false
	e.mtx.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		if e.config.logger != nil {
			e.config.logger.Info("broker disconnected", "broker", e.config.brokerURL)
		}
	}
}

func (e *emitter) Observe(ev gazeline.LineAdvanceEvent) {
	if err := e.publishJSON(e.eventsTopic, ev); err != nil {
		e.errors.Add(1)
		if e.config.logger != nil {
			e.config.logger.Warn("event publish failed", "error", err)
		}
		return
	}
	e.events.Add(1)
	if e.config.logger != nil && e.config.logger.Enabled(nil, slog.LevelDebug) {
		e.config.logger.Debug("event published", "topic", e.eventsTopic, "line", ev.Line)
	}
}

func (e *emitter) ObserveSpeed(u readingspeed.Update) {
	if err := e.publishJSON(e.speedTopic, u); err != nil {
		e.errors.Add(1)
		if e.config.logger != nil {
			e.config.logger.Warn("speed publish failed", "error", err)
		}
		return
	}
	e.speeds.Add(1)
	if e.config.logger != nil && e.config.logger.Enabled(nil, slog.LevelDebug) {
		e.config.logger.Debug("speed published", "topic", e.speedTopic, "wpm", u.SessionWPM)
	}
}

func (e *emitter) publishJSON(topic string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", topic, err)
	}
	return e.publish(topic, payload)
}

func (e *emitter) publish(topic string, payload []byte) error {
	e.mtx.Lock()
	client, connected := e.client, e.connected
	e.mtx.Unlock()
	if client == nil || !connected {
		return ErrNotConnected
	}

	token := client.Publish(topic, e.config.qos, false, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publishing to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (e *emitter) Stats() Stats {
	e.mtx.Lock()
	connected := e.connected
	e.mtx.Unlock()
	return Stats{
		Connected: connected,
		Events:    e.events.Load(),
		Speeds:    e.speeds.Load(),
		Errors:    e.errors.Load(),
	}
}

func (e *emitter) setConnected(connected bool) {
	e.mtx.Lock()
	e.connected = connected
	e.mtx.Unlock()
}
