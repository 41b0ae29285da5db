// Package gazelinemqtt publishes line-advance events and reading speed
// updates to an MQTT broker as JSON.
package gazelinemqtt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gazeline-go/gazeline-go"
	"github.com/gazeline-go/gazeline-go/readingspeed"
)

// ErrNotConnected is returned when a publish is attempted while the broker
// connection is down.
var ErrNotConnected = errors.New("not connected to broker")

const (
	// DefaultTopicPrefix is the default topic prefix for published messages.
	DefaultTopicPrefix = "gazeline"

	// DefaultQoS is the default MQTT quality of service for publishes.
	DefaultQoS byte = 0

	// DefaultConnectTimeout is the default time allowed for the initial
	// broker connection.
	DefaultConnectTimeout = 5 * time.Second
)

// Stats describes emitter activity counters.
type Stats struct {
	// Connected indicates whether the broker connection is up.
	Connected bool

	// Events is the number of line-advance events published.
	Events uint64

	// Speeds is the number of speed updates published.
	Speeds uint64

	// Errors is the number of failed publishes.
	Errors uint64
}

// Emitter publishes line-advance events to <prefix>/events and reading
// speed updates to <prefix>/speed. The broker connection reconnects
// automatically after the initial Connect succeeds.
//
// This type is concurrency safe.
type Emitter interface {
	// Connect establishes the broker connection, blocking until it is up,
	// the connect timeout elapses, or the ctx is canceled.
	//
	// ctx may be nil.
	Connect(ctx context.Context) error

	// Disconnect closes the broker connection.
	Disconnect()

	// Observe publishes a line-advance event. Intended as a processor
	// listener.
	Observe(ev gazeline.LineAdvanceEvent)

	// ObserveSpeed publishes a reading speed update. Intended as an
	// estimator listener.
	ObserveSpeed(u readingspeed.Update)

	// Stats returns a snapshot of emitter activity counters.
	Stats() Stats
}

// EmitterBuilder builds Emitter instances.
//
// This type is not concurrency safe.
type EmitterBuilder interface {
	// WithClientID configures the MQTT client ID. By default a random ID
	// with a gazeline prefix is used.
	WithClientID(id string) EmitterBuilder

	// WithTopicPrefix configures the topic prefix for published messages.
	WithTopicPrefix(prefix string) EmitterBuilder

	// WithQoS configures the MQTT quality of service for publishes.
	WithQoS(qos byte) EmitterBuilder

	// WithConnectTimeout configures the time allowed for the initial broker
	// connection.
	WithConnectTimeout(timeout time.Duration) EmitterBuilder

	// WithLogger configures a logger for connection lifecycle and fault
	// logging. By default no logging is performed.
	WithLogger(logger *slog.Logger) EmitterBuilder

	// Build returns a new Emitter using the builder's configuration.
	Build() Emitter
}

type emitterConfig struct {
	brokerURL      string
	clientID       string
	topicPrefix    string
	qos            byte
	connectTimeout time.Duration
	logger         *slog.Logger
}

var _ EmitterBuilder = &emitterConfig{}

// With returns a new Emitter for the brokerURL with default configuration.
func With(brokerURL string) Emitter {
	return Builder(brokerURL).Build()
}

// Builder returns an EmitterBuilder for the brokerURL, e.g.
// "tcp://localhost:1883".
func Builder(brokerURL string) EmitterBuilder {
	return &emitterConfig{
		brokerURL:      brokerURL,
		clientID:       "gazeline-" + uuid.NewString(),
		topicPrefix:    DefaultTopicPrefix,
		qos:            DefaultQoS,
		connectTimeout: DefaultConnectTimeout,
	}
}

func (c *emitterConfig) WithClientID(id string) EmitterBuilder {
	c.clientID = id
	return c
}

func (c *emitterConfig) WithTopicPrefix(prefix string) EmitterBuilder {
	c.topicPrefix = prefix
	return c
}

func (c *emitterConfig) WithQoS(qos byte) EmitterBuilder {
	c.qos = qos
	return c
}

func (c *emitterConfig) WithConnectTimeout(timeout time.Duration) EmitterBuilder {
	c.connectTimeout = timeout
	return c
}

func (c *emitterConfig) WithLogger(logger *slog.Logger) EmitterBuilder {
	c.logger = logger
	return c
}

func (c *emitterConfig) Build() Emitter {
	return newEmitter(c)
}
