// Package gazelinews serves gaze streams over WebSocket. Clients send sample
// and context frames as JSON, the server feeds them into a processor and
// broadcasts the line-advance events the processor fires back to every
// connected client.
package gazelinews

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gazeline-go/gazeline-go"
)

// ErrServerFull is returned to clients that connect while the server is at
// its connection limit.
var ErrServerFull = errors.New("server full")

const (
	// DefaultMaxConnections is the default number of concurrent clients.
	DefaultMaxConnections uint = 16

	// DefaultQueueSize is the default per-client outbound queue length.
	DefaultQueueSize = 32
)

// Frame types exchanged over a connection.
const (
	FrameSample  = "sample"
	FrameContext = "context"
	FrameEvent   = "event"
)

// Frame is the JSON envelope for every message on a connection.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Stats describes server activity counters.
type Stats struct {
	// Connections is the number of currently connected clients.
	Connections int

	// FramesIn is the number of frames received from clients.
	FramesIn uint64

	// EventsOut is the number of event frames queued for delivery.
	EventsOut uint64

	// Dropped is the number of event frames discarded because a client's
	// queue was full.
	Dropped uint64

	// Rejected is the number of connections refused at the limit.
	Rejected uint64
}

// Server accepts WebSocket connections carrying gaze sample and context
// frames, ingests them into a processor, and broadcasts line-advance events
// to connected clients. Connections beyond the configured limit are rejected
// with a 503 response.
//
// This type is concurrency safe.
type Server interface {
	http.Handler

	// Stats returns a snapshot of server activity counters.
	Stats() Stats

	// Close disconnects all clients and stops broadcasting. The server
	// rejects clients that connect after Close.
	Close() error
}

// ServerBuilder builds Server instances.
//
// This type is not concurrency safe.
type ServerBuilder interface {
	// WithMaxConnections configures the max number of concurrent client
	// connections, beyond which connections are rejected with a 503
	// response.
	WithMaxConnections(max uint) ServerBuilder

	// WithQueueSize configures the per-client outbound queue length. When a
	// client's queue is full its oldest queued frame is dropped to make
	// room.
	WithQueueSize(size int) ServerBuilder

	// WithCheckOrigin configures the origin check for the WebSocket
	// upgrade. By default all origins are allowed.
	WithCheckOrigin(check func(r *http.Request) bool) ServerBuilder

	// WithLogger configures a logger for connection lifecycle and fault
	// logging. By default no logging is performed.
	WithLogger(logger *slog.Logger) ServerBuilder

	// Build returns a new Server using the builder's configuration, feeding
	// the processor.
	Build(processor gazeline.Processor) Server
}

type serverConfig struct {
	maxConnections uint
	queueSize      int
	checkOrigin    func(r *http.Request) bool
	logger         *slog.Logger
}

var _ ServerBuilder = &serverConfig{}

// With returns a new Server with default configuration, feeding the
// processor.
func With(processor gazeline.Processor) Server {
	return Builder().Build(processor)
}

// Builder returns a ServerBuilder.
func Builder() ServerBuilder {
	return &serverConfig{
		maxConnections: DefaultMaxConnections,
		queueSize:      DefaultQueueSize,
		checkOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func (c *serverConfig) WithMaxConnections(max uint) ServerBuilder {
	c.maxConnections = max
	return c
}

func (c *serverConfig) WithQueueSize(size int) ServerBuilder {
	c.queueSize = size
	return c
}

func (c *serverConfig) WithCheckOrigin(check func(r *http.Request) bool) ServerBuilder {
	c.checkOrigin = check
	return c
}

func (c *serverConfig) WithLogger(logger *slog.Logger) ServerBuilder {
	c.logger = logger
	return c
}

func (c *serverConfig) Build(processor gazeline.Processor) Server {
	return newServer(c, processor)
}

func encodeFrame(frameType string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, fmt.Errorf("encoding %s frame: %w", frameType, err)
	}
	return Frame{Type: frameType, Data: raw}, nil
}
