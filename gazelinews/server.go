package gazelinews

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"

	"github.com/gazeline-go/gazeline-go"
)

const (
	// writeWait is the max time allowed for a single write to a client.
	writeWait = 10 * time.Second

	// pongWait is the max time allowed between pongs from a client.
	pongWait = 60 * time.Second

	// pingPeriod is how often clients are pinged. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize is the max size of an inbound frame in bytes.
	maxFrameSize = 4096
)

type server struct {
	config    *serverConfig
	processor gazeline.Processor
	upgrader  websocket.Upgrader
	sem       *semaphore.Weighted

	mtx         sync.Mutex
	clients     map[string]*client
	unsubscribe func()
	closed      bool

	framesIn  atomic.Uint64
	eventsOut atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Frame
	done chan struct{}
}

var _ Server = &server{}

func newServer(c *serverConfig, processor gazeline.Processor) *server {
	s := &server{
		config:    c,
		processor: processor,
		upgrader: websocket.Upgrader{
			CheckOrigin: c.checkOrigin,
		},
		sem:     semaphore.NewWeighted(int64(c.maxConnections)),
		clients: make(map[string]*client),
	}
	s.unsubscribe = processor.Subscribe(s.broadcast)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.sem.TryAcquire(1) {
		s.rejected.Add(1)
		if s.config.logger != nil {
			s.config.logger.Warn("connection rejected", "remote", r.RemoteAddr, "error", ErrServerFull)
		}
		http.Error(w, ErrServerFull.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sem.Release(1)
		if s.config.logger != nil {
			s.config.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		}
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Frame, s.config.queueSize),
		done: make(chan struct{}),
	}
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		s.sem.Release(1)
		conn.Close()
		return
	}
	s.clients[c.id] = c
	connections := len(s.clients)
	s.mtx.Unlock()

	if s.config.logger != nil {
		s.config.logger.Info("client connected", "client", c.id, "remote", conn.RemoteAddr().String(), "connections", connections)
	}

	go s.writePump(c)
	s.readPump(c)
}

// readPump reads frames from the client until the connection fails or is
// dropped.
func (s *server) readPump(c *client) {
	defer s.drop(c)
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if s.config.logger != nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.config.logger.Warn("client read failed", "client", c.id, "error", err)
			}
			return
		}
		s.framesIn.Add(1)
		s.handleFrame(c, data)
	}
}

func (s *server) handleFrame(c *client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		if s.config.logger != nil {
			s.config.logger.Warn("malformed frame", "client", c.id, "error", err)
		}
		return
	}
	switch frame.Type {
	case FrameSample:
		var in gazeline.Input
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			if s.config.logger != nil {
				s.config.logger.Warn("malformed sample frame", "client", c.id, "error", err)
			}
			return
		}
		if err := s.processor.Ingest(in); err != nil {
			if s.config.logger != nil {
				s.config.logger.Error("ingest failed", "client", c.id, "error", err)
			}
		}
	case FrameContext:
		var ctx gazeline.Context
		if err := json.Unmarshal(frame.Data, &ctx); err != nil {
			if s.config.logger != nil {
				s.config.logger.Warn("malformed context frame", "client", c.id, "error", err)
			}
			return
		}
		s.processor.SetContext(ctx)
	default:
		if s.config.logger != nil {
			s.config.logger.Warn("unknown frame type", "client", c.id, "type", frame.Type)
		}
	}
}

// writePump delivers queued frames and keepalive pings to the client.
func (s *server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.drop(c)
	}()
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// broadcast queues an event frame for every connected client, dropping a
// client's oldest queued frame when its queue is full.
func (s *server) broadcast(ev gazeline.LineAdvanceEvent) {
	frame, err := encodeFrame(FrameEvent, ev)
	if err != nil {
		if s.config.logger != nil {
			s.config.logger.Error("event encoding failed", "error", err)
		}
		return
	}

	s.mtx.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mtx.Unlock()

	for _, c := range clients {
		s.enqueue(c, frame)
	}
}

func (s *server) enqueue(c *client, frame Frame) {
	select {
	case c.send <- frame:
		s.eventsOut.Add(1)
		return
	default:
	}
	select {
	case <-c.send:
		s.dropped.Add(1)
	default:
	}
	select {
	case c.send <- frame:
		s.eventsOut.Add(1)
	default:
		s.dropped.Add(1)
	}
}

// drop unregisters a client and closes its connection. Safe to call more
// than once.
func (s *server) drop(c *client) {
	s.mtx.Lock()
	_, ok := s.clients[c.id]
	if ok {
		delete(s.clients, c.id)
	}
	connections := len(s.clients)
	s.mtx.Unlock()
	if !ok {
		return
	}

	close(c.done)
	c.conn.Close()
	s.sem.Release(1)
	if s.config.logger != nil {
		s.config.logger.Info("client disconnected", "client", c.id, "connections", connections)
	}
}

func (s *server) Stats() Stats {
	s.mtx.Lock()
	connections := len(s.clients)
	s.mtx.Unlock()
	return Stats{
		Connections: connections,
		FramesIn:    s.framesIn.Load(),
		EventsOut:   s.eventsOut.Load(),
		Dropped:     s.dropped.Load(),
		Rejected:    s.rejected.Load(),
	}
}

func (s *server) Close() error {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mtx.Unlock()

	s.unsubscribe()
	for _, c := range clients {
		s.drop(c)
	}
	return nil
}
