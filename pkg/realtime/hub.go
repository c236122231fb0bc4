package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/config"
	"civicdesk/pkg/logger"
	"civicdesk/pkg/telemetry"
)

// sendBuffer is the per-connection FIFO depth before a consumer counts
// as slow and gets disconnected.
const sendBuffer = 64

// Conn is one live websocket session. The send channel is never closed;
// done signals teardown to the dispatch and write sides so a late
// dispatch cannot hit a closed channel.
type Conn struct {
	ID        string
	Principal auth.Principal

	sock *websocket.Conn
	send chan *Frame
	done chan struct{}
	hub  *Hub
	once sync.Once
}

// close tears the session down once; the hub cleans registries on the
// read pump's way out.
func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

// Hub owns all live connections, the room registry and the outbound
// dispatch loop. It implements both the notify push gateway and the chat
// event sink.
type Hub struct {
	Registry *Registry
	outbox   *Outbox

	mu    sync.RWMutex
	conns map[string]*Conn

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
	maxPayload   int64
}

func NewHub(cfg config.RealtimeConfig, allowedOrigins []string) *Hub {
	h := &Hub{
		Registry:     NewRegistry(),
		outbox:       NewOutbox(cfg.QueueCapacity),
		conns:        make(map[string]*Conn),
		writeTimeout: cfg.WriteTimeout.Duration(),
		pingInterval: cfg.PingInterval.Duration(),
		maxPayload:   cfg.MaxPayload.Int64(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, a := range allowedOrigins {
				if a == "*" || a == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Run dispatches queued frames to connection writers until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-h.outbox.Out():
			h.dispatch(f)
		}
	}
}

func (h *Hub) dispatch(f *Frame) {
	h.mu.RLock()
	c := h.conns[f.ConnID]
	h.mu.RUnlock()
	if c == nil {
		f.Done()
		return
	}
	select {
	case c.send <- f:
	case <-c.done:
		f.Done()
	default:
		// slow consumer: drop the frame and the connection
		f.Done()
		telemetry.CountDropped("slow_client")
		logger.Warn("realtime_slow_client_dropped", "conn_id", c.ID, "user_id", c.Principal.ID)
		h.removeConn(c)
		c.close()
	}
}

func (h *Hub) addConn(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	telemetry.ConnectionOpened()
}

func (h *Hub) removeConn(c *Conn) {
	h.mu.Lock()
	_, present := h.conns[c.ID]
	delete(h.conns, c.ID)
	h.mu.Unlock()
	if present {
		h.Registry.DropConnection(c.ID)
		telemetry.ConnectionClosed()
	}
}

// EmitRoom sends one event to every connection in the room. Chat and
// notification emitters call this; delivery is best effort.
func (h *Hub) EmitRoom(room, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("realtime_marshal_failed", "event", event, "error", err)
		return
	}
	if h.maxPayload > 0 && int64(len(payload)) > h.maxPayload {
		telemetry.CountDropped("oversize")
		logger.Warn("realtime_payload_oversize", "event", event, "bytes", len(payload))
		return
	}
	for _, connID := range h.Registry.MembersOf(room) {
		if err := h.outbox.TryEnqueue(connID, payload); err != nil {
			telemetry.CountDropped("queue_full")
			logger.Warn("realtime_outbox_full", "event", event, "conn_id", connID)
		}
	}
}

// EmitConn sends one event to a single connection.
func (h *Hub) EmitConn(connID, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("realtime_marshal_failed", "event", event, "error", err)
		return
	}
	if err := h.outbox.TryEnqueue(connID, payload); err != nil {
		telemetry.CountDropped("queue_full")
		logger.Warn("realtime_outbox_full", "event", event, "conn_id", connID)
	}
}

// writePump is the single writer for a connection; frames leave in FIFO
// order with a write deadline, interleaved with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.sock.Close()
		// release frames that arrived between teardown and exit
		for {
			select {
			case f := <-c.send:
				f.Done()
			default:
				return
			}
		}
	}()
	for {
		select {
		case <-c.done:
			c.sock.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		case f := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			err := c.sock.WriteMessage(websocket.TextMessage, f.Payload)
			f.Done()
			if err != nil {
				return
			}
			telemetry.CountDelivered()
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
