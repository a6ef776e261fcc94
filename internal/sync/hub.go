package sync

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lipidlibrarian/internal/metrics"
	"lipidlibrarian/pkg/logger"
)

const (
	queueSize    = 256
	writeTimeout = 2 * time.Second
)

// Hub fans query progress out to TCP and WebSocket subscribers.
type Hub struct {
	log *zap.SugaredLogger

	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}

	// writeMu serialises broadcasts so a connection has one writer at a time
	writeMu sync.Mutex

	queue     chan QueryEvent
	startOnce sync.Once
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:       logger.Or(log, "hub"),
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		queue:     make(chan QueryEvent, queueSize),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
	metrics.WebSocketClients.Inc()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.wsClients[ws]
	delete(h.wsClients, ws)
	h.mu.Unlock()
	if ok {
		metrics.WebSocketClients.Dec()
	}
	_ = ws.Close()
}

// Observe queues a query event for broadcast; it makes Hub a query Observer.
// It never waits on subscribers: when the queue is full the event is dropped.
func (h *Hub) Observe(e QueryEvent) {
	h.startOnce.Do(func() { go h.drain() })
	select {
	case h.queue <- e:
	default:
		metrics.ProgressEventsDropped.Inc()
		h.log.Debugw("progress queue full, event dropped", "type", e.Type, "query_id", e.QueryID)
	}
}

func (h *Hub) drain() {
	for e := range h.queue {
		h.BroadcastJSON(e)
	}
}

// BroadcastJSON writes v as one JSON line to every subscriber and drops the
// subscribers that fail. The subscriber lists are not locked during writes.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Warnw("encode broadcast", logger.FieldError, err)
		return
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	conns, wss := h.snapshot()
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		_, err := w.Write(b)
		if err == nil {
			err = w.Flush()
		}
		if err != nil {
			h.Remove(c)
		}
	}
	for _, ws := range wss {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.RemoveWS(ws)
		}
	}
}

func (h *Hub) snapshot() ([]net.Conn, []*websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]net.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	wss := make([]*websocket.Conn, 0, len(h.wsClients))
	for ws := range h.wsClients {
		wss = append(wss, ws)
	}
	return conns, wss
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

func (h *Hub) Welcome(conn net.Conn) {
	msg := fmt.Sprintf("{\"type\":\"welcome\",\"message\":\"connected\",\"clients\":%d}\n", h.Stats().TCPClients)
	_, _ = conn.Write([]byte(msg))
}
