// Package stream publishes live run statistics over HTTP and WebSocket.
package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"wildfire-ca/internal/sims/fire"
)

const (
	writeWait  = time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Frame is one message pushed to subscribers.
type Frame struct {
	Type  string           `json:"type"`
	Tick  int              `json:"tick"`
	Rows  int              `json:"rows"`
	Cols  int              `json:"cols"`
	Stats fire.StepStats   `json:"stats"`
	Spots []fire.SpotEvent `json:"spots,omitempty"`
	Grid  []byte           `json:"grid,omitempty"` // one cell state per byte, row-major
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans tick frames out to WebSocket subscribers. Slow subscribers miss
// frames rather than stall the simulation.
type Hub struct {
	eng      *fire.Engine
	log      *log.Logger
	withGrid bool
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    Frame
	closed  bool
}

// NewHub returns a hub for eng. withGrid adds the full state grid to frames.
func NewHub(eng *fire.Engine, logger *log.Logger, withGrid bool) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	lat := eng.Lattice()
	return &Hub{
		eng:      eng,
		log:      logger,
		withGrid: withGrid,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		last:    Frame{Type: "hello", Tick: eng.StepCount(), Rows: lat.Rows, Cols: lat.Cols, Stats: eng.Stats()},
	}
}

// OnStep implements runner.Observer. It runs on the simulation goroutine.
func (h *Hub) OnStep(tick int, stats fire.StepStats, spots []fire.SpotEvent) error {
	lat := h.eng.Lattice()
	f := Frame{Type: "tick", Tick: tick, Rows: lat.Rows, Cols: lat.Cols, Stats: stats, Spots: spots}
	if h.withGrid {
		states := h.eng.States()
		f.Grid = make([]byte, len(states))
		for i, s := range states {
			f.Grid[i] = byte(s)
		}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.last = f
	h.last.Grid = nil
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Debug("subscriber lagging, frame dropped", "tick", tick)
		}
	}
	h.mu.Unlock()
	return nil
}

// Last returns the most recent frame without its grid.
func (h *Hub) Last() Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Router mounts /healthz, /stats and /ws.
func (h *Hub) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.Last()); err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
		}
	})
	r.Get("/ws", h.serveWS)
	return r
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.log.Info("subscriber joined", "remote", r.RemoteAddr)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	hello := h.last
	hello.Type = "hello"
	if b, err := json.Marshal(hello); err == nil {
		c.send <- b
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages and keeps the pong deadline fresh.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
