// Package livereload maintains the persistent browser connections of the dev
// server and pushes rebuild notifications to them.
package livereload

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Message is the payload broadcast to connected clients after a rebuild.
type Message struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
}

// Hub owns the set of live sessions. All session state is confined to the
// run loop goroutine; handlers and broadcasters talk to it over channels.
type Hub struct {
	logger *slog.Logger

	upgrader   websocket.Upgrader
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan Message
	done       chan struct{}
	wg         sync.WaitGroup

	closed atomic.Bool
	count  atomic.Int64
}

// NewHub constructs a hub. Call Start before serving connections.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan Message),
		done:       make(chan struct{}),
	}
}

// Start launches the hub's event loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Hub) run() {
	defer h.wg.Done()
	sessions := map[*websocket.Conn]struct{}{}

	for {
		select {
		case conn := <-h.register:
			sessions[conn] = struct{}{}
			h.count.Store(int64(len(sessions)))
			h.logger.Info("livereload client connected", "remote", conn.RemoteAddr(), "clients", len(sessions))

		case conn := <-h.unregister:
			if _, ok := sessions[conn]; ok {
				delete(sessions, conn)
				_ = conn.Close()
				h.count.Store(int64(len(sessions)))
				h.logger.Info("livereload client disconnected", "remote", conn.RemoteAddr(), "clients", len(sessions))
			}

		case msg := <-h.broadcast:
			// Best effort over a snapshot: a failed send drops that
			// session and the broadcast continues.
			snapshot := make([]*websocket.Conn, 0, len(sessions))
			for conn := range sessions {
				snapshot = append(snapshot, conn)
			}
			for _, conn := range snapshot {
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("livereload send failed", "remote", conn.RemoteAddr(), "error", err)
					delete(sessions, conn)
					_ = conn.Close()
				}
			}
			h.count.Store(int64(len(sessions)))

		case <-h.done:
			for conn := range sessions {
				_ = conn.Close()
			}
			h.count.Store(0)
			return
		}
	}
}

// Handler upgrades an HTTP request into a live-reload session.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("livereload upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
		return
	}

	// Drain the connection so close/error is noticed promptly. Clients do
	// not send meaningful data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case h.unregister <- conn:
				case <-h.done:
				}
				return
			}
		}
	}()
}

// Broadcast notifies every connected client of a rebuild.
func (h *Hub) Broadcast(kind string, version uint64) {
	select {
	case h.broadcast <- Message{Type: kind, Version: version}:
	case <-h.done:
	}
}

// ClientCount reports the number of connected sessions.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Shutdown stops accepting connections, closes every session and joins the
// event loop.
func (h *Hub) Shutdown() {
	if h.closed.Swap(true) {
		return
	}
	close(h.done)
	h.wg.Wait()
}
