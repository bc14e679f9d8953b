package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/session"
)

const (
	writeWait  = 5 * time.Second
	clientSend = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedbackHub pushes session snapshots to websocket clients.
type FeedbackHub struct {
	mu      sync.RWMutex
	clients map[*feedbackClient]struct{}
	latest  []byte
	closed  bool
}

type feedbackClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *feedbackClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewFeedbackHub creates an empty FeedbackHub.
func NewFeedbackHub() *FeedbackHub {
	return &FeedbackHub{clients: make(map[*feedbackClient]struct{})}
}

// Publish sends snap to every client. It never blocks: a client that has
// fallen behind misses the snapshot.
func (h *FeedbackHub) Publish(snap session.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *FeedbackHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *FeedbackHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *FeedbackHub) add(c *feedbackClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	return true
}

func (h *FeedbackHub) remove(c *feedbackClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// ServeHTTP upgrades the request and streams snapshots until the client
// goes away. The latest snapshot is sent on connect.
func (h *FeedbackHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	c := &feedbackClient{conn: conn, send: make(chan []byte, clientSend)}
	if !h.add(c) {
		return
	}
	defer h.remove(c)

	// Reads only detect the close; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}
