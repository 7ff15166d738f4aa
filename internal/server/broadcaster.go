package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/model"
)

var upgrader = websocket.Upgrader{
	// The simulator is a development tool; cross-origin subscribers are
	// expected (visualisers, dashboards).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Broadcaster fans emitted measurements out to the connected websocket
// subscribers. It implements core.Sink; a failed write drops the client
// rather than blocking the detection loop.
type Broadcaster struct {
	log logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewBroadcaster constructs a broadcaster with no subscribers.
func NewBroadcaster(log logging.Logger) *Broadcaster {
	if log == nil {
		log = logging.Noop()
	}
	return &Broadcaster{
		log:     log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Publish sends the measurement to every connected subscriber.
func (b *Broadcaster) Publish(m *model.Measurement) {
	payload, err := json.Marshal(m)
	if err != nil {
		b.log.Warn(context.Background(), "failed to encode measurement", logging.String("error", err.Error()))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.log.Debug(context.Background(), "dropping slow subscriber", logging.String("error", err.Error()))
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// Subscribers returns the number of connected clients.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away. Inbound messages are read and discarded; the
// stream is one-way.
func (b *Broadcaster) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn(r.Context(), "websocket upgrade failed", logging.String("error", err.Error()))
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
