package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dressguard/dressguard/internal/domain"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Hub fans events out to every connected websocket client.
// Broadcasts never block: events are dropped when the hub buffer is full, and
// a client whose send buffer is full is disconnected.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
	now        func() time.Time
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws_hub"),
		now:        time.Now,
	}
}

// Run dispatches registrations and events until ctx is cancelled,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.broadcastAll(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcastAll(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event failed", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.logger.Warn("dropping slow websocket client")
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast queues an event for every client; it reports false when the event was dropped
func (h *Hub) Broadcast(eventType EventType, data interface{}) bool {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: h.now(),
	}

	select {
	case h.broadcast <- event:
		return true
	default:
		return false
	}
}

// Record publishes a persisted violation; it lets the hub act as a logger sink
func (h *Hub) Record(_ context.Context, v domain.ViolationRecord) error {
	if !h.Broadcast(EventViolationLogged, ViolationLoggedData{
		ID:         v.ID,
		Filename:   v.Filename,
		Identities: v.Identities,
		Items:      v.Items,
		LoggedAt:   v.LoggedAt,
	}) {
		h.logger.Warn("event buffer full, dropping violation event", "filename", v.Filename)
	}
	return nil
}

func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
