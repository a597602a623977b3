package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/paddle-arena/internal/model"
)

// GameTopic is the topic carrying a game's session events
func GameTopic(gameID model.GameID) string {
	return "game:" + string(gameID)
}

// PlayerTopic is the topic carrying a player's chat events
func PlayerTopic(playerID model.PlayerID) string {
	return "player:" + string(playerID)
}

// Message is one outbound event. Data is the JSON-encoded wire event.
type Message struct {
	Event string
	Data  []byte

	// final closes the hub once the message has been queued to every client
	final bool
}

// Hub fans messages for a single topic out to its subscribers
type Hub struct {
	topic   string
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a topic
func NewHub(topic string, logger *slog.Logger) *Hub {
	return &Hub{
		topic:      topic,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("topic", topic)),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("stream client registered",
				slog.String("client_id", client.id),
				slog.String("subscriber", client.subscriber),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("stream client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				if !client.deliver(message) {
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("stream messages dropped, client buffers full",
					slog.String("event", message.Event),
					slog.Int("dropped", dropped))
			}
			if message.final {
				h.Close()
				h.shutdown()
				return
			}

		case <-h.done:
			h.shutdown()
			return
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clientCount := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Debug("hub stopped", slog.Int("disconnected_clients", clientCount))
}

// Register adds a client to the hub. It returns false if the hub has closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for every client
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast dropped, hub buffer full", slog.String("event", message.Event))
	}
}

// broadcastLast queues a final message, waiting for room in the buffer
func (h *Hub) broadcastLast(message Message) {
	message.final = true
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Close shuts down the hub and ends every client's stream
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Done is closed when the hub shuts down
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager owns the hubs for every active topic
type HubManager struct {
	hubs   map[string]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[string]*Hub),
		logger: logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the hub for a topic, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(topic string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		return hub
	}

	hub := NewHub(topic, m.logger)
	m.hubs[topic] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a topic, or nil if it doesn't exist
func (m *HubManager) GetHub(topic string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[topic]
}

// RetireHub forgets a hub and closes it after delivering a last message
func (m *HubManager) RetireHub(topic string, last Message) {
	m.mu.Lock()
	hub, ok := m.hubs[topic]
	delete(m.hubs, topic)
	m.mu.Unlock()

	if ok {
		hub.broadcastLast(last)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for topic, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, topic)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// CloseAll closes every hub, ending all streams
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for topic, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, topic)
	}
}

// HubCount returns the number of open hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}
