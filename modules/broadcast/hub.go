package broadcast

import (
	"context"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a websocket subscriber bound to one private channel.
type Client struct {
	ID      string
	UserID  uint
	Channel string
	Conn    Conn

	writeMu sync.Mutex
}

// NewClient creates a client with a fresh id.
func NewClient(userID uint, channel string, conn Conn) *Client {
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Channel: channel,
		Conn:    conn,
	}
}

func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

type delivery struct {
	channel string
	data    []byte
}

// Hub tracks websocket clients by channel and fans envelopes out to them.
// It is the in-process Sink.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	channels   map[string]map[string]bool // channel -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

var _ Sink = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down", "clients", h.ClientCount())
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case d := <-h.deliveries:
			h.handleDelivery(d)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Name implements Sink.
func (h *Hub) Name() string {
	return "websocket"
}

// Deliver implements Sink. It queues data for the channel's clients.
func (h *Hub) Deliver(ctx context.Context, channel string, data []byte) error {
	select {
	case <-h.done:
		return errHubStopped
	default:
	}
	select {
	case h.deliveries <- delivery{channel: channel, data: data}:
		return nil
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a client to the hub. It returns false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelClientCount returns the number of clients on a channel.
func (h *Hub) ChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.channels[client.Channel] == nil {
		h.channels[client.Channel] = make(map[string]bool)
	}
	h.channels[client.Channel][client.ID] = true
	h.logger.Debug("Client registered", "client_id", client.ID, "user_id", client.UserID, "channel", client.Channel)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if members := h.channels[client.Channel]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, client.Channel)
		}
	}
	h.logger.Debug("Client unregistered", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) handleDelivery(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.channels[d.channel] {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		if err := client.send(d.data); err != nil {
			h.logger.Warn("Failed to send to client", "client_id", client.ID, "channel", d.channel, "error", err)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.channels = make(map[string]map[string]bool)
}
