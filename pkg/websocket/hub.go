package websocket

import (
	"context"
	"sync"
	"time"
)

// Message is the envelope for every event pushed over a live channel.
type Message struct {
	Event     string                 `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewMessage(event string, data map[string]interface{}) Message {
	return Message{
		Event:     event,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

// ConnectHook runs after a client registers; used to announce presence.
type ConnectHook func(ctx context.Context, entityID, role, sessionID string)

// DisconnectHook runs after a client unregisters; used to withdraw presence.
// The session id lets the registry ignore stale disconnects that arrive
// after the same entity reconnected.
type DisconnectHook func(ctx context.Context, entityID, role, sessionID string)

// InboundHandler receives messages sent by a connected client.
type InboundHandler func(ctx context.Context, entityID, role string, msg Message)

// Hub tracks the websocket clients connected to this process, keyed by
// entity id. Cross-process addressing goes through the presence registry
// and the relay's Redis channel, not through the hub.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client

	onConnect    ConnectHook
	onDisconnect DisconnectHook
	onInbound    InboundHandler

	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) SetConnectHook(hook ConnectHook) {
	h.onConnect = hook
}

func (h *Hub) SetDisconnectHook(hook DisconnectHook) {
	h.onDisconnect = hook
}

func (h *Hub) SetInboundHandler(handler InboundHandler) {
	h.onInbound = handler
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(ctx, client)

		case client := <-h.unregister:
			h.unregisterClient(ctx, client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(ctx context.Context, client *Client) {
	h.mutex.Lock()
	// A reconnect supersedes the previous socket for the same entity.
	if prev, ok := h.clients[client.EntityID]; ok && prev != client {
		close(prev.send)
	}
	h.clients[client.EntityID] = client
	h.mutex.Unlock()

	if h.onConnect != nil {
		h.onConnect(ctx, client.EntityID, client.Role, client.SessionID)
	}
}

func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.mutex.Lock()
	current, ok := h.clients[client.EntityID]
	if ok && current == client {
		delete(h.clients, client.EntityID)
		close(client.send)
	}
	h.mutex.Unlock()

	if h.onDisconnect != nil {
		h.onDisconnect(ctx, client.EntityID, client.Role, client.SessionID)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

// SendToEntity delivers a message to the entity's socket if it is connected
// to this process. Returns false when the entity is not local.
func (h *Hub) SendToEntity(entityID string, message Message) bool {
	h.mutex.RLock()
	client, ok := h.clients[entityID]
	h.mutex.RUnlock()

	if !ok {
		return false
	}

	return client.enqueue(message)
}

// IsConnected reports whether the entity has a socket on this process.
func (h *Hub) IsConnected(entityID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, ok := h.clients[entityID]
	return ok
}

func (h *Hub) handleInbound(ctx context.Context, client *Client, msg Message) {
	if h.onInbound != nil {
		h.onInbound(ctx, client.EntityID, client.Role, msg)
	}
}
