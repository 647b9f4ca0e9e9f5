package websocket

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly in production
	},
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
	}
}

// HandleWebSocket upgrades an authenticated request to a live channel. The
// auth middleware must have set entity_id and entity_type on the context.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	entityID, exists := c.Get("entity_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entityType, exists := c.Get("entity_type")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Entity type not found"})
		return
	}

	entityIDStr, ok := entityID.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity ID"})
		return
	}

	entityTypeStr, ok := entityType.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity type"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// Session id disambiguates this socket from any earlier one held by
	// the same entity, so stale disconnects cannot withdraw a fresh
	// registration.
	sessionID := primitive.NewObjectID().Hex()

	client := NewClient(h.hub, conn, entityIDStr, entityTypeStr, sessionID)
	h.hub.register <- client

	// The request context dies with the HTTP handler; the socket outlives it.
	go client.writePump()
	go client.readPump(context.Background())
}
