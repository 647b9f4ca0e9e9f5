package routes

import (
	"github.com/gin-gonic/gin"

	"lifeline/internal/config"
	"lifeline/internal/middleware"
)

func setupRealtimeRoutes(router *gin.Engine, cfg *config.Config, h *Handlers) {
	// The live channel authenticates like any API route; the upgrade
	// happens after the JWT is verified.
	router.GET("/ws", middleware.AuthRequired(cfg.Security.JWTSecret), h.WebSocket.HandleWebSocket)
}
