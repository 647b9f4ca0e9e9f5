package routes

import (
	"github.com/gin-gonic/gin"

	"lifeline/internal/config"
	"lifeline/internal/handlers"
	"lifeline/internal/middleware"
	"lifeline/pkg/logger"
	"lifeline/pkg/websocket"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
	Trip      *handlers.TripHandler
	Ambulance *handlers.AmbulanceHandler
	Hospital  *handlers.HospitalHandler
	Patient   *handlers.PatientHandler
	WebSocket *websocket.Handler
}

func Setup(router *gin.Engine, cfg *config.Config, log *logger.Logger, h *Handlers) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": cfg.App.Name})
	})

	api := router.Group("/api/v1")

	setupPatientRoutes(api, cfg, h)
	setupTripRoutes(api, cfg, h)
	setupAmbulanceRoutes(api, cfg, h)
	setupHospitalRoutes(api, cfg, h)
	setupOperatorRoutes(api, cfg, h)
	setupRealtimeRoutes(router, cfg, h)
}
