package routes

import (
	"github.com/gin-gonic/gin"

	"lifeline/internal/config"
	"lifeline/internal/middleware"
	"lifeline/internal/utils"
)

func setupTripRoutes(r *gin.RouterGroup, cfg *config.Config, h *Handlers) {
	trips := r.Group("/trips")
	trips.Use(middleware.AuthRequired(cfg.Security.JWTSecret))
	{
		trips.POST("/", middleware.RoleRequired(utils.EntityTypePatient), h.Trip.RequestTrip)
		trips.GET("/:id", h.Trip.GetTrip)
		trips.PUT("/:id/cancel", middleware.RoleRequired(utils.EntityTypePatient, utils.EntityTypeOperator), h.Trip.CancelTrip)

		// Crew-side lifecycle.
		ambulance := trips.Group("")
		ambulance.Use(middleware.RoleRequired(utils.EntityTypeAmbulance))
		{
			ambulance.PUT("/:id/accept", h.Trip.AcceptTrip)
			ambulance.PUT("/:id/en-route", h.Trip.MarkEnRoute)
			ambulance.PUT("/:id/arrived", h.Trip.MarkArrived)
			ambulance.PUT("/:id/complete", h.Trip.CompleteTrip)
			ambulance.POST("/:id/hospital", h.Hospital.SelectHospital)
		}
	}

	history := r.Group("/history")
	history.Use(middleware.AuthRequired(cfg.Security.JWTSecret))
	{
		history.GET("/patient", middleware.RoleRequired(utils.EntityTypePatient), h.Trip.ListMyTrips)
		history.GET("/ambulance", middleware.RoleRequired(utils.EntityTypeAmbulance), h.Trip.ListAssignedTrips)
	}
}

func setupOperatorRoutes(r *gin.RouterGroup, cfg *config.Config, h *Handlers) {
	operators := r.Group("/operator")
	operators.Use(middleware.AuthRequired(cfg.Security.JWTSecret), middleware.RoleRequired(utils.EntityTypeOperator))
	{
		operators.GET("/escalations", h.Trip.ListEscalatedTrips)
		operators.POST("/trips", h.Trip.OperatorCreateTrip)
		operators.PUT("/trips/:id/assign", h.Trip.OperatorAssign)
	}
}
