package routes

import (
	"github.com/gin-gonic/gin"

	"lifeline/internal/config"
	"lifeline/internal/middleware"
	"lifeline/internal/utils"
)

func setupPatientRoutes(r *gin.RouterGroup, cfg *config.Config, h *Handlers) {
	patients := r.Group("/patients")
	{
		patients.POST("/", h.Patient.Register)

		authed := patients.Group("")
		authed.Use(middleware.AuthRequired(cfg.Security.JWTSecret))
		{
			authed.GET("/:id", h.Patient.Get)
		}
	}
}

func setupAmbulanceRoutes(r *gin.RouterGroup, cfg *config.Config, h *Handlers) {
	ambulances := r.Group("/ambulances")
	{
		ambulances.POST("/", h.Ambulance.Register)

		authed := ambulances.Group("")
		authed.Use(middleware.AuthRequired(cfg.Security.JWTSecret))
		{
			authed.GET("/:id", h.Ambulance.Get)

			crew := authed.Group("")
			crew.Use(middleware.RoleRequired(utils.EntityTypeAmbulance))
			{
				crew.PUT("/availability", h.Ambulance.SetAvailability)
				crew.PUT("/location", h.Ambulance.UpdateLocation)
			}
		}
	}
}

func setupHospitalRoutes(r *gin.RouterGroup, cfg *config.Config, h *Handlers) {
	hospitals := r.Group("/hospitals")
	{
		hospitals.POST("/", h.Hospital.Register)

		authed := hospitals.Group("")
		authed.Use(middleware.AuthRequired(cfg.Security.JWTSecret))
		{
			authed.GET("/nearby", h.Hospital.FindDestinations)
			authed.GET("/:id", h.Hospital.Get)

			staff := authed.Group("")
			staff.Use(middleware.RoleRequired(utils.EntityTypeHospital))
			{
				staff.PUT("/inventory", h.Hospital.UpdateInventory)
			}
		}
	}
}
