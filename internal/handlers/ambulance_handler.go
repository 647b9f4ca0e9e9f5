package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
)

type AmbulanceHandler struct {
	ambulanceService services.AmbulanceService
	tripService      services.TripService
}

func NewAmbulanceHandler(ambulanceService services.AmbulanceService, tripService services.TripService) *AmbulanceHandler {
	return &AmbulanceHandler{
		ambulanceService: ambulanceService,
		tripService:      tripService,
	}
}

type registerAmbulanceBody struct {
	DriverName    string  `json:"driver_name" binding:"required"`
	DriverPhone   string  `json:"driver_phone" binding:"required"`
	VehicleNumber string  `json:"vehicle_number" binding:"required"`
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
}

func (h *AmbulanceHandler) Register(c *gin.Context) {
	var body registerAmbulanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ambulance := &models.Ambulance{
		DriverName:    body.DriverName,
		DriverPhone:   body.DriverPhone,
		VehicleNumber: body.VehicleNumber,
		Location:      models.NewGeoPoint(body.Longitude, body.Latitude),
	}

	if err := h.ambulanceService.Register(c.Request.Context(), ambulance); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ambulance registered", ambulance)
}

func (h *AmbulanceHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	ambulance, err := h.ambulanceService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance retrieved", ambulance)
}

type availabilityBody struct {
	Status models.AmbulanceStatus `json:"status" binding:"required"`
}

// SetAvailability toggles the authenticated crew between ready and offline.
func (h *AmbulanceHandler) SetAvailability(c *gin.Context) {
	var body availabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ambulanceID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.ambulanceService.SetAvailability(c.Request.Context(), ambulanceID, body.Status); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated", map[string]interface{}{
		"status": body.Status,
	})
}

type locationBody struct {
	Longitude float64 `json:"longitude" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
}

// UpdateLocation is the HTTP fallback for position reports; crews normally
// stream these over the live channel.
func (h *AmbulanceHandler) UpdateLocation(c *gin.Context) {
	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ambulanceID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	location := models.NewGeoPoint(body.Longitude, body.Latitude)
	if err := h.tripService.UpdateLocation(c.Request.Context(), ambulanceID, location); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}
