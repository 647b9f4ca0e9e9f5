package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
)

type TripHandler struct {
	tripService services.TripService
}

func NewTripHandler(tripService services.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

type requestTripBody struct {
	Longitude float64 `json:"longitude" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
}

// RequestTrip creates an emergency trip for the authenticated patient and
// starts dispatch. The response acknowledges the search; the match arrives
// over the live channel.
func (h *TripHandler) RequestTrip(c *gin.Context) {
	var body requestTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	pickup := models.NewGeoPoint(body.Longitude, body.Latitude)
	if !pickup.IsValid() {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	patientID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	trip, err := h.tripService.RequestTrip(c.Request.Context(), patientID, pickup)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Searching for an ambulance", trip)
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip retrieved", trip)
}

// AcceptTrip claims a pending trip for the authenticated ambulance. Exactly
// one caller wins; the rest get a conflict.
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	ambulanceID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	trip, err := h.tripService.Accept(c.Request.Context(), tripID, ambulanceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip accepted", trip)
}

func (h *TripHandler) MarkEnRoute(c *gin.Context) {
	h.transition(c, h.tripService.MarkEnRoute, "Trip en-route")
}

func (h *TripHandler) MarkArrived(c *gin.Context) {
	h.transition(c, h.tripService.MarkArrived, "Ambulance arrived")
}

func (h *TripHandler) CompleteTrip(c *gin.Context) {
	h.transition(c, h.tripService.Complete, "Trip completed")
}

func (h *TripHandler) CancelTrip(c *gin.Context) {
	h.transition(c, h.tripService.Cancel, "Trip cancelled")
}

func (h *TripHandler) transition(c *gin.Context, fn func(context.Context, primitive.ObjectID) (*models.Trip, error), message string) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	trip, err := fn(c.Request.Context(), tripID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, message, trip)
}

type operatorAssignBody struct {
	AmbulanceID string `json:"ambulance_id" binding:"required"`
}

// OperatorAssign manually binds an ambulance to an escalated trip.
func (h *TripHandler) OperatorAssign(c *gin.Context) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	var body operatorAssignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ambulanceID, err := primitive.ObjectIDFromHex(body.AmbulanceID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	trip, err := h.tripService.OperatorAssign(c.Request.Context(), tripID, ambulanceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance assigned", trip)
}

type operatorCreateTripBody struct {
	PatientID   string  `json:"patient_id" binding:"required"`
	AmbulanceID string  `json:"ambulance_id" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	Latitude    float64 `json:"latitude" binding:"required"`
}

// OperatorCreateTrip opens a trip on a patient's behalf, pre-bound to a
// chosen ambulance.
func (h *TripHandler) OperatorCreateTrip(c *gin.Context) {
	var body operatorCreateTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	patientID, err := primitive.ObjectIDFromHex(body.PatientID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid patient ID")
		return
	}
	ambulanceID, err := primitive.ObjectIDFromHex(body.AmbulanceID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	pickup := models.NewGeoPoint(body.Longitude, body.Latitude)
	if !pickup.IsValid() {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	trip, err := h.tripService.OperatorCreateTrip(c.Request.Context(), patientID, pickup, ambulanceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Trip created and assigned", trip)
}

// ListMyTrips returns the authenticated patient's trip history.
func (h *TripHandler) ListMyTrips(c *gin.Context) {
	patientID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	trips, err := h.tripService.ListByPatient(c.Request.Context(), patientID, listLimit(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trips retrieved", trips)
}

// ListAssignedTrips returns the authenticated ambulance's trip history.
func (h *TripHandler) ListAssignedTrips(c *gin.Context) {
	ambulanceID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	trips, err := h.tripService.ListByAmbulance(c.Request.Context(), ambulanceID, listLimit(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trips retrieved", trips)
}

// ListEscalatedTrips returns pending trips flagged for operator attention.
func (h *TripHandler) ListEscalatedTrips(c *gin.Context) {
	trips, err := h.tripService.ListEscalated(c.Request.Context(), listLimit(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Escalated trips retrieved", trips)
}
