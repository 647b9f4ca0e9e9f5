package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
)

type HospitalHandler struct {
	hospitalService    services.HospitalService
	reservationService services.ReservationService
}

func NewHospitalHandler(hospitalService services.HospitalService, reservationService services.ReservationService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService:    hospitalService,
		reservationService: reservationService,
	}
}

type registerHospitalBody struct {
	Name      string                   `json:"name" binding:"required"`
	Phone     string                   `json:"phone"`
	Address   string                   `json:"address"`
	Longitude float64                  `json:"longitude" binding:"required"`
	Latitude  float64                  `json:"latitude" binding:"required"`
	Inventory models.HospitalInventory `json:"inventory"`
}

func (h *HospitalHandler) Register(c *gin.Context) {
	var body registerHospitalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	hospital := &models.Hospital{
		Name:      body.Name,
		Phone:     body.Phone,
		Address:   body.Address,
		Location:  models.NewGeoPoint(body.Longitude, body.Latitude),
		Inventory: body.Inventory,
	}

	if err := h.hospitalService.Register(c.Request.Context(), hospital); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Hospital registered", hospital)
}

func (h *HospitalHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	hospital, err := h.hospitalService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Hospital retrieved", hospital)
}

// UpdateInventory lets the authenticated hospital publish fresh counts.
func (h *HospitalHandler) UpdateInventory(c *gin.Context) {
	var inventory models.HospitalInventory
	if err := c.ShouldBindJSON(&inventory); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	hospitalID, ok := entityObjectID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.hospitalService.UpdateInventory(c.Request.Context(), hospitalID, inventory); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Inventory updated", inventory)
}

// FindDestinations lists hospitals near a point with a free bed and,
// optionally, stock of a blood group.
func (h *HospitalHandler) FindDestinations(c *gin.Context) {
	longitude, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid longitude")
		return
	}
	latitude, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid latitude")
		return
	}

	origin := models.NewGeoPoint(longitude, latitude)
	if !origin.IsValid() {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	hospitals, err := h.reservationService.FindDestinations(c.Request.Context(), origin, c.Query("blood_group"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Hospitals retrieved", hospitals)
}

type selectHospitalBody struct {
	HospitalID string `json:"hospital_id" binding:"required"`
	BloodGroup string `json:"blood_group"`
}

// SelectHospital reserves a bed at the chosen hospital and binds it to the
// trip as its destination.
func (h *HospitalHandler) SelectHospital(c *gin.Context) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return
	}

	var body selectHospitalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	hospitalID, err := primitive.ObjectIDFromHex(body.HospitalID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	trip, err := h.reservationService.SelectHospital(c.Request.Context(), tripID, hospitalID, body.BloodGroup)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Hospital reserved", trip)
}
