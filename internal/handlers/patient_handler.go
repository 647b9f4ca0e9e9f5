package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"
)

type PatientHandler struct {
	patientService services.PatientService
}

func NewPatientHandler(patientService services.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

type registerPatientBody struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone"`
	BloodGroup     string `json:"blood_group"`
	MedicalHistory string `json:"medical_history"`
}

func (h *PatientHandler) Register(c *gin.Context) {
	var body registerPatientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	patient := &models.Patient{
		Name:           body.Name,
		Phone:          body.Phone,
		BloodGroup:     body.BloodGroup,
		MedicalHistory: body.MedicalHistory,
	}

	if err := h.patientService.Register(c.Request.Context(), patient); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Patient registered", patient)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid patient ID")
		return
	}

	patient, err := h.patientService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Patient retrieved", patient)
}
