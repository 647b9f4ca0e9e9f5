package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/services"
	"lifeline/internal/utils"
)

// respondServiceError maps domain sentinels onto HTTP statuses. Conflicts
// are the expected outcome of races (second acceptor, last bed) and are
// reported as 409, not 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interfaces.ErrTripNotFound),
		errors.Is(err, interfaces.ErrAmbulanceNotFound),
		errors.Is(err, interfaces.ErrHospitalNotFound),
		errors.Is(err, interfaces.ErrPatientNotFound):
		utils.NotFoundResponse(c, err.Error())

	case errors.Is(err, interfaces.ErrStatusConflict),
		errors.Is(err, interfaces.ErrDestinationSet),
		errors.Is(err, services.ErrStatusOwnedBySystem):
		utils.ConflictResponse(c, err.Error())

	case errors.Is(err, interfaces.ErrNoBedsAvailable),
		errors.Is(err, interfaces.ErrNoBloodStock):
		utils.ErrorResponse(c, http.StatusConflict, utils.ErrCodeConflict, err.Error())

	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrCodeInternal, err.Error())
	}
}
