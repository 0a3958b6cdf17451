package handlers

import (
	"errors"
	"net/http"

	"smovers/services/booking"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bookingStatus maps lifecycle error codes to HTTP statuses.
var bookingStatus = map[booking.Code]int{
	booking.CodeValidation:     http.StatusBadRequest,
	booking.CodeNotFound:       http.StatusNotFound,
	booking.CodeAlreadyUsed:    http.StatusConflict,
	booking.CodeAlreadyRated:   http.StatusConflict,
	booking.CodeInvalidState:   http.StatusConflict,
	booking.CodeNotEligible:    http.StatusBadRequest,
	booking.CodeForbidden:      http.StatusForbidden,
	booking.CodeInvalidToken:   http.StatusUnauthorized,
	booking.CodeAlreadyHandled: http.StatusUnauthorized,
	booking.CodeUnexpected:     http.StatusInternalServerError,
}

// respondBookingError writes a lifecycle error. Anything that is not a
// *booking.Error is treated as unexpected.
func respondBookingError(c *gin.Context, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		getLogger(c).Error("unclassified booking error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, string(booking.CodeUnexpected), "Something went wrong, please try again")
		return
	}
	status, ok := bookingStatus[be.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		getLogger(c).Error("booking operation failed", zap.Error(err))
		utils.JSONError(c, status, string(be.Code), "Something went wrong, please try again")
		return
	}
	utils.JSONError(c, status, string(be.Code), be.Message)
}
