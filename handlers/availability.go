package handlers

import (
	"errors"
	"net/http"

	"smovers/middleware"
	"smovers/models"
	"smovers/services/availability"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler serves weekly schedules and the availability search.
type AvailabilityHandler struct {
	Service *availability.Service
}

// NewAvailabilityHandler creates an AvailabilityHandler.
func NewAvailabilityHandler(svc *availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

// SetAvailabilityHandler handles PUT /api/<drivers|helpers>/availability.
func (h *AvailabilityHandler) SetAvailabilityHandler(c *gin.Context) {
	var req struct {
		Availability []models.DayAvailability `json:"availability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}
	id, role := middleware.CurrentAccount(c)
	av, err := h.Service.SetWeek(c.Request.Context(), role, id, req.Availability)
	if err != nil {
		availabilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// GetAvailabilityHandler handles GET /api/<drivers|helpers>/availability.
func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	id, role := middleware.CurrentAccount(c)
	av, err := h.Service.GetWeek(c.Request.Context(), role, id)
	if err != nil {
		availabilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// SearchAvailabilityHandler handles GET /api/availability.
func (h *AvailabilityHandler) SearchAvailabilityHandler(c *gin.Context) {
	q := availability.SearchQuery{
		Date:     c.Query("date"),
		Role:     models.Role(c.DefaultQuery("role", string(models.RoleDriver))),
		CarType:  c.Query("carType"),
		Location: c.Query("location"),
	}
	providers, err := h.Service.Search(c.Request.Context(), q)
	if err != nil {
		availabilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func availabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, availability.ErrNotSunday),
		errors.Is(err, availability.ErrInvalidWeek),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrPastDate):
		utils.JSONError(c, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, availability.ErrNotProvider):
		utils.JSONError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, availability.ErrAccountNotFound),
		errors.Is(err, availability.ErrNoAvailability):
		utils.JSONError(c, http.StatusNotFound, "not_found", err.Error())
	default:
		getLogger(c).Error("Availability operation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "unexpected", "Something went wrong, please try again")
	}
}
