package handlers

import (
	"net/http"
	"strconv"

	"smovers/middleware"
	"smovers/models"
	"smovers/services/account"
	"smovers/services/booking"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Engine   *booking.Engine
	Accounts *account.Service
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(engine *booking.Engine, accounts *account.Service) *BookingHandler {
	return &BookingHandler{Engine: engine, Accounts: accounts}
}

// BookDriverHandler handles POST /api/bookers/book/driver.
func (h *BookingHandler) BookDriverHandler(c *gin.Context) {
	h.book(c, models.RoleDriver)
}

// BookHelperHandler handles POST /api/bookers/book/helper.
func (h *BookingHandler) BookHelperHandler(c *gin.Context) {
	h.book(c, models.RoleHelper)
}

func (h *BookingHandler) book(c *gin.Context, kind models.Role) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, string(booking.CodeValidation), "Invalid request: "+err.Error())
		return
	}
	req.BookerID, _ = middleware.CurrentAccount(c)
	req.Kind = kind

	receipt, err := h.Engine.RequestBooking(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// ListBookingsHandler handles GET /api/bookers/bookings.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	id, _ := middleware.CurrentAccount(c)
	ledger, err := h.Engine.BookerBookings(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// RespondProposalHandler handles GET|PUT /api/proposals/:token/:decision.
// The link itself is the credential, so no session is required.
func (h *BookingHandler) RespondProposalHandler(c *gin.Context) {
	decision, ok := models.ParseDecision(c.Param("decision"))
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, string(booking.CodeValidation), "Decision must be accept or reject")
		return
	}

	outcome, err := h.Engine.ResolveProposal(c.Request.Context(), c.Param("token"), decision)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	message := "Booking accepted"
	if outcome.Decision == models.DecisionReject {
		message = "Booking rejected"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"bookingId": outcome.BookingID,
		"decision":  outcome.Decision,
		"notified":  outcome.Notified,
	})
}

// CancelBookingHandler handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.Engine.CancelBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RateBookingHandler handles POST /api/bookings/:id/rate/:rating.
func (h *BookingHandler) RateBookingHandler(c *gin.Context) {
	rating, err := strconv.Atoi(c.Param("rating"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, string(booking.CodeValidation), "Rating must be a whole number between 0 and 5")
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.Engine.RateBooking(c.Request.Context(), actor, c.Param("id"), rating)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpcomingBookingsHandler handles GET /api/<drivers|helpers>/bookings/upcoming.
func (h *BookingHandler) UpcomingBookingsHandler(c *gin.Context) {
	id, role := middleware.CurrentAccount(c)
	entries, err := h.Engine.UpcomingBookings(c.Request.Context(), role, id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": entries})
}

// actor resolves the caller's display name for notifications. It writes the
// error response itself when the account is gone.
func (h *BookingHandler) actor(c *gin.Context) (booking.Actor, bool) {
	id, role := middleware.CurrentAccount(c)
	acct, err := h.Accounts.GetByID(c.Request.Context(), role, id)
	if err != nil {
		getLogger(c).Warn("Caller account lookup failed", zap.String("accountId", id), zap.Error(err))
		utils.JSONError(c, http.StatusUnauthorized, string(booking.CodeInvalidToken), "Account no longer exists")
		return booking.Actor{}, false
	}
	return booking.Actor{Role: role, Email: acct.Email, Name: acct.Name}, true
}
