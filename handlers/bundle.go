package handlers

import (
	"smovers/middleware"

	"github.com/gin-gonic/gin"
)

// RoleHandlers are the account endpoints registered once per role.
type RoleHandlers struct {
	Register       gin.HandlerFunc
	Login          gin.HandlerFunc
	Logout         gin.HandlerFunc
	Profile        gin.HandlerFunc
	UpdateProfile  gin.HandlerFunc
	UpdatePassword gin.HandlerFunc
	Delete         gin.HandlerFunc
}

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Sessions middleware.SessionChecker

	// Account endpoints
	Bookers RoleHandlers
	Drivers RoleHandlers
	Helpers RoleHandlers

	// Booking endpoints
	BookDriverHandler       gin.HandlerFunc
	BookHelperHandler       gin.HandlerFunc
	ListBookingsHandler     gin.HandlerFunc
	RespondProposalHandler  gin.HandlerFunc
	CancelBookingHandler    gin.HandlerFunc
	RateBookingHandler      gin.HandlerFunc
	UpcomingBookingsHandler gin.HandlerFunc

	// Availability endpoints
	SetAvailabilityHandler    gin.HandlerFunc
	GetAvailabilityHandler    gin.HandlerFunc
	SearchAvailabilityHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
