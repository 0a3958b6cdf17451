package routes

import (
	"time"

	"smovers/handlers"
	"smovers/middleware"
	"smovers/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAccountRoutes registers the account endpoints of one role under /api/<path>.
func RegisterAccountRoutes(r *gin.Engine, path string, role models.Role, rh handlers.RoleHandlers, sessions middleware.SessionChecker) {
	api := r.Group("/api/" + path)
	{
		api.POST("", rh.Register)
		api.POST("/login", rh.Login)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware(sessions, role))
		protected.GET("/logout", rh.Logout)
		protected.GET("/profile", rh.Profile)
		protected.PATCH("/profile", rh.UpdateProfile)
		protected.PATCH("/password", rh.UpdatePassword)
		protected.DELETE("", rh.Delete)
	}
}

// RegisterBookerRoutes registers the booker-only booking endpoints.
func RegisterBookerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookers")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.Sessions, models.RoleBooker))
		api.POST("/book/driver", hb.BookDriverHandler)
		api.POST("/book/helper", hb.BookHelperHandler)
		api.GET("/bookings", hb.ListBookingsHandler)
	}
}

// RegisterProviderRoutes registers schedule and upcoming-booking endpoints for drivers and helpers.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	for path, role := range map[string]models.Role{"drivers": models.RoleDriver, "helpers": models.RoleHelper} {
		api := r.Group("/api/" + path)
		api.Use(middleware.JWTAuthMiddleware(hb.Sessions, role))
		api.PUT("/availability", hb.SetAvailabilityHandler)
		api.GET("/availability", hb.GetAvailabilityHandler)
		api.GET("/bookings/upcoming", hb.UpcomingBookingsHandler)
	}
}

// RegisterBookingRoutes registers the endpoints shared by every party of a booking.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Proposal links are their own credential.
	proposals := r.Group("/api/proposals")
	{
		proposals.GET("/:token/:decision", hb.RespondProposalHandler)
		proposals.PUT("/:token/:decision", hb.RespondProposalHandler)
	}

	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware(hb.Sessions))
		bookings.POST("/:id/cancel", hb.CancelBookingHandler)
		bookings.POST("/:id/rate/:rating", hb.RateBookingHandler)
	}

	r.GET("/api/availability", middleware.JWTAuthMiddleware(hb.Sessions), hb.SearchAvailabilityHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAccountRoutes(r, "bookers", models.RoleBooker, hb.Bookers, hb.Sessions)
	RegisterAccountRoutes(r, "drivers", models.RoleDriver, hb.Drivers, hb.Sessions)
	RegisterAccountRoutes(r, "helpers", models.RoleHelper, hb.Helpers, hb.Sessions)
	RegisterBookerRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
