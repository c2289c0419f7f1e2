// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/handler"
	"github.com/abhishekbishtt/booking-app/internal/middleware"
	"github.com/abhishekbishtt/booking-app/internal/model"
	"github.com/abhishekbishtt/booking-app/internal/repository"
)

// Deps carries everything route registration needs.
type Deps struct {
	JWTSecret string
	Blacklist *repository.BlacklistRepo
	RateLimit echo.MiddlewareFunc

	Auth    *handler.AuthHandler
	Public  *handler.PublicHandler
	Booking *handler.BookingHandler
	Payment *handler.PaymentHandler
	Admin   *handler.AdminHandler
}

// Register mounts all routes on the Echo instance.  Browse endpoints
// are open; reservation and payment endpoints require a CUSTOMER or
// ADMIN token; catalog management requires ADMIN.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	if d.RateLimit != nil {
		e.Use(d.RateLimit)
	}

	// Auth.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, middleware.JWTAuth(d.JWTSecret, d.Blacklist))
	e.GET("/v1/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret, d.Blacklist))

	// Public browsing.
	e.GET("/v1/movies", d.Public.ListMovies)
	e.GET("/v1/theaters", d.Public.ListTheaters)
	e.GET("/v1/showtimes", d.Public.ListShowtimes)
	e.GET("/v1/showtimes/:id", d.Public.GetShowtime)

	// Reservations, any authenticated user.
	res := e.Group("/v1/reservations",
		middleware.JWTAuth(d.JWTSecret, d.Blacklist),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	res.POST("", d.Booking.Create)
	res.GET("", d.Booking.ListMine)
	res.GET("/:id", d.Booking.Get)
	res.DELETE("/:id", d.Booking.Cancel)
	res.POST("/:id/payment/order", d.Payment.CreateOrder)
	res.POST("/:id/payment/verify", d.Payment.Verify)

	// Catalog management, admin only.
	admin := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret, d.Blacklist),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/movies", d.Admin.CreateMovie)
	admin.POST("/theaters", d.Admin.CreateTheater)
	admin.POST("/halls", d.Admin.CreateHall)
	admin.GET("/halls", d.Admin.ListHalls)
	admin.POST("/showtimes", d.Admin.CreateShowtime)
	admin.DELETE("/showtimes/:id", d.Admin.DeactivateShowtime)
	admin.GET("/showtimes/:id/reservations", d.Admin.ShowtimeReservations)
}
