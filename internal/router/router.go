package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/skywings/booking-service/internal/handler"
    "github.com/skywings/booking-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the booking endpoints under /v1/booking.
// Every route requires a valid access token; the listing and manifest
// endpoints additionally require an admin role and the status override
// is restricted to super admins.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
    g := e.Group("/v1/booking", middleware.JWTAuth(jwtSecret))

    g.POST("", h.Create)
    g.GET("/id/:id", h.GetByID)
    g.GET("/user", h.ListMine)

    g.GET("", h.List,
        middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperAdmin))
    g.GET("/flight/:flight_id", h.ListForFlight,
        middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperAdmin))
    g.PUT("/id/:id", h.UpdateStatus,
        middleware.RequireRole(middleware.RoleSuperAdmin))
}
