package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/handler"
	"github.com/iliyamo/cinema-ticket-engine/internal/middleware"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// RegisterCustomer registers the authenticated customer endpoints under
// /v1.  Holds, bookings and cancellations are rate limited.  Ticket lookup
// and cancellation also admit admins; ownership is checked by the handler.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	customer := middleware.RequireRole(model.RoleCustomer)
	g.POST("/holds", h.HoldSeats, customer, limit)
	g.POST("/holds/release", h.ReleaseHold, customer)
	g.POST("/bookings", h.Book, customer, limit)
	g.GET("/my-tickets", h.MyTickets, customer)

	either := middleware.RequireRole(model.RoleCustomer, model.RoleAdmin)
	g.GET("/tickets/:id", h.GetTicket, either)
	g.POST("/tickets/:id/cancel", h.CancelTicket, either, limit)
}
