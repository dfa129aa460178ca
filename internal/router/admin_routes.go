package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/handler"
	"github.com/iliyamo/cinema-ticket-engine/internal/middleware"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// RegisterAdmin registers back-office endpoints under /v1/admin.  Every
// route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	g.POST("/tickets/:id/refund", h.RefundTicket)
	g.GET("/showtimes/:theatre/:date/:time/tickets", h.ShowtimeTickets)
}
