// Package handler exposes the engine over HTTP.  Public handlers serve
// showtimes and seat maps to guests; customer and admin handlers need an
// identity set by middleware.JWTAuth.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/service"
)

// PublicHandler serves unauthenticated browsing.
type PublicHandler struct {
	Coord *service.Coordinator
	Log   *logger.Logger
}

// NewPublicHandler panics if coord is nil.
func NewPublicHandler(coord *service.Coordinator, log *logger.Logger) *PublicHandler {
	if coord == nil {
		panic("nil coordinator passed to NewPublicHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &PublicHandler{Coord: coord, Log: log}
}

// Showtimes handles GET /v1/theatres/:id/showtimes?date=YYYY-MM-DD.  Each
// item carries the day type and the price of every seat tier.
func (h *PublicHandler) Showtimes(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return badRequest(c, "date", "date query parameter is required")
	}
	items, err := h.Coord.Showtimes(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// SeatMap handles GET /v1/theatres/:id/showtimes/:date/:time/seats.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	key, err := showtimeParam(c, "id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	m, err := h.Coord.Availability(c.Request().Context(), key)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}
