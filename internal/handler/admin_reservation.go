package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/service"
)

// AdminHandler serves back-office ticket operations.  The ADMIN role is
// enforced by the router.
type AdminHandler struct {
	Coord *service.Coordinator
	Log   *logger.Logger
}

// NewAdminHandler panics if coord is nil.
func NewAdminHandler(coord *service.Coordinator, log *logger.Logger) *AdminHandler {
	if coord == nil {
		panic("nil coordinator passed to NewAdminHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AdminHandler{Coord: coord, Log: log}
}

type refundRequest struct {
	Amount *int64 `json:"amount"`
	Reason string `json:"reason"`
}

// RefundTicket handles POST /v1/admin/tickets/:id/refund.  amount is in
// minor units and may be less than the ticket total.
func (h *AdminHandler) RefundTicket(c echo.Context) error {
	var body refundRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "", "invalid request body")
	}
	if body.Amount == nil {
		return badRequest(c, "amount", "amount is required")
	}
	t, err := h.Coord.Refund(c.Request().Context(), c.Param("id"), *body.Amount, body.Reason)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// ShowtimeTickets handles GET /v1/admin/showtimes/:theatre/:date/:time/tickets.
// An empty list is returned when nothing was sold.
func (h *AdminHandler) ShowtimeTickets(c echo.Context) error {
	key, err := showtimeParam(c, "theatre")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	tickets, err := h.Coord.TicketsByShowtime(c.Request().Context(), key)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets, "count": len(tickets)})
}
