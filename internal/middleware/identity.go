package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// Context keys set by JWTAuth.
const (
	identityKey = "identity"
	userIDKey   = "user_id"
	roleKey     = "role"
)

// IdentityFrom returns the caller verified by JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok && id.UserID != ""
}

// userID returns the authenticated user or "anon" on public routes.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.UserID
	}
	return "anon"
}
