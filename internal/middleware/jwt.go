// Package middleware holds the echo middleware in front of the engine's
// routes: bearer token verification, role gating, Redis rate limiting and
// the Redis response cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// JWTAuth validates an HS256 bearer token issued by the identity service
// and stores the caller as a model.Identity.  The sub claim becomes the
// user ID; email and role are copied as is.  Handlers read the caller with
// IdentityFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, keyFunc, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !tok.Valid {
				return unauthorized(c, "invalid token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "invalid claims")
			}
			sub, _ := claims.GetSubject()
			if sub == "" {
				return unauthorized(c, "token has no subject")
			}
			id := model.Identity{UserID: sub}
			id.Email, _ = claims["email"].(string)
			id.Role, _ = claims["role"].(string)

			c.Set(identityKey, id)
			c.Set(userIDKey, id.UserID)
			c.Set(roleKey, id.Role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
}
