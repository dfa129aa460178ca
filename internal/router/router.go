// Package router registers the engine's HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-engine/internal/config"
	"github.com/iliyamo/cinema-ticket-engine/internal/handler"
	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/middleware"
	"github.com/iliyamo/cinema-ticket-engine/internal/service"
)

// Deps is everything the routes need.  Redis may be nil, which switches
// the response cache and the rate limiter off.
type Deps struct {
	Coord     *service.Coordinator
	Log       *logger.Logger
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)
	RegisterPublic(e, handler.NewPublicHandler(d.Coord, d.Log), middleware.NewRedisCache(d.Cache, d.Redis))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	RegisterCustomer(e, handler.NewCustomerHandler(d.Coord, d.Log), d.JWTSecret, limit)
	RegisterAdmin(e, handler.NewAdminHandler(d.Coord, d.Log), d.JWTSecret)
}

// RegisterRoutes registers routes that do not touch the engine.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints.  Only the
// showtime listing is cached; seat maps change with every booking.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/theatres/:id/showtimes", p.Showtimes, cache)
	e.GET("/v1/theatres/:id/showtimes/:date/:time/seats", p.SeatMap)
}
