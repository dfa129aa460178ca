package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/config"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func whoAmI(c echo.Context) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, id)
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(testSecret))

	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "u1", "email": "u1@example.com", "role": model.RoleCustomer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := serve(e, http.MethodGet, "/me", valid)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"u1","email":"u1@example.com","role":"CUSTOMER"}`, rec.Body.String())

	cases := map[string]string{
		"missing":   "",
		"garbage":   "not-a-jwt",
		"wrong key": signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1"}),
		"expired": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"no subject": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "ADMIN"}),
	}
	for name, tok := range cases {
		rec := serve(e, http.MethodGet, "/me", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, JWTAuth(testSecret), RequireRole(model.RoleAdmin))

	admin := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "a1", "role": model.RoleAdmin})
	customer := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1", "role": model.RoleCustomer})

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", customer).Code)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "user_route", Prefix: "rl",
	}
	e := echo.New()
	e.POST("/v1/bookings", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		JWTAuth(testSecret), NewTokenBucket(cfg, rdb, nil))

	u1 := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1"})
	u2 := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u2"})

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/bookings", u1).Code)
	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/bookings", u1).Code)
	rec := serve(e, http.MethodPost, "/v1/bookings", u1)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/bookings", u2).Code, "buckets are per user")
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, nil))

	mr.Close()
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "").Code)
}

func TestRedisCache(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}

	calls := 0
	e := echo.New()
	e.GET("/v1/theatres/:id/showtimes", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"theatre": c.Param("id")})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/v1/theatres/th1/showtimes?date=2026-10-19", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/v1/theatres/th1/showtimes?date=2026-10-19", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	other := serve(e, http.MethodGet, "/v1/theatres/th2/showtimes?date=2026-10-19", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"theatre":"th2"}`, other.Body.String())
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}

	calls := 0
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}, NewRedisCache(cfg, rdb))

	serve(e, http.MethodGet, "/x", "")
	serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, 2, calls)
}
