package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinesocial/internal/handler"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/model"
)

// RegisterRoutes registers the operational endpoints.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// profile endpoint /v1/me.  limit throttles credential guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token or a bearer, so it sits
	// outside JWTAuth.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin))
}

// RegisterPublic registers the guest-readable endpoints.  cache serves
// repeated anonymous reads from Redis.
func RegisterPublic(e *echo.Echo, m *handler.MovieHandler, ev *handler.EventHandler, cache, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", limit, cache)
	g.GET("/movies", m.Search)
	// Static segments win over :id in echo's router.
	g.GET("/movies/trending", m.Trending)
	g.GET("/movies/top-rated", m.TopRated)
	g.GET("/movies/:id", m.Get)
	g.GET("/movies/:id/reviews", m.Reviews)
	g.GET("/events", ev.List)
	g.GET("/events/:id", ev.Get)
}
