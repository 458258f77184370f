package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinesocial/internal/handler"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/model"
)

// RegisterUser registers the mutations available to any signed-in user.
// Ownership is enforced by the services.
func RegisterUser(e *echo.Echo, r *handler.ReviewHandler, w *handler.WatchlistHandler, ev *handler.EventHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		limit,
	)

	g.POST("/reviews", r.Create)
	g.PUT("/reviews/:id", r.Update)
	g.DELETE("/reviews/:id", r.Delete)
	g.POST("/reviews/:id/like", r.Like)

	g.GET("/watchlist", w.List)
	g.POST("/watchlist", w.Add)
	g.PUT("/watchlist/:id", w.UpdateStatus)
	g.DELETE("/watchlist/:id", w.Remove)

	g.POST("/events", ev.Create)
	g.PUT("/events/:id", ev.Update)
	g.POST("/events/:id/join", ev.Join)
	g.DELETE("/events/:id/leave", ev.Leave)
	g.DELETE("/events/:id", ev.Cancel)
}
