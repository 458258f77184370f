package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinesocial/internal/handler"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/model"
)

// RegisterAdmin registers moderation, account, catalog and reporting endpoints under
// /v1/admin.  All routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.DELETE("/reviews/:id", a.ModerateReview)
	g.PUT("/users/:id/suspend", a.SuspendUser)
	g.PUT("/users/:id/unsuspend", a.UnsuspendUser)
	g.GET("/reports/top-movies", a.TopMovies)
	g.POST("/movies", a.CreateMovie)
	g.POST("/movies/:id/recompute-rating", a.RecomputeRating)
	g.GET("/audit", a.AuditLog)
}
