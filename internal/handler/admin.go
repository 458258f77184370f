package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/repository"
)

// Moderator is implemented by *service.ReviewService.
type Moderator interface {
	Moderate(ctx context.Context, adminID, reviewID uint64, reason string) error
	RecomputeRating(ctx context.Context, movieID uint64) (model.RatingAggregate, error)
}

// Catalog adds movies and ranks them.
type Catalog interface {
	MovieReader
	Create(ctx context.Context, m *model.Movie) error
}

// AccountModerator is implemented by *service.UserService.
type AccountModerator interface {
	Suspend(ctx context.Context, adminID, userID uint64, reason string) error
	Unsuspend(ctx context.Context, adminID, userID uint64) error
}

// AuditReader lists recent moderation records.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// AdminHandler serves moderation, catalog and reporting endpoints.
type AdminHandler struct {
	Reviews  Moderator
	Accounts AccountModerator
	Movies   Catalog
	Audit    AuditReader
	Log      *zap.Logger
}

func NewAdminHandler(r Moderator, u AccountModerator, m Catalog, a AuditReader, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Reviews: r, Accounts: u, Movies: m, Audit: a, Log: log}
}

type moderateReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

type createMovieReq struct {
	Title       string  `json:"title" validate:"required,max=255"`
	ReleaseYear *int    `json:"release_year" validate:"omitempty,min=1870,max=2100"`
	DurationMin *int    `json:"duration" validate:"omitempty,min=1"`
	PosterURL   *string `json:"poster_url" validate:"omitempty,url"`
}

// DELETE /v1/admin/reviews/:id removes a review and records the action.
func (h *AdminHandler) ModerateReview(c echo.Context) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	// The body is optional on DELETE.
	var req moderateReq
	if c.Request().ContentLength > 0 {
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Reviews.Moderate(ctx, adminID, id, strings.TrimSpace(req.Reason)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PUT /v1/admin/users/:id/suspend
func (h *AdminHandler) SuspendUser(c echo.Context) error {
	return h.accountStatus(c, false)
}

// PUT /v1/admin/users/:id/unsuspend
func (h *AdminHandler) UnsuspendUser(c echo.Context) error {
	return h.accountStatus(c, true)
}

func (h *AdminHandler) accountStatus(c echo.Context, active bool) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req moderateReq
	if c.Request().ContentLength > 0 {
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	var err error
	if active {
		err = h.Accounts.Unsuspend(ctx, adminID, id)
	} else {
		err = h.Accounts.Suspend(ctx, adminID, id, req.Reason)
	}
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "is_active": active})
}

// GET /v1/admin/reports/top-movies?order=views|rating&limit=N
func (h *AdminHandler) TopMovies(c echo.Context) error {
	order := repository.MovieOrder(c.QueryParam("order"))
	if order == "" {
		order = repository.OrderByViews
	}
	if !order.Valid() {
		return badRequest(c, "order must be views or rating")
	}
	limit := queryInt(c, "limit", 10, 1, 100)

	ctx, cancel := requestCtx(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, order, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": movies})
}

// POST /v1/admin/movies
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return badRequest(c, "title required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	m := model.Movie{
		Title:       title,
		ReleaseYear: req.ReleaseYear,
		DurationMin: req.DurationMin,
		PosterURL:   req.PosterURL,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := h.Movies.Create(ctx, &m); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// POST /v1/admin/movies/:id/recompute-rating
func (h *AdminHandler) RecomputeRating(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	agg, err := h.Reviews.RecomputeRating(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": id, "average_rating": agg.Average, "review_count": agg.Count})
}

// GET /v1/admin/audit?limit=N
func (h *AdminHandler) AuditLog(c echo.Context) error {
	limit := queryInt(c, "limit", 50, 1, 500)
	ctx, cancel := requestCtx(c)
	defer cancel()

	entries, err := h.Audit.Recent(ctx, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
