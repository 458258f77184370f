package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/repository"
)

// MovieReader serves the public movie read models.
type MovieReader interface {
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	List(ctx context.Context, order repository.MovieOrder, limit int) ([]model.Movie, error)
	Search(ctx context.Context, f repository.MovieFilter) ([]model.Movie, int, error)
}

// ReviewLister pages through a movie's reviews.
type ReviewLister interface {
	ListByMovie(ctx context.Context, movieID uint64, limit, offset int) ([]model.Review, error)
}

// MovieHandler exposes movie details with their derived rating and view
// fields, and the rankings built on them.
type MovieHandler struct {
	Movies MovieReader
	Lister ReviewLister
	Log    *zap.Logger
}

func NewMovieHandler(m MovieReader, r ReviewLister, log *zap.Logger) *MovieHandler {
	return &MovieHandler{Movies: m, Lister: r, Log: log}
}

// GET /v1/movies?search=&year=&limit=&offset=
func (h *MovieHandler) Search(c echo.Context) error {
	f := repository.MovieFilter{
		Query:  strings.TrimSpace(c.QueryParam("search")),
		Limit:  queryInt(c, "limit", 12, 1, 100),
		Offset: queryInt(c, "offset", 0, 0, 1<<20),
	}
	if len(f.Query) > 255 {
		return badRequest(c, "search is too long")
	}
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1870 || y > 2100 {
			return badRequest(c, "invalid year")
		}
		f.Year = y
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	movies, total, err := h.Movies.Search(ctx, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies, "total": total, "limit": f.Limit, "offset": f.Offset})
}

// GET /v1/movies/:id
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// GET /v1/movies/:id/reviews?limit=&offset=
func (h *MovieHandler) Reviews(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	limit := queryInt(c, "limit", 20, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<20)

	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	reviews, err := h.Lister.ListByMovie(ctx, id, limit, offset)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reviews, "limit": limit, "offset": offset})
}

// GET /v1/movies/trending
func (h *MovieHandler) Trending(c echo.Context) error {
	return h.ranked(c, repository.OrderByViews)
}

// GET /v1/movies/top-rated
func (h *MovieHandler) TopRated(c echo.Context) error {
	return h.ranked(c, repository.OrderByRating)
}

func (h *MovieHandler) ranked(c echo.Context, order repository.MovieOrder) error {
	limit := queryInt(c, "limit", 10, 1, 100)
	ctx, cancel := requestCtx(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, order, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}
