package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/model"
)

// WatchlistWriter is implemented by *service.WatchlistService.
type WatchlistWriter interface {
	Add(ctx context.Context, userID, movieID uint64, status model.WatchStatus) (model.WatchlistEntry, error)
	UpdateStatus(ctx context.Context, actorID, watchlistID uint64, status model.WatchStatus) (model.WatchlistEntry, error)
	Remove(ctx context.Context, actorID, watchlistID uint64) error
}

// WatchlistReader lists a user's entries, optionally filtered by status.
type WatchlistReader interface {
	ListByUser(ctx context.Context, userID uint64, status model.WatchStatus) ([]model.WatchlistEntry, error)
}

type WatchlistHandler struct {
	Writer WatchlistWriter
	Reader WatchlistReader
	Log    *zap.Logger
}

func NewWatchlistHandler(w WatchlistWriter, r WatchlistReader, log *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{Writer: w, Reader: r, Log: log}
}

type addWatchlistReq struct {
	MovieID uint64 `json:"movie_id" validate:"required"`
	Status  string `json:"status"`
}

type updateWatchlistReq struct {
	Status string `json:"status" validate:"required"`
}

// GET /v1/watchlist?status=
func (h *WatchlistHandler) List(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	status := model.WatchStatus(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !status.Valid() {
		return badRequest(c, "status must be one of to-watch, watching, completed")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Reader.ListByUser(ctx, uid, status)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// POST /v1/watchlist
func (h *WatchlistHandler) Add(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req addWatchlistReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	entry, err := h.Writer.Add(ctx, uid, req.MovieID, model.WatchStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// PUT /v1/watchlist/:id
func (h *WatchlistHandler) UpdateStatus(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid watchlist id")
	}
	var req updateWatchlistReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	entry, err := h.Writer.UpdateStatus(ctx, uid, id, model.WatchStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DELETE /v1/watchlist/:id
func (h *WatchlistHandler) Remove(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid watchlist id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Writer.Remove(ctx, uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
