package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/service"
)

// ReviewWriter is implemented by *service.ReviewService.
type ReviewWriter interface {
	Create(ctx context.Context, in service.CreateReviewInput) (model.Review, error)
	Update(ctx context.Context, actorID, reviewID uint64, rating int, text string) (model.Review, error)
	Delete(ctx context.Context, actorID, reviewID uint64) error
	ToggleLike(ctx context.Context, userID, reviewID uint64) (bool, error)
}

type ReviewHandler struct {
	Reviews ReviewWriter
	Log     *zap.Logger
}

func NewReviewHandler(r ReviewWriter, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Log: log}
}

// Rating is decoded as an integer, so 7.5 or "7" fail binding with 400.
type createReviewReq struct {
	MovieID uint64 `json:"movie_id" validate:"required"`
	Rating  int    `json:"rating"`
	Text    string `json:"review_text"`
}

type updateReviewReq struct {
	Rating int    `json:"rating"`
	Text   string `json:"review_text"`
}

// POST /v1/reviews
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReviewReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rev, err := h.Reviews.Create(ctx, service.CreateReviewInput{
		UserID:  uid,
		MovieID: req.MovieID,
		Rating:  req.Rating,
		Text:    req.Text,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, rev)
}

// PUT /v1/reviews/:id
func (h *ReviewHandler) Update(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	var req updateReviewReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rev, err := h.Reviews.Update(ctx, uid, id, req.Rating, req.Text)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rev)
}

// DELETE /v1/reviews/:id
func (h *ReviewHandler) Delete(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Reviews.Delete(ctx, uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/reviews/:id/like toggles the caller's like.
func (h *ReviewHandler) Like(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	liked, err := h.Reviews.ToggleLike(ctx, uid, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"review_id": id, "liked": liked})
}
