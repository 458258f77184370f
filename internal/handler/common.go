package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/store"
)

// dbTimeout bounds every request's storage work.
const dbTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// statusOf maps a service error onto an HTTP status.
func statusOf(err error) int {
	kind, ok := apperr.KindOf(err)
	if !ok {
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindCapacity:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}.  Infrastructure failures are
// logged and hidden behind a generic message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status := statusOf(err)
	switch {
	case status == http.StatusInternalServerError:
		log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	case apperr.IsCapacity(err):
		return c.JSON(status, echo.Map{"error": "event is full"})
	}
	msg := apperr.MessageOf(err)
	if msg == "" {
		msg = "not found"
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt reads an integer query parameter, falling back to def and
// clamping to [lo, hi].
func queryInt(c echo.Context, name string, def, lo, hi int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		n = def
	}
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return n
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// currentUser returns the caller set by middleware.JWTAuth.
func currentUser(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}
