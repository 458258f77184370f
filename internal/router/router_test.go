package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinesocial/internal/handler"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/utils"
)

const secret = "router-secret"

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newEcho() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, handler.Health(nil))
	RegisterAuth(e, &handler.AuthHandler{}, secret, noop)
	RegisterPublic(e, &handler.MovieHandler{}, &handler.EventHandler{}, noop, noop)
	RegisterUser(e, &handler.ReviewHandler{}, &handler.WatchlistHandler{}, &handler.EventHandler{}, secret, noop)
	RegisterAdmin(e, &handler.AdminHandler{}, secret)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newEcho()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/login",
		"GET /v1/me",
		"GET /v1/movies",
		"GET /v1/movies/trending",
		"GET /v1/movies/:id/reviews",
		"GET /v1/events/:id",
		"POST /v1/reviews",
		"PUT /v1/watchlist/:id",
		"POST /v1/events/:id/join",
		"DELETE /v1/events/:id/leave",
		"DELETE /v1/admin/reviews/:id",
		"GET /v1/admin/reports/top-movies",
		"POST /v1/admin/movies/:id/recompute-rating",
		"PUT /v1/admin/users/:id/suspend",
		"PUT /v1/admin/users/:id/unsuspend",
		"PUT /v1/events/:id",
	} {
		assert.True(t, have[want], want)
	}
}

func TestAccessControl(t *testing.T) {
	e := newEcho()
	user, err := utils.NewAccessToken(secret, 3, model.RoleUser, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/v1/me", "", http.StatusUnauthorized},
		{http.MethodPost, "/v1/reviews", "", http.StatusUnauthorized},
		{http.MethodPost, "/v1/events/1/join", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/admin/audit", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/admin/audit", user.Token, http.StatusForbidden},
		{http.MethodDelete, "/v1/admin/reviews/1", user.Token, http.StatusForbidden},
		{http.MethodPut, "/v1/admin/users/1/suspend", user.Token, http.StatusForbidden},
		{http.MethodPut, "/v1/events/1", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}
