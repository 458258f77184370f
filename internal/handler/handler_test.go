package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/config"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/repository"
	"github.com/iliyamo/cinesocial/internal/service"
	"github.com/iliyamo/cinesocial/internal/store/storetest"
	"github.com/iliyamo/cinesocial/internal/utils"
)

const testSecret = "handler-secret"

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

func testConfig() config.Config {
	return config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
}

type HandlerTestSuite struct {
	suite.Suite

	e     *echo.Echo
	store *storetest.Store

	movie uint64
	alice uint64
	bob   uint64
	admin uint64
}

func (s *HandlerTestSuite) SetupTest() {
	s.store = storetest.New()
	s.movie = s.store.SeedMovie("Arrival")
	s.alice = s.store.SeedUser("alice@example.com", model.RoleUser)
	s.bob = s.store.SeedUser("bob@example.com", model.RoleUser)
	s.admin = s.store.SeedUser("admin@example.com", model.RoleAdmin)

	log := zap.NewNop()
	reviews := service.NewReviewService(s.store, service.NopNotifier{}, log)
	watchlist := service.NewWatchlistService(s.store, service.NopNotifier{}, log)
	events := service.NewEventService(s.store, service.NopNotifier{}, log)
	accounts := service.NewUserService(s.store, service.NopNotifier{}, log)

	s.e = echo.New()
	s.e.Validator = NewRequestValidator()

	rh := NewReviewHandler(reviews, log)
	wh := NewWatchlistHandler(watchlist, nil, log)
	eh := NewEventHandler(events, nil, log)
	ah := NewAdminHandler(reviews, accounts, nil, nil, log)

	g := s.e.Group("/v1", middleware.JWTAuth(testSecret))
	g.POST("/reviews", rh.Create)
	g.PUT("/reviews/:id", rh.Update)
	g.DELETE("/reviews/:id", rh.Delete)
	g.POST("/reviews/:id/like", rh.Like)
	g.POST("/watchlist", wh.Add)
	g.PUT("/watchlist/:id", wh.UpdateStatus)
	g.DELETE("/watchlist/:id", wh.Remove)
	g.POST("/events", eh.Create)
	g.PUT("/events/:id", eh.Update)
	g.POST("/events/:id/join", eh.Join)
	g.DELETE("/events/:id/leave", eh.Leave)
	g.DELETE("/events/:id", eh.Cancel)
	adm := g.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	adm.DELETE("/reviews/:id", ah.ModerateReview)
	adm.POST("/movies/:id/recompute-rating", ah.RecomputeRating)
	adm.PUT("/users/:id/suspend", ah.SuspendUser)
	adm.PUT("/users/:id/unsuspend", ah.UnsuspendUser)
}

func (s *HandlerTestSuite) token(userID uint64, role string) string {
	tok, err := utils.NewAccessToken(testSecret, userID, role, time.Minute)
	s.Require().NoError(err)
	return tok.Token
}

func (s *HandlerTestSuite) do(method, path string, userID uint64, body string) (int, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != 0 {
		role := model.RoleUser
		if userID == s.admin {
			role = model.RoleAdmin
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(userID, role))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (s *HandlerTestSuite) movieRow() model.Movie {
	m, ok := s.store.Movie(s.movie)
	s.Require().True(ok)
	return m
}

func (s *HandlerTestSuite) TestCreateReviewUpdatesAggregate() {
	code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, `{"movie_id":`+itoa(s.movie)+`,"rating":8,"review_text":"great"}`)

	s.Equal(http.StatusCreated, code)
	s.EqualValues(8, body["rating"])
	s.Require().NotNil(s.movieRow().AverageRating)
	s.InDelta(8.0, *s.movieRow().AverageRating, 1e-9)
}

func (s *HandlerTestSuite) TestReviewValidationMapsTo400() {
	for _, payload := range []string{
		`{"movie_id":` + itoa(s.movie) + `,"rating":7.5}`,
		`{"movie_id":` + itoa(s.movie) + `,"rating":11}`,
		`{"movie_id":` + itoa(s.movie) + `,"rating":0}`,
		`{"rating":5}`,
		`not json`,
	} {
		code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, payload)
		s.Equal(http.StatusBadRequest, code, payload)
		s.NotEmpty(body["error"], payload)
	}
	s.Zero(s.store.ReviewCount())
}

func (s *HandlerTestSuite) TestDuplicateReviewIs409() {
	payload := `{"movie_id":` + itoa(s.movie) + `,"rating":6}`
	code, _ := s.do(http.MethodPost, "/v1/reviews", s.alice, payload)
	s.Require().Equal(http.StatusCreated, code)

	code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, payload)

	s.Equal(http.StatusConflict, code)
	s.Equal("you have already reviewed this movie", body["error"])
}

func (s *HandlerTestSuite) TestReviewOwnershipAndMissing() {
	code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, `{"movie_id":`+itoa(s.movie)+`,"rating":6}`)
	s.Require().Equal(http.StatusCreated, code)
	id := uint64(body["review_id"].(float64))

	code, _ = s.do(http.MethodPut, "/v1/reviews/"+itoa(id), s.bob, `{"rating":1}`)
	s.Equal(http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, "/v1/reviews/99999", s.alice, "")
	s.Equal(http.StatusNotFound, code)

	code, _ = s.do(http.MethodDelete, "/v1/reviews/abc", s.alice, "")
	s.Equal(http.StatusBadRequest, code)

	code, body = s.do(http.MethodPost, "/v1/reviews/"+itoa(id)+"/like", s.bob, "")
	s.Equal(http.StatusOK, code)
	s.Equal(true, body["liked"])

	code, _ = s.do(http.MethodDelete, "/v1/reviews/"+itoa(id), s.alice, "")
	s.Equal(http.StatusNoContent, code)
	s.Nil(s.movieRow().AverageRating)
}

func (s *HandlerTestSuite) TestUnauthenticatedIs401() {
	code, _ := s.do(http.MethodPost, "/v1/reviews", 0, `{"movie_id":1,"rating":5}`)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *HandlerTestSuite) TestInfrastructureFailureIs500AndHidden() {
	s.store.FailOn("Movies.SetRatingAggregate", errors.New("connection reset"))

	code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, `{"movie_id":`+itoa(s.movie)+`,"rating":5}`)

	s.Equal(http.StatusInternalServerError, code)
	s.Equal("internal error", body["error"])
	s.Zero(s.store.ReviewCount())
}

func (s *HandlerTestSuite) TestWatchlistCompletionCountsView() {
	code, body := s.do(http.MethodPost, "/v1/watchlist", s.alice, `{"movie_id":`+itoa(s.movie)+`}`)
	s.Require().Equal(http.StatusCreated, code)
	s.Equal(string(model.StatusToWatch), body["status"])
	id := itoa(uint64(body["watchlist_id"].(float64)))

	code, _ = s.do(http.MethodPut, "/v1/watchlist/"+id, s.alice, `{"status":"completed"}`)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodPut, "/v1/watchlist/"+id, s.alice, `{"status":"completed"}`)
	s.Equal(http.StatusOK, code)
	s.EqualValues(1, s.movieRow().ViewCount)

	code, _ = s.do(http.MethodPut, "/v1/watchlist/"+id, s.alice, `{"status":"finished"}`)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/v1/watchlist", s.alice, `{"movie_id":`+itoa(s.movie)+`}`)
	s.Equal(http.StatusConflict, code)

	code, _ = s.do(http.MethodDelete, "/v1/watchlist/"+id, s.bob, "")
	s.Equal(http.StatusForbidden, code)
	code, _ = s.do(http.MethodDelete, "/v1/watchlist/"+id, s.alice, "")
	s.Equal(http.StatusNoContent, code)
}

func (s *HandlerTestSuite) TestFullEventJoinIs409() {
	code, body := s.do(http.MethodPost, "/v1/events", s.alice,
		`{"movie_id":`+itoa(s.movie)+`,"event_date":"2026-12-01T20:00:00Z","max_participants":1,"location":"home"}`)
	s.Require().Equal(http.StatusCreated, code)
	s.EqualValues(1, body["participant_count"])
	id := itoa(uint64(body["event_id"].(float64)))

	code, body = s.do(http.MethodPost, "/v1/events/"+id+"/join", s.bob, "")

	s.Equal(http.StatusConflict, code)
	s.Equal("event is full", body["error"])
}

func (s *HandlerTestSuite) TestEventLifecycle() {
	create := `{"movie_id":` + itoa(s.movie) + `,"event_date":"2026-12-01T20:00:00Z","max_participants":3}`
	code, body := s.do(http.MethodPost, "/v1/events", s.alice, create)
	s.Require().Equal(http.StatusCreated, code)
	id := itoa(uint64(body["event_id"].(float64)))

	code, _ = s.do(http.MethodPost, "/v1/events", s.alice, create)
	s.Equal(http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/v1/events", s.alice, `{"movie_id":`+itoa(s.movie)+`,"event_date":"2026-12-02T20:00:00Z","max_participants":0}`)
	s.Equal(http.StatusBadRequest, code)

	code, body = s.do(http.MethodPost, "/v1/events/"+id+"/join", s.bob, "")
	s.Equal(http.StatusOK, code)
	s.Equal("joined", body["status"])

	code, _ = s.do(http.MethodDelete, "/v1/events/"+id+"/leave", s.alice, "")
	s.Equal(http.StatusConflict, code)

	code, _ = s.do(http.MethodDelete, "/v1/events/"+id, s.bob, "")
	s.Equal(http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, "/v1/events/"+id+"/leave", s.bob, "")
	s.Equal(http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, "/v1/events/"+id, s.alice, "")
	s.Equal(http.StatusNoContent, code)
	eventID, err := strconv.ParseUint(id, 10, 64)
	s.Require().NoError(err)
	s.Empty(s.store.Participants(eventID))
}

func (s *HandlerTestSuite) TestAdminModerationRequiresAdmin() {
	code, body := s.do(http.MethodPost, "/v1/reviews", s.alice, `{"movie_id":`+itoa(s.movie)+`,"rating":2}`)
	s.Require().Equal(http.StatusCreated, code)
	id := itoa(uint64(body["review_id"].(float64)))

	code, _ = s.do(http.MethodDelete, "/v1/admin/reviews/"+id, s.bob, "")
	s.Equal(http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, "/v1/admin/reviews/"+id, s.admin, `{"reason":"spoilers"}`)
	s.Equal(http.StatusNoContent, code)
	s.Zero(s.store.ReviewCount())
	s.Len(s.store.AuditLog(), 1)

	code, body = s.do(http.MethodPost, "/v1/admin/movies/"+itoa(s.movie)+"/recompute-rating", s.admin, "")
	s.Equal(http.StatusOK, code)
	s.Nil(body["average_rating"])
	s.EqualValues(0, body["review_count"])
}

func (s *HandlerTestSuite) TestEventUpdate() {
	create := `{"movie_id":` + itoa(s.movie) + `,"event_date":"2026-12-01T20:00:00Z","max_participants":3}`
	code, body := s.do(http.MethodPost, "/v1/events", s.alice, create)
	s.Require().Equal(http.StatusCreated, code)
	first := itoa(uint64(body["event_id"].(float64)))
	code, body = s.do(http.MethodPost, "/v1/events", s.alice, `{"movie_id":`+itoa(s.movie)+`,"event_date":"2026-12-02T20:00:00Z","max_participants":3}`)
	s.Require().Equal(http.StatusCreated, code)
	second := itoa(uint64(body["event_id"].(float64)))
	code, _ = s.do(http.MethodPost, "/v1/events/"+first+"/join", s.bob, "")
	s.Require().Equal(http.StatusOK, code)

	code, body = s.do(http.MethodPut, "/v1/events/"+first, s.alice, `{"location":"cinema room","max_participants":5}`)
	s.Equal(http.StatusOK, code)
	s.Equal("cinema room", body["location"])
	s.EqualValues(5, body["max_participants"])
	s.EqualValues(2, body["participant_count"])

	code, _ = s.do(http.MethodPut, "/v1/events/"+first, s.bob, `{"location":"my place"}`)
	s.Equal(http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/v1/events/"+first, s.alice, `{"max_participants":1}`)
	s.Equal(http.StatusBadRequest, code)

	code, body = s.do(http.MethodPut, "/v1/events/"+second, s.alice, `{"event_date":"2026-12-01T20:00:00Z"}`)
	s.Equal(http.StatusConflict, code)
	s.Equal("you already host an event at this time", body["error"])

	code, _ = s.do(http.MethodPut, "/v1/events/404404", s.alice, `{"location":"x"}`)
	s.Equal(http.StatusNotFound, code)
}

func (s *HandlerTestSuite) TestAdminSuspendAndUnsuspend() {
	path := "/v1/admin/users/" + itoa(s.bob)

	code, _ := s.do(http.MethodPut, path+"/suspend", s.alice, "")
	s.Equal(http.StatusForbidden, code)

	code, body := s.do(http.MethodPut, path+"/suspend", s.admin, `{"reason":"harassment"}`)
	s.Equal(http.StatusOK, code)
	s.Equal(false, body["is_active"])
	u, ok := s.store.User(s.bob)
	s.Require().True(ok)
	s.False(u.IsActive)

	code, _ = s.do(http.MethodPut, path+"/unsuspend", s.admin, "")
	s.Equal(http.StatusOK, code)
	u, _ = s.store.User(s.bob)
	s.True(u.IsActive)

	log := s.store.AuditLog()
	s.Require().Len(log, 2)
	s.Equal("suspend", log[0].ActionType)
	s.Equal("harassment", log[0].Details)
	s.Equal("unsuspend", log[1].ActionType)

	code, _ = s.do(http.MethodPut, "/v1/admin/users/987654/suspend", s.admin, "")
	s.Equal(http.StatusNotFound, code)
	code, _ = s.do(http.MethodPut, "/v1/admin/users/"+itoa(s.admin)+"/suspend", s.admin, "")
	s.Equal(http.StatusConflict, code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// ----- auth -----

type fakeUsers struct {
	byID map[uint64]model.User
	next uint64
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.next++
	u.ID = f.next
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeTokens struct {
	owner   map[string]uint64
	revoked map[string]bool
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.owner[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string, _ time.Time) (uint64, error) {
	id, ok := f.owner[hash]
	if !ok || f.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for h, id := range f.owner {
		if id == userID {
			f.revoked[h] = true
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	s := new(authSuite)
	suite.Run(t, s)
}

type authSuite struct {
	suite.Suite
	e      *echo.Echo
	users  *fakeUsers
	tokens *fakeTokens
}

func (s *authSuite) SetupTest() {
	s.users = &fakeUsers{byID: map[uint64]model.User{}}
	s.tokens = &fakeTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
	h := NewAuthHandler(testConfig(), s.users, s.tokens, zap.NewNop())
	s.e = echo.New()
	s.e.Validator = NewRequestValidator()
	s.e.POST("/v1/auth/register", h.Register)
	s.e.POST("/v1/auth/login", h.Login)
	s.e.POST("/v1/auth/refresh", h.Refresh)
	s.e.POST("/v1/auth/logout", h.Logout)
	s.e.GET("/v1/me", h.Me, middleware.JWTAuth(testSecret))
}

func (s *authSuite) post(path, body string) (*httptest.ResponseRecorder, authResp) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out authResp
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *authSuite) TestRegisterLoginRefreshLogout() {
	rec, reg := s.post("/v1/auth/register", `{"email":"Dana@Example.com","password":"correct horse","first_name":"Dana"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("dana@example.com", reg.User.Email)
	s.Equal(model.RoleUser, reg.User.Role)
	s.NotEmpty(reg.Access.Token)

	rec, _ = s.post("/v1/auth/register", `{"email":"dana@example.com","password":"another one"}`)
	s.Equal(http.StatusConflict, rec.Code)

	rec, _ = s.post("/v1/auth/login", `{"email":"dana@example.com","password":"wrong password"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, login := s.post("/v1/auth/login", `{"email":"dana@example.com","password":"correct horse"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+login.Access.Token)
	me := httptest.NewRecorder()
	s.e.ServeHTTP(me, req)
	s.Equal(http.StatusOK, me.Code)
	s.Contains(me.Body.String(), `"first_name":"Dana"`)

	rec, refreshed := s.post("/v1/auth/refresh", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotEqual(login.Refresh.Token, refreshed.Refresh.Token)

	// The rotated token is dead.
	rec, _ = s.post("/v1/auth/refresh", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.post("/v1/auth/logout", `{"refresh_token":"`+refreshed.Refresh.Token+`"}`)
	s.Equal(http.StatusNoContent, rec.Code)
	rec, _ = s.post("/v1/auth/refresh", `{"refresh_token":"`+refreshed.Refresh.Token+`"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *authSuite) TestRegisterValidation() {
	for _, body := range []string{
		`{"email":"not-an-email","password":"long enough"}`,
		`{"email":"a@b.co","password":"short"}`,
		`{"password":"long enough"}`,
	} {
		rec, _ := s.post("/v1/auth/register", body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
	}
}

func (s *authSuite) TestSuspendedUserCannotLoginOrRefresh() {
	rec, reg := s.post("/v1/auth/register", `{"email":"eve@example.com","password":"correct horse"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	u := s.users.byID[reg.User.ID]
	u.IsActive = false
	s.users.byID[u.ID] = u

	rec, _ = s.post("/v1/auth/login", `{"email":"eve@example.com","password":"correct horse"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
	rec, _ = s.post("/v1/auth/refresh", `{"refresh_token":"`+reg.Refresh.Token+`"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	u.IsActive = true
	s.users.byID[u.ID] = u
	rec, _ = s.post("/v1/auth/login", `{"email":"eve@example.com","password":"correct horse"}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *authSuite) TestLogoutNeedsSomething() {
	rec, _ := s.post("/v1/auth/logout", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}
