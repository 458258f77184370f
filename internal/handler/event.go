package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/repository"
	"github.com/iliyamo/cinesocial/internal/service"
)

// EventWriter is implemented by *service.EventService.
type EventWriter interface {
	Create(ctx context.Context, in service.CreateEventInput) (model.Event, error)
	Update(ctx context.Context, actorID, eventID uint64, in service.UpdateEventInput) (model.Event, error)
	Join(ctx context.Context, eventID, userID uint64) error
	Leave(ctx context.Context, eventID, userID uint64) error
	Cancel(ctx context.Context, actorID, eventID uint64) error
}

// EventReader serves event listings and details.
type EventReader interface {
	GetByID(ctx context.Context, eventID uint64) (model.Event, error)
	Participants(ctx context.Context, eventID uint64) ([]model.EventParticipant, error)
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
}

type EventHandler struct {
	Writer EventWriter
	Reader EventReader
	Log    *zap.Logger
}

func NewEventHandler(w EventWriter, r EventReader, log *zap.Logger) *EventHandler {
	return &EventHandler{Writer: w, Reader: r, Log: log}
}

type createEventReq struct {
	MovieID         uint64    `json:"movie_id" validate:"required"`
	EventDate       time.Time `json:"event_date" validate:"required"`
	MaxParticipants int       `json:"max_participants" validate:"required,min=1"`
	Location        string    `json:"location" validate:"max=255"`
	Description     string    `json:"description" validate:"max=2000"`
}

type updateEventReq struct {
	EventDate       *time.Time `json:"event_date"`
	MaxParticipants *int       `json:"max_participants" validate:"omitempty,min=1"`
	Location        *string    `json:"location" validate:"omitempty,max=255"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
}

// GET /v1/events?status=&movie_id=&host_id=&from=&limit=&offset=
func (h *EventHandler) List(c echo.Context) error {
	f := repository.EventFilter{
		Status: model.EventStatus(c.QueryParam("status")),
		Limit:  queryInt(c, "limit", 20, 1, 100),
		Offset: queryInt(c, "offset", 0, 0, 1<<20),
	}
	switch f.Status {
	case "", model.EventScheduled, model.EventCancelled, model.EventCompleted:
	default:
		return badRequest(c, "invalid status")
	}
	if v := c.QueryParam("movie_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid movie_id")
		}
		f.MovieID = id
	}
	if v := c.QueryParam("host_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid host_id")
		}
		f.HostID = id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "from must be RFC3339")
		}
		f.From = t
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	events, err := h.Reader.List(ctx, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events, "limit": f.Limit, "offset": f.Offset})
}

// GET /v1/events/:id
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Reader.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	participants, err := h.Reader.Participants(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev, "participants": participants})
}

// POST /v1/events
func (h *EventHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req createEventReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Writer.Create(ctx, service.CreateEventInput{
		HostID:          uid,
		MovieID:         req.MovieID,
		EventDate:       req.EventDate,
		MaxParticipants: req.MaxParticipants,
		Location:        req.Location,
		Description:     req.Description,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// PUT /v1/events/:id edits a scheduled event; host only.  Omitted fields
// keep their value.
func (h *EventHandler) Update(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req updateEventReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Writer.Update(ctx, uid, id, service.UpdateEventInput{
		EventDate:       req.EventDate,
		MaxParticipants: req.MaxParticipants,
		Location:        req.Location,
		Description:     req.Description,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// POST /v1/events/:id/join
func (h *EventHandler) Join(c echo.Context) error {
	return h.membership(c, h.Writer.Join, "joined")
}

// DELETE /v1/events/:id/leave
func (h *EventHandler) Leave(c echo.Context) error {
	return h.membership(c, h.Writer.Leave, "left")
}

func (h *EventHandler) membership(c echo.Context, op func(ctx context.Context, eventID, userID uint64) error, state string) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := op(ctx, id, uid); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "user_id": uid, "status": state})
}

// DELETE /v1/events/:id cancels an event; host only.
func (h *EventHandler) Cancel(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Writer.Cancel(ctx, uid, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
