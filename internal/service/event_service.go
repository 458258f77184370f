package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/store"
)

// EventService manages watch parties.  Membership changes lock the event
// row first, which makes the capacity check and the insert that follows it
// one atomic step.
type EventService struct {
	base
}

func NewEventService(st store.Store, n Notifier, log *zap.Logger) *EventService {
	return &EventService{base: newBase(st, n, log)}
}

// CreateEventInput carries the fields of a new event.
type CreateEventInput struct {
	HostID          uint64
	MovieID         uint64
	EventDate       time.Time
	MaxParticipants int
	Location        string
	Description     string
}

// NormalizeEventDate is the form in which event dates are stored and
// compared: UTC, whole seconds.
func NormalizeEventDate(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

// Create schedules an event and enrolls its host as the first participant.
// A host cannot have two scheduled events at the same instant.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (model.Event, error) {
	if in.MaxParticipants < 1 {
		return model.Event{}, s.finish("event.create", apperr.Validation("max_participants must be at least 1"))
	}
	if in.EventDate.IsZero() {
		return model.Event{}, s.finish("event.create", apperr.Validation("event_date is required"))
	}

	ev := model.Event{
		HostID:          in.HostID,
		MovieID:         in.MovieID,
		EventDate:       NormalizeEventDate(in.EventDate),
		MaxParticipants: in.MaxParticipants,
		Location:        strings.TrimSpace(in.Location),
		Description:     strings.TrimSpace(in.Description),
		Status:          model.EventScheduled,
	}
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		// Serialises concurrent creates by the same host.
		if err := tx.Users().LockUser(ctx, in.HostID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("host not found")
			}
			return fmt.Errorf("lock host %d: %w", in.HostID, err)
		}
		ok, err := tx.Movies().Exists(ctx, in.MovieID)
		if err != nil {
			return fmt.Errorf("check movie %d: %w", in.MovieID, err)
		}
		if !ok {
			return apperr.NotFound("movie not found")
		}
		busy, err := tx.Events().HostHasScheduledAt(ctx, in.HostID, ev.EventDate)
		if err != nil {
			return fmt.Errorf("check host schedule: %w", err)
		}
		if busy {
			return apperr.Conflict("you already host an event at this time")
		}
		if err := tx.Events().Insert(ctx, &ev); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		err = tx.Events().AddParticipant(ctx, model.EventParticipant{
			EventID:    ev.ID,
			UserID:     in.HostID,
			JoinedAt:   s.now(),
			RSVPStatus: model.RSVPAttending,
		})
		if err != nil {
			return fmt.Errorf("enroll host: %w", err)
		}
		ev.ParticipantCount = 1
		return nil
	})
	if err != nil {
		return model.Event{}, s.finish("event.create", err)
	}

	s.log.Debug("event created", zap.Uint64("event_id", ev.ID), zap.Uint64("host_id", ev.HostID))
	s.notify(ctx, queue.ActivityEvent{Type: queue.EventCreated, ActorID: ev.HostID, MovieID: ev.MovieID, EventID: ev.ID})
	return ev, s.finish("event.create", nil)
}

// UpdateEventInput carries the editable fields of an event.  Nil fields
// keep their current value.
type UpdateEventInput struct {
	EventDate       *time.Time
	MaxParticipants *int
	Location        *string
	Description     *string
}

// Update edits a scheduled event on behalf of its host.  A new date must not
// collide with another scheduled event of the host, and the capacity cannot
// drop below the number of people already enrolled.
func (s *EventService) Update(ctx context.Context, actorID, eventID uint64, in UpdateEventInput) (model.Event, error) {
	if in.MaxParticipants != nil && *in.MaxParticipants < 1 {
		return model.Event{}, s.finish("event.update", apperr.Validation("max_participants must be at least 1"))
	}
	if in.EventDate != nil && in.EventDate.IsZero() {
		return model.Event{}, s.finish("event.update", apperr.Validation("event_date is required"))
	}

	var ev model.Event
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		// Host row before event row, the same order Create uses.
		if err := tx.Users().LockUser(ctx, actorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("user not found")
			}
			return fmt.Errorf("lock user %d: %w", actorID, err)
		}
		var err error
		ev, err = lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.HostID != actorID {
			return apperr.Forbidden("only the host can edit this event")
		}
		if ev.Status != model.EventScheduled {
			return apperr.Conflict(fmt.Sprintf("event is %s", ev.Status))
		}

		if in.EventDate != nil {
			when := NormalizeEventDate(*in.EventDate)
			if !when.Equal(ev.EventDate) {
				busy, err := tx.Events().HostHasScheduledAt(ctx, ev.HostID, when)
				if err != nil {
					return fmt.Errorf("check host schedule: %w", err)
				}
				if busy {
					return apperr.Conflict("you already host an event at this time")
				}
				ev.EventDate = when
			}
		}
		n, err := tx.Events().CountParticipants(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if in.MaxParticipants != nil {
			if *in.MaxParticipants < n {
				return apperr.Validation(fmt.Sprintf("max_participants cannot be below the %d people already enrolled", n))
			}
			ev.MaxParticipants = *in.MaxParticipants
		}
		if in.Location != nil {
			ev.Location = strings.TrimSpace(*in.Location)
		}
		if in.Description != nil {
			ev.Description = strings.TrimSpace(*in.Description)
		}
		if err := tx.Events().Update(ctx, ev); err != nil {
			return fmt.Errorf("update event %d: %w", eventID, err)
		}
		ev.ParticipantCount = n
		return nil
	})
	if err != nil {
		return model.Event{}, s.finish("event.update", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.EventUpdated, ActorID: actorID, MovieID: ev.MovieID, EventID: eventID})
	return ev, s.finish("event.update", nil)
}

func lockEvent(ctx context.Context, tx store.Tx, eventID uint64) (model.Event, error) {
	ev, err := tx.Events().GetForUpdate(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Event{}, apperr.NotFound("event not found")
		}
		return model.Event{}, fmt.Errorf("lock event %d: %w", eventID, err)
	}
	return ev, nil
}

// Join enrolls userID.  It fails when the event is not scheduled, when the
// user already participates, and when the event is full.
func (s *EventService) Join(ctx context.Context, eventID, userID uint64) error {
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		// A token can outlive its account.
		ok, err := tx.Users().Exists(ctx, userID)
		if err != nil {
			return fmt.Errorf("check user %d: %w", userID, err)
		}
		if !ok {
			return apperr.NotFound("user not found")
		}
		ev, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.Status != model.EventScheduled {
			return apperr.Conflict(fmt.Sprintf("event is %s", ev.Status))
		}
		joined, err := tx.Events().IsParticipant(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if joined {
			return apperr.Conflict("you already joined this event")
		}
		n, err := tx.Events().CountParticipants(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if n >= ev.MaxParticipants {
			return apperr.Capacity("event is full")
		}
		err = tx.Events().AddParticipant(ctx, model.EventParticipant{
			EventID:    eventID,
			UserID:     userID,
			JoinedAt:   s.now(),
			RSVPStatus: model.RSVPAttending,
		})
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return apperr.Wrap(apperr.KindConflict, "you already joined this event", err)
		case errors.Is(err, store.ErrNotFound):
			// The user row went away after the check above.
			return apperr.Wrap(apperr.KindNotFound, "user not found", err)
		}
		return err
	})
	if err != nil {
		return s.finish("event.join", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.EventJoined, ActorID: userID, EventID: eventID})
	return s.finish("event.join", nil)
}

// Leave removes userID from the event.  The host cannot leave and must
// cancel instead; a user who is not a participant gets NotFound.
func (s *EventService) Leave(ctx context.Context, eventID, userID uint64) error {
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		ev, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.HostID == userID {
			return apperr.Conflict("the host cannot leave the event, cancel it instead")
		}
		removed, err := tx.Events().RemoveParticipant(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("remove participant: %w", err)
		}
		if !removed {
			return apperr.NotFound("you are not a participant of this event")
		}
		return nil
	})
	if err != nil {
		return s.finish("event.leave", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.EventLeft, ActorID: userID, EventID: eventID})
	return s.finish("event.leave", nil)
}

// Cancel marks the event cancelled and drops every participant.  Only the
// host may cancel, and only once.
func (s *EventService) Cancel(ctx context.Context, actorID, eventID uint64) error {
	var ev model.Event
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		ev, err = lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.HostID != actorID {
			return apperr.Forbidden("only the host can cancel this event")
		}
		if ev.Status == model.EventCancelled {
			return apperr.Conflict("event is already cancelled")
		}
		if err := tx.Events().RemoveAllParticipants(ctx, eventID); err != nil {
			return fmt.Errorf("remove participants: %w", err)
		}
		if err := tx.Events().SetStatus(ctx, eventID, model.EventCancelled); err != nil {
			return fmt.Errorf("cancel event %d: %w", eventID, err)
		}
		return nil
	})
	if err != nil {
		return s.finish("event.cancel", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.EventCancelled, ActorID: actorID, MovieID: ev.MovieID, EventID: eventID, Status: string(model.EventCancelled)})
	return s.finish("event.cancel", nil)
}
