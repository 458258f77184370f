package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/service"
	"github.com/iliyamo/cinesocial/internal/store/storetest"
)

type EventServiceTestSuite struct {
	suite.Suite

	ctx   context.Context
	store *storetest.Store
	svc   *service.EventService

	movie uint64
	host  uint64
	users []uint64
	when  time.Time
}

func (s *EventServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.New()
	s.svc = service.NewEventService(s.store, newPermissiveNotifier(), zap.NewNop())

	s.movie = s.store.SeedMovie("The Thing")
	s.host = s.store.SeedUser("host@example.com", model.RoleUser)
	s.users = nil
	for i := 0; i < 20; i++ {
		s.users = append(s.users, s.store.SeedUser(fmt.Sprintf("guest%d@example.com", i), model.RoleUser))
	}
	s.when = time.Date(2026, 11, 20, 19, 30, 0, 0, time.UTC)
}

func (s *EventServiceTestSuite) create(capacity int) model.Event {
	ev, err := s.svc.Create(s.ctx, service.CreateEventInput{
		HostID:          s.host,
		MovieID:         s.movie,
		EventDate:       s.when,
		MaxParticipants: capacity,
		Location:        "Living room",
	})
	s.Require().NoError(err)
	return ev
}

func (s *EventServiceTestSuite) TestCreateEnrollsHost() {
	ev := s.create(4)

	s.Equal(model.EventScheduled, ev.Status)
	s.Equal(1, ev.ParticipantCount)
	s.Equal([]uint64{s.host}, s.store.Participants(ev.ID))
}

func (s *EventServiceTestSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: s.when, MaxParticipants: 0})
	s.True(apperr.IsValidation(err))

	_, err = s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, MaxParticipants: 3})
	s.True(apperr.IsValidation(err))

	_, err = s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: 8080, EventDate: s.when, MaxParticipants: 3})
	s.True(apperr.IsNotFound(err))
	s.Zero(s.store.EventCount())
}

func (s *EventServiceTestSuite) TestHostDoubleBookingConflicts() {
	first := s.create(3)

	// Same instant expressed in another zone, with sub-second noise.
	other := s.when.In(time.FixedZone("CET", 3600)).Add(400 * time.Millisecond)
	_, err := s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: other, MaxParticipants: 3})
	s.True(apperr.IsConflict(err))
	s.Equal(1, s.store.EventCount())

	later, err := s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: s.when.Add(time.Hour), MaxParticipants: 3})
	s.Require().NoError(err)
	s.NotEqual(first.ID, later.ID)

	// A cancelled event frees its slot.
	s.Require().NoError(s.svc.Cancel(s.ctx, s.host, first.ID))
	_, err = s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: s.when, MaxParticipants: 3})
	s.NoError(err)
}

func (s *EventServiceTestSuite) TestSingleSeatEventIsFullAfterCreate() {
	ev := s.create(1)
	s.Equal(1, ev.ParticipantCount)

	err := s.svc.Join(s.ctx, ev.ID, s.users[0])

	s.True(apperr.IsCapacity(err))
	s.Equal([]uint64{s.host}, s.store.Participants(ev.ID))
}

func (s *EventServiceTestSuite) TestConcurrentJoinsNeverExceedCapacity() {
	ev := s.create(3) // host plus two free places

	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		joined, full, other int
	)
	for _, u := range s.users[:3] {
		wg.Add(1)
		go func(u uint64) {
			defer wg.Done()
			err := s.svc.Join(s.ctx, ev.ID, u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case apperr.IsCapacity(err):
				full++
			default:
				other++
			}
		}(u)
	}
	wg.Wait()

	s.Equal(2, joined)
	s.Equal(1, full)
	s.Zero(other)
	s.Len(s.store.Participants(ev.ID), 3)
}

func (s *EventServiceTestSuite) TestManyConcurrentJoins() {
	ev := s.create(5)

	var wg sync.WaitGroup
	for _, u := range s.users {
		wg.Add(1)
		go func(u uint64) {
			defer wg.Done()
			_ = s.svc.Join(s.ctx, ev.ID, u)
		}(u)
	}
	wg.Wait()

	s.Len(s.store.Participants(ev.ID), 5)
}

func (s *EventServiceTestSuite) TestJoinErrors() {
	ev := s.create(5)

	s.True(apperr.IsNotFound(s.svc.Join(s.ctx, 123456, s.users[0])))

	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[0]))
	s.True(apperr.IsConflict(s.svc.Join(s.ctx, ev.ID, s.users[0])))
	s.True(apperr.IsConflict(s.svc.Join(s.ctx, ev.ID, s.host)))
	s.Len(s.store.Participants(ev.ID), 2)
}

func (s *EventServiceTestSuite) TestHostCannotLeave() {
	ev := s.create(5)
	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[0]))

	err := s.svc.Leave(s.ctx, ev.ID, s.host)

	s.True(apperr.IsConflict(err))
	s.Len(s.store.Participants(ev.ID), 2)
}

func (s *EventServiceTestSuite) TestLeave() {
	ev := s.create(2)
	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[0]))

	s.Require().NoError(s.svc.Leave(s.ctx, ev.ID, s.users[0]))
	s.Equal([]uint64{s.host}, s.store.Participants(ev.ID))

	s.True(apperr.IsNotFound(s.svc.Leave(s.ctx, ev.ID, s.users[0])))
	s.True(apperr.IsNotFound(s.svc.Leave(s.ctx, 99999, s.users[0])))

	// The freed place can be taken again.
	s.NoError(s.svc.Join(s.ctx, ev.ID, s.users[1]))
}

func (s *EventServiceTestSuite) TestCancel() {
	ev := s.create(5)
	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[0]))

	s.True(apperr.IsForbidden(s.svc.Cancel(s.ctx, s.users[0], ev.ID)))
	s.Require().NoError(s.svc.Cancel(s.ctx, s.host, ev.ID))

	got, ok := s.store.Event(ev.ID)
	s.Require().True(ok)
	s.Equal(model.EventCancelled, got.Status)
	s.Empty(s.store.Participants(ev.ID))

	s.True(apperr.IsConflict(s.svc.Join(s.ctx, ev.ID, s.users[1])))
	s.True(apperr.IsConflict(s.svc.Cancel(s.ctx, s.host, ev.ID)))
	s.True(apperr.IsNotFound(s.svc.Cancel(s.ctx, s.host, 424242)))
}

func (s *EventServiceTestSuite) TestHostEnrollmentFailureRollsBackEvent() {
	s.store.FailOn("Events.AddParticipant", errors.New("deadlock"))

	_, err := s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: s.when, MaxParticipants: 2})

	s.Error(err)
	s.Zero(s.store.EventCount())
}

func (s *EventServiceTestSuite) TestJoinByRemovedAccountIsNotFound() {
	ev := s.create(5)
	s.store.DeleteUser(s.users[0])

	err := s.svc.Join(s.ctx, ev.ID, s.users[0])

	s.True(apperr.IsNotFound(err))
	s.Equal([]uint64{s.host}, s.store.Participants(ev.ID))
}

func (s *EventServiceTestSuite) TestUpdateEditsFields() {
	ev := s.create(3)
	later := s.when.Add(2 * time.Hour).In(time.FixedZone("CET", 3600)).Add(250 * time.Millisecond)

	got, err := s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{
		EventDate:       &later,
		MaxParticipants: ptr(6),
		Location:        ptr("  Rooftop "),
	})

	s.Require().NoError(err)
	s.Equal(s.when.Add(2*time.Hour), got.EventDate)
	s.Equal(time.UTC, got.EventDate.Location())
	s.Equal(6, got.MaxParticipants)
	s.Equal("Rooftop", got.Location)
	s.Equal(1, got.ParticipantCount)
	stored, ok := s.store.Event(ev.ID)
	s.Require().True(ok)
	s.Equal(got.EventDate, stored.EventDate)
	s.Equal(6, stored.MaxParticipants)

	// Keeping the same date is not a collision with itself.
	_, err = s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{EventDate: &got.EventDate})
	s.NoError(err)
}

func (s *EventServiceTestSuite) TestUpdateOnlyByHost() {
	ev := s.create(3)

	_, err := s.svc.Update(s.ctx, s.users[0], ev.ID, service.UpdateEventInput{MaxParticipants: ptr(10)})

	s.True(apperr.IsForbidden(err))
	stored, _ := s.store.Event(ev.ID)
	s.Equal(3, stored.MaxParticipants)

	_, err = s.svc.Update(s.ctx, s.host, 777777, service.UpdateEventInput{})
	s.True(apperr.IsNotFound(err))
}

func (s *EventServiceTestSuite) TestUpdateDateCollisionConflicts() {
	first := s.create(3)
	second, err := s.svc.Create(s.ctx, service.CreateEventInput{HostID: s.host, MovieID: s.movie, EventDate: s.when.Add(time.Hour), MaxParticipants: 3})
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, s.host, second.ID, service.UpdateEventInput{EventDate: &first.EventDate})

	s.True(apperr.IsConflict(err))
	stored, _ := s.store.Event(second.ID)
	s.Equal(s.when.Add(time.Hour), stored.EventDate)
}

func (s *EventServiceTestSuite) TestUpdateCapacityBelowEnrolledIsRejected() {
	ev := s.create(4)
	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[0]))
	s.Require().NoError(s.svc.Join(s.ctx, ev.ID, s.users[1]))

	_, err := s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{MaxParticipants: ptr(2)})
	s.True(apperr.IsValidation(err))

	_, err = s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{MaxParticipants: ptr(0)})
	s.True(apperr.IsValidation(err))

	// Shrinking to exactly the enrolled count leaves the event full.
	_, err = s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{MaxParticipants: ptr(3)})
	s.Require().NoError(err)
	s.True(apperr.IsCapacity(s.svc.Join(s.ctx, ev.ID, s.users[2])))
}

func (s *EventServiceTestSuite) TestUpdateCancelledEventConflicts() {
	ev := s.create(3)
	s.Require().NoError(s.svc.Cancel(s.ctx, s.host, ev.ID))

	_, err := s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{Location: ptr("elsewhere")})

	s.True(apperr.IsConflict(err))
}

func (s *EventServiceTestSuite) TestUpdateFailureRollsBack() {
	ev := s.create(3)
	later := s.when.Add(time.Hour)
	s.store.FailOn("Events.Update", errors.New("lock wait timeout"))

	_, err := s.svc.Update(s.ctx, s.host, ev.ID, service.UpdateEventInput{EventDate: &later})

	s.Error(err)
	stored, _ := s.store.Event(ev.ID)
	s.Equal(s.when, stored.EventDate)
}

func TestEventServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EventServiceTestSuite))
}
