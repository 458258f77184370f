// Package storetest is an in-memory store.Store for the service and
// handler tests.  It is not wired into cmd/server.
//
// Transactions are serializable: WithinTx holds a single lock for the whole
// transaction, works on a private copy of the data and publishes the copy
// only when fn succeeds.  A failed transaction therefore leaves no trace,
// which is the property the service tests assert on.
package storetest

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/store"
)

type participantKey struct{ eventID, userID uint64 }
type pairKey struct{ a, b uint64 }

type state struct {
	users        map[uint64]model.User
	movies       map[uint64]model.Movie
	reviews      map[uint64]model.Review
	likes        map[pairKey]bool // (user, review)
	watchlist    map[uint64]model.WatchlistEntry
	events       map[uint64]model.Event
	participants map[participantKey]model.EventParticipant
	audit        []model.AuditEntry
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		movies:       maps.Clone(s.movies),
		reviews:      maps.Clone(s.reviews),
		likes:        maps.Clone(s.likes),
		watchlist:    maps.Clone(s.watchlist),
		events:       maps.Clone(s.events),
		participants: maps.Clone(s.participants),
		audit:        slices.Clone(s.audit),
	}
}

// Store implements store.Store in memory.
type Store struct {
	mu     sync.Mutex
	data   *state
	nextID uint64
	fail   map[string]error
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		data: &state{
			users:        map[uint64]model.User{},
			movies:       map[uint64]model.Movie{},
			reviews:      map[uint64]model.Review{},
			likes:        map[pairKey]bool{},
			watchlist:    map[uint64]model.WatchlistEntry{},
			events:       map[uint64]model.Event{},
			participants: map[participantKey]model.EventParticipant{},
		},
		fail: map[string]error{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx implements store.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(&tx{s: s, st: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// FailOn makes every later call of the named operation (e.g.
// "Movies.SetRatingAggregate") return err.  A nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// SeedUser inserts an active user with the given role and returns its id.
func (s *Store) SeedUser(email, role string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.data.users[id] = model.User{ID: id, Email: email, Role: role, IsActive: true, CreatedAt: s.now()}
	return id
}

// SeedMovie inserts a movie with no reviews and returns its id.
func (s *Store) SeedMovie(title string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.data.movies[id] = model.Movie{ID: id, Title: title, CreatedAt: s.now()}
	return id
}

// User returns the committed state of a user.
func (s *Store) User(id uint64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	return u, ok
}

// DeleteUser drops a user row, as an account removal outside the services
// would.
func (s *Store) DeleteUser(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.users, id)
}

// Movie returns the committed state of a movie.
func (s *Store) Movie(id uint64) (model.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.movies[id]
	return m, ok
}

// Review returns the committed state of a review.
func (s *Store) Review(id uint64) (model.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.reviews[id]
	return r, ok
}

// ReviewCount returns the number of committed reviews.
func (s *Store) ReviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.reviews)
}

// WatchlistEntry returns the committed state of a watchlist entry.
func (s *Store) WatchlistEntry(id uint64) (model.WatchlistEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.watchlist[id]
	return e, ok
}

// Event returns the committed state of an event.
func (s *Store) Event(id uint64) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.events[id]
	return e, ok
}

// EventCount returns the number of committed events.
func (s *Store) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.events)
}

// Participants returns the committed participant user ids of an event,
// sorted ascending.
func (s *Store) Participants(eventID uint64) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for k := range s.data.participants {
		if k.eventID == eventID {
			ids = append(ids, k.userID)
		}
	}
	slices.Sort(ids)
	return ids
}

// AuditLog returns the committed audit entries.
func (s *Store) AuditLog() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.audit)
}

type tx struct {
	s  *Store
	st *state
}

func (t *tx) failed(op string) error { return t.s.fail[op] }

func (t *tx) Users() store.UserTx          { return userTx{t} }
func (t *tx) Movies() store.MovieTx        { return movieTx{t} }
func (t *tx) Reviews() store.ReviewTx      { return reviewTx{t} }
func (t *tx) Watchlist() store.WatchlistTx { return watchlistTx{t} }
func (t *tx) Events() store.EventTx        { return eventTx{t} }
func (t *tx) Audit() store.AuditTx         { return auditTx{t} }

type userTx struct{ *tx }

func (u userTx) Exists(_ context.Context, userID uint64) (bool, error) {
	_, ok := u.st.users[userID]
	return ok, nil
}

func (u userTx) LockUser(_ context.Context, userID uint64) error {
	if err := u.failed("Users.LockUser"); err != nil {
		return err
	}
	if _, ok := u.st.users[userID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (u userTx) SetActive(_ context.Context, userID uint64, active bool) error {
	if err := u.failed("Users.SetActive"); err != nil {
		return err
	}
	usr, ok := u.st.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	usr.IsActive = active
	usr.UpdatedAt = u.s.now()
	u.st.users[userID] = usr
	return nil
}

type movieTx struct{ *tx }

func (m movieTx) Exists(_ context.Context, movieID uint64) (bool, error) {
	if err := m.failed("Movies.Exists"); err != nil {
		return false, err
	}
	_, ok := m.st.movies[movieID]
	return ok, nil
}

func (m movieTx) LockMovie(_ context.Context, movieID uint64) error {
	if err := m.failed("Movies.LockMovie"); err != nil {
		return err
	}
	if _, ok := m.st.movies[movieID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (m movieTx) SetRatingAggregate(_ context.Context, movieID uint64, agg model.RatingAggregate) error {
	if err := m.failed("Movies.SetRatingAggregate"); err != nil {
		return err
	}
	mv, ok := m.st.movies[movieID]
	if !ok {
		return store.ErrNotFound
	}
	if agg.Average != nil {
		v := *agg.Average
		mv.AverageRating = &v
	} else {
		mv.AverageRating = nil
	}
	mv.ReviewCount = agg.Count
	m.st.movies[movieID] = mv
	return nil
}

func (m movieTx) IncrementViewCount(_ context.Context, movieID uint64) error {
	if err := m.failed("Movies.IncrementViewCount"); err != nil {
		return err
	}
	mv, ok := m.st.movies[movieID]
	if !ok {
		return store.ErrNotFound
	}
	mv.ViewCount++
	m.st.movies[movieID] = mv
	return nil
}

type reviewTx struct{ *tx }

func (r reviewTx) Get(_ context.Context, reviewID uint64) (model.Review, error) {
	if err := r.failed("Reviews.Get"); err != nil {
		return model.Review{}, err
	}
	rev, ok := r.st.reviews[reviewID]
	if !ok {
		return model.Review{}, store.ErrNotFound
	}
	return rev, nil
}

func (r reviewTx) GetForUpdate(ctx context.Context, reviewID uint64) (model.Review, error) {
	return r.Get(ctx, reviewID)
}

func (r reviewTx) ExistsForUserAndMovie(_ context.Context, userID, movieID uint64) (bool, error) {
	for _, rev := range r.st.reviews {
		if rev.UserID == userID && rev.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewTx) RatingsForMovie(_ context.Context, movieID uint64) ([]int, error) {
	if err := r.failed("Reviews.RatingsForMovie"); err != nil {
		return nil, err
	}
	var out []int
	for _, rev := range r.st.reviews {
		if rev.MovieID == movieID {
			out = append(out, rev.Rating)
		}
	}
	return out, nil
}

func (r reviewTx) Insert(ctx context.Context, rev *model.Review) error {
	if err := r.failed("Reviews.Insert"); err != nil {
		return err
	}
	if dup, _ := r.ExistsForUserAndMovie(ctx, rev.UserID, rev.MovieID); dup {
		return store.ErrDuplicate
	}
	rev.ID = r.s.id()
	rev.DatePosted = r.s.now()
	r.st.reviews[rev.ID] = *rev
	return nil
}

func (r reviewTx) Update(_ context.Context, reviewID uint64, rating int, text string) error {
	if err := r.failed("Reviews.Update"); err != nil {
		return err
	}
	rev, ok := r.st.reviews[reviewID]
	if !ok {
		return store.ErrNotFound
	}
	now := r.s.now()
	rev.Rating, rev.Text, rev.LastModified = rating, text, &now
	r.st.reviews[reviewID] = rev
	return nil
}

func (r reviewTx) Delete(_ context.Context, reviewID uint64) error {
	if err := r.failed("Reviews.Delete"); err != nil {
		return err
	}
	if _, ok := r.st.reviews[reviewID]; !ok {
		return store.ErrNotFound
	}
	delete(r.st.reviews, reviewID)
	for k := range r.st.likes {
		if k.b == reviewID {
			delete(r.st.likes, k)
		}
	}
	return nil
}

func (r reviewTx) ToggleLike(_ context.Context, userID, reviewID uint64) (bool, error) {
	k := pairKey{userID, reviewID}
	if r.st.likes[k] {
		delete(r.st.likes, k)
		return false, nil
	}
	r.st.likes[k] = true
	return true, nil
}

type watchlistTx struct{ *tx }

func (w watchlistTx) ExistsForUserAndMovie(_ context.Context, userID, movieID uint64) (bool, error) {
	for _, e := range w.st.watchlist {
		if e.UserID == userID && e.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (w watchlistTx) Insert(ctx context.Context, e *model.WatchlistEntry) error {
	if err := w.failed("Watchlist.Insert"); err != nil {
		return err
	}
	if dup, _ := w.ExistsForUserAndMovie(ctx, e.UserID, e.MovieID); dup {
		return store.ErrDuplicate
	}
	e.ID = w.s.id()
	e.AddedDate = w.s.now()
	w.st.watchlist[e.ID] = *e
	return nil
}

func (w watchlistTx) GetForUpdate(_ context.Context, watchlistID uint64) (model.WatchlistEntry, error) {
	e, ok := w.st.watchlist[watchlistID]
	if !ok {
		return model.WatchlistEntry{}, store.ErrNotFound
	}
	return e, nil
}

func (w watchlistTx) UpdateStatus(_ context.Context, watchlistID uint64, status model.WatchStatus) error {
	if err := w.failed("Watchlist.UpdateStatus"); err != nil {
		return err
	}
	e, ok := w.st.watchlist[watchlistID]
	if !ok {
		return store.ErrNotFound
	}
	e.Status = status
	w.st.watchlist[watchlistID] = e
	return nil
}

func (w watchlistTx) Delete(_ context.Context, watchlistID uint64) error {
	if _, ok := w.st.watchlist[watchlistID]; !ok {
		return store.ErrNotFound
	}
	delete(w.st.watchlist, watchlistID)
	return nil
}

type eventTx struct{ *tx }

func (e eventTx) GetForUpdate(_ context.Context, eventID uint64) (model.Event, error) {
	ev, ok := e.st.events[eventID]
	if !ok {
		return model.Event{}, store.ErrNotFound
	}
	return ev, nil
}

func (e eventTx) HostHasScheduledAt(_ context.Context, hostID uint64, at time.Time) (bool, error) {
	for _, ev := range e.st.events {
		if ev.HostID == hostID && ev.Status == model.EventScheduled && ev.EventDate.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (e eventTx) Insert(_ context.Context, ev *model.Event) error {
	if err := e.failed("Events.Insert"); err != nil {
		return err
	}
	ev.ID = e.s.id()
	ev.CreatedAt = e.s.now()
	e.st.events[ev.ID] = *ev
	return nil
}

func (e eventTx) Update(_ context.Context, ev model.Event) error {
	if err := e.failed("Events.Update"); err != nil {
		return err
	}
	cur, ok := e.st.events[ev.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.EventDate = ev.EventDate
	cur.MaxParticipants = ev.MaxParticipants
	cur.Location = ev.Location
	cur.Description = ev.Description
	e.st.events[ev.ID] = cur
	return nil
}

func (e eventTx) SetStatus(_ context.Context, eventID uint64, status model.EventStatus) error {
	ev, ok := e.st.events[eventID]
	if !ok {
		return store.ErrNotFound
	}
	ev.Status = status
	e.st.events[eventID] = ev
	return nil
}

func (e eventTx) IsParticipant(_ context.Context, eventID, userID uint64) (bool, error) {
	_, ok := e.st.participants[participantKey{eventID, userID}]
	return ok, nil
}

func (e eventTx) CountParticipants(_ context.Context, eventID uint64) (int, error) {
	n := 0
	for k := range e.st.participants {
		if k.eventID == eventID {
			n++
		}
	}
	return n, nil
}

func (e eventTx) AddParticipant(_ context.Context, p model.EventParticipant) error {
	if err := e.failed("Events.AddParticipant"); err != nil {
		return err
	}
	k := participantKey{p.EventID, p.UserID}
	if _, ok := e.st.participants[k]; ok {
		return store.ErrDuplicate
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = e.s.now()
	}
	e.st.participants[k] = p
	return nil
}

func (e eventTx) RemoveParticipant(_ context.Context, eventID, userID uint64) (bool, error) {
	k := participantKey{eventID, userID}
	if _, ok := e.st.participants[k]; !ok {
		return false, nil
	}
	delete(e.st.participants, k)
	return true, nil
}

func (e eventTx) RemoveAllParticipants(_ context.Context, eventID uint64) error {
	for k := range e.st.participants {
		if k.eventID == eventID {
			delete(e.st.participants, k)
		}
	}
	return nil
}

type auditTx struct{ *tx }

func (a auditTx) Insert(_ context.Context, entry model.AuditEntry) error {
	if err := a.failed("Audit.Insert"); err != nil {
		return err
	}
	entry.ID = a.s.id()
	entry.Timestamp = a.s.now()
	a.st.audit = append(a.st.audit, entry)
	return nil
}
