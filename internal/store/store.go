// Package store declares the transactional persistence contract the service
// layer is written against.  The MySQL implementation lives in
// internal/repository; an in-memory implementation for tests lives in
// internal/store/storetest.
//
// Every mutating service operation runs inside exactly one call to
// Store.WithinTx.  Methods named ...ForUpdate, and Lock..., take a row lock
// that is held until the transaction ends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("store: duplicate key")

// Store runs fn inside one transaction.  If fn returns an error, or the
// commit fails, every write made through tx is discarded and the error is
// returned unchanged.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the table groups reachable within one transaction.
type Tx interface {
	Users() UserTx
	Movies() MovieTx
	Reviews() ReviewTx
	Watchlist() WatchlistTx
	Events() EventTx
	Audit() AuditTx
}

type UserTx interface {
	Exists(ctx context.Context, userID uint64) (bool, error)
	// LockUser locks the user's row; ErrNotFound if absent.
	LockUser(ctx context.Context, userID uint64) error
	// SetActive suspends (false) or reinstates (true) the account.
	SetActive(ctx context.Context, userID uint64, active bool) error
}

type MovieTx interface {
	Exists(ctx context.Context, movieID uint64) (bool, error)
	// LockMovie locks the movie's row; ErrNotFound if absent.
	LockMovie(ctx context.Context, movieID uint64) error
	SetRatingAggregate(ctx context.Context, movieID uint64, agg model.RatingAggregate) error
	IncrementViewCount(ctx context.Context, movieID uint64) error
}

type ReviewTx interface {
	Get(ctx context.Context, reviewID uint64) (model.Review, error)
	GetForUpdate(ctx context.Context, reviewID uint64) (model.Review, error)
	ExistsForUserAndMovie(ctx context.Context, userID, movieID uint64) (bool, error)
	// RatingsForMovie returns the rating of every current review of movieID.
	RatingsForMovie(ctx context.Context, movieID uint64) ([]int, error)
	// Insert sets rev.ID and rev.DatePosted.
	Insert(ctx context.Context, rev *model.Review) error
	Update(ctx context.Context, reviewID uint64, rating int, text string) error
	Delete(ctx context.Context, reviewID uint64) error
	// ToggleLike likes the review for userID, or removes an existing like.
	// It reports whether the review is liked afterwards.
	ToggleLike(ctx context.Context, userID, reviewID uint64) (bool, error)
}

type WatchlistTx interface {
	ExistsForUserAndMovie(ctx context.Context, userID, movieID uint64) (bool, error)
	// Insert sets e.ID and e.AddedDate.
	Insert(ctx context.Context, e *model.WatchlistEntry) error
	GetForUpdate(ctx context.Context, watchlistID uint64) (model.WatchlistEntry, error)
	UpdateStatus(ctx context.Context, watchlistID uint64, status model.WatchStatus) error
	Delete(ctx context.Context, watchlistID uint64) error
}

type EventTx interface {
	GetForUpdate(ctx context.Context, eventID uint64) (model.Event, error)
	HostHasScheduledAt(ctx context.Context, hostID uint64, at time.Time) (bool, error)
	// Insert sets ev.ID and ev.CreatedAt.
	Insert(ctx context.Context, ev *model.Event) error
	// Update overwrites the editable columns: date, capacity, location and
	// description.
	Update(ctx context.Context, ev model.Event) error
	SetStatus(ctx context.Context, eventID uint64, status model.EventStatus) error
	IsParticipant(ctx context.Context, eventID, userID uint64) (bool, error)
	CountParticipants(ctx context.Context, eventID uint64) (int, error)
	AddParticipant(ctx context.Context, p model.EventParticipant) error
	// RemoveParticipant reports whether a row was deleted.
	RemoveParticipant(ctx context.Context, eventID, userID uint64) (bool, error)
	RemoveAllParticipants(ctx context.Context, eventID uint64) error
}

type AuditTx interface {
	Insert(ctx context.Context, e model.AuditEntry) error
}
