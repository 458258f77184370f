package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/metrics"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/store"
)

// WatchlistService manages watchlist entries and owns the view-count edge:
// a movie's view_count grows by one each time an entry enters "completed"
// from any other state, and never otherwise.
type WatchlistService struct {
	base
}

func NewWatchlistService(st store.Store, n Notifier, log *zap.Logger) *WatchlistService {
	return &WatchlistService{base: newBase(st, n, log)}
}

func parseStatus(status model.WatchStatus) (model.WatchStatus, error) {
	if status == "" {
		return model.StatusToWatch, nil
	}
	if !status.Valid() {
		return "", apperr.Validation("status must be one of to-watch, watching, completed")
	}
	return status, nil
}

// Add puts a movie on the user's watchlist.  An empty status means
// "to-watch".  Adding an entry directly as "completed" counts as entering
// that state.
func (s *WatchlistService) Add(ctx context.Context, userID, movieID uint64, status model.WatchStatus) (model.WatchlistEntry, error) {
	status, err := parseStatus(status)
	if err != nil {
		return model.WatchlistEntry{}, s.finish("watchlist.add", err)
	}

	entry := model.WatchlistEntry{UserID: userID, MovieID: movieID, Status: status}
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Movies().Exists(ctx, movieID)
		if err != nil {
			return fmt.Errorf("check movie %d: %w", movieID, err)
		}
		if !ok {
			return apperr.NotFound("movie not found")
		}
		dup, err := tx.Watchlist().ExistsForUserAndMovie(ctx, userID, movieID)
		if err != nil {
			return fmt.Errorf("check watchlist: %w", err)
		}
		if dup {
			return apperr.Conflict("movie is already in your watchlist")
		}
		if err := tx.Watchlist().Insert(ctx, &entry); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Wrap(apperr.KindConflict, "movie is already in your watchlist", err)
			}
			return fmt.Errorf("insert watchlist entry: %w", err)
		}
		if status == model.StatusCompleted {
			return s.countView(ctx, tx, movieID)
		}
		return nil
	})
	if err != nil {
		return model.WatchlistEntry{}, s.finish("watchlist.add", err)
	}

	s.notify(ctx, queue.ActivityEvent{Type: queue.WatchlistAdded, ActorID: userID, MovieID: movieID, WatchlistID: entry.ID, Status: string(status)})
	return entry, s.finish("watchlist.add", nil)
}

// UpdateStatus changes the status of the actor's own entry.  The prior
// status is read under a row lock, so of two concurrent writers moving the
// same entry to "completed" only the first increments the view count.
func (s *WatchlistService) UpdateStatus(ctx context.Context, actorID, watchlistID uint64, status model.WatchStatus) (model.WatchlistEntry, error) {
	if status == "" || !status.Valid() {
		return model.WatchlistEntry{}, s.finish("watchlist.update", apperr.Validation("status must be one of to-watch, watching, completed"))
	}

	var entry model.WatchlistEntry
	var counted bool
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		entry, err = tx.Watchlist().GetForUpdate(ctx, watchlistID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("watchlist entry not found")
			}
			return fmt.Errorf("lock watchlist entry %d: %w", watchlistID, err)
		}
		if entry.UserID != actorID {
			return apperr.Forbidden("you can only change your own watchlist")
		}
		prev := entry.Status
		if err := tx.Watchlist().UpdateStatus(ctx, watchlistID, status); err != nil {
			return fmt.Errorf("update watchlist entry %d: %w", watchlistID, err)
		}
		entry.Status = status
		if status == model.StatusCompleted && prev != model.StatusCompleted {
			counted = true
			return s.countView(ctx, tx, entry.MovieID)
		}
		return nil
	})
	if err != nil {
		return model.WatchlistEntry{}, s.finish("watchlist.update", err)
	}

	s.log.Debug("watchlist status changed",
		zap.Uint64("watchlist_id", watchlistID), zap.String("status", string(status)), zap.Bool("view_counted", counted))
	s.notify(ctx, queue.ActivityEvent{Type: queue.WatchlistStatusChanged, ActorID: actorID, MovieID: entry.MovieID, WatchlistID: watchlistID, Status: string(status)})
	return entry, s.finish("watchlist.update", nil)
}

// Remove deletes the actor's own entry.  A missing entry is NotFound.
// Removing a completed entry does not lower the view count.
func (s *WatchlistService) Remove(ctx context.Context, actorID, watchlistID uint64) error {
	var entry model.WatchlistEntry
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		entry, err = tx.Watchlist().GetForUpdate(ctx, watchlistID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("watchlist entry not found")
			}
			return fmt.Errorf("lock watchlist entry %d: %w", watchlistID, err)
		}
		if entry.UserID != actorID {
			return apperr.Forbidden("you can only change your own watchlist")
		}
		if err := tx.Watchlist().Delete(ctx, watchlistID); err != nil {
			return fmt.Errorf("delete watchlist entry %d: %w", watchlistID, err)
		}
		return nil
	})
	if err != nil {
		return s.finish("watchlist.remove", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.WatchlistRemoved, ActorID: actorID, MovieID: entry.MovieID, WatchlistID: watchlistID})
	return s.finish("watchlist.remove", nil)
}

func (s *WatchlistService) countView(ctx context.Context, tx store.Tx, movieID uint64) error {
	if err := tx.Movies().IncrementViewCount(ctx, movieID); err != nil {
		return fmt.Errorf("increment view count of movie %d: %w", movieID, err)
	}
	metrics.ViewCountIncrements.Inc()
	return nil
}
