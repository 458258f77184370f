package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/store"
)

// MaxReviewTextLen bounds review bodies, in characters.
const MaxReviewTextLen = 5000

// ReviewService keeps reviews and the rating aggregate of their movie in
// step.  Every mutation locks the movie row before touching reviews, so
// concurrent writers on one movie recompute its aggregate one at a time.
type ReviewService struct {
	base
}

func NewReviewService(st store.Store, n Notifier, log *zap.Logger) *ReviewService {
	return &ReviewService{base: newBase(st, n, log)}
}

// CreateReviewInput carries the fields of a new review.
type CreateReviewInput struct {
	UserID  uint64
	MovieID uint64
	Rating  int
	Text    string
}

func validateReview(rating int, text string) error {
	if !model.ValidRating(rating) {
		return apperr.Validation(fmt.Sprintf("rating must be an integer between %d and %d", model.MinRating, model.MaxRating))
	}
	if utf8.RuneCountInString(text) > MaxReviewTextLen {
		return apperr.Validation(fmt.Sprintf("review text must be at most %d characters", MaxReviewTextLen))
	}
	return nil
}

// Create adds the caller's review of a movie and recomputes the movie's
// rating.  A second review of the same movie by the same user is a
// conflict.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (model.Review, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateReview(in.Rating, in.Text); err != nil {
		return model.Review{}, s.finish("review.create", err)
	}

	rev := model.Review{UserID: in.UserID, MovieID: in.MovieID, Rating: in.Rating, Text: in.Text}
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.Movies().LockMovie(ctx, in.MovieID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("movie not found")
			}
			return fmt.Errorf("lock movie %d: %w", in.MovieID, err)
		}
		exists, err := tx.Reviews().ExistsForUserAndMovie(ctx, in.UserID, in.MovieID)
		if err != nil {
			return fmt.Errorf("check existing review: %w", err)
		}
		if exists {
			return apperr.Conflict("you have already reviewed this movie")
		}
		if err := tx.Reviews().Insert(ctx, &rev); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Wrap(apperr.KindConflict, "you have already reviewed this movie", err)
			}
			return fmt.Errorf("insert review: %w", err)
		}
		_, err = recomputeRating(ctx, tx, in.MovieID)
		return err
	})
	if err != nil {
		return model.Review{}, s.finish("review.create", err)
	}

	s.log.Debug("review created", zap.Uint64("review_id", rev.ID), zap.Uint64("movie_id", rev.MovieID))
	s.notify(ctx, queue.ActivityEvent{Type: queue.ReviewCreated, ActorID: rev.UserID, MovieID: rev.MovieID, ReviewID: rev.ID, Rating: rev.Rating})
	return rev, s.finish("review.create", nil)
}

// lockReview locks the movie of reviewID and then the review itself.  The
// review is read once without a lock to learn its movie; the locked re-read
// catches a concurrent delete.
func lockReview(ctx context.Context, tx store.Tx, reviewID uint64) (model.Review, error) {
	rev, err := tx.Reviews().Get(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Review{}, apperr.NotFound("review not found")
		}
		return model.Review{}, fmt.Errorf("load review %d: %w", reviewID, err)
	}
	if err := tx.Movies().LockMovie(ctx, rev.MovieID); err != nil {
		return model.Review{}, fmt.Errorf("lock movie %d: %w", rev.MovieID, err)
	}
	rev, err = tx.Reviews().GetForUpdate(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Review{}, apperr.NotFound("review not found")
		}
		return model.Review{}, fmt.Errorf("lock review %d: %w", reviewID, err)
	}
	return rev, nil
}

// Update replaces the rating and text of the actor's own review and
// recomputes the movie's rating.
func (s *ReviewService) Update(ctx context.Context, actorID, reviewID uint64, rating int, text string) (model.Review, error) {
	text = strings.TrimSpace(text)
	if err := validateReview(rating, text); err != nil {
		return model.Review{}, s.finish("review.update", err)
	}

	var out model.Review
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		rev, err := lockReview(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if rev.UserID != actorID {
			return apperr.Forbidden("you can only edit your own reviews")
		}
		if err := tx.Reviews().Update(ctx, reviewID, rating, text); err != nil {
			return fmt.Errorf("update review %d: %w", reviewID, err)
		}
		if _, err := recomputeRating(ctx, tx, rev.MovieID); err != nil {
			return err
		}
		out, err = tx.Reviews().Get(ctx, reviewID)
		return err
	})
	if err != nil {
		return model.Review{}, s.finish("review.update", err)
	}

	s.notify(ctx, queue.ActivityEvent{Type: queue.ReviewUpdated, ActorID: actorID, MovieID: out.MovieID, ReviewID: out.ID, Rating: out.Rating})
	return out, s.finish("review.update", nil)
}

// Delete removes the actor's own review and recomputes the movie's rating.
func (s *ReviewService) Delete(ctx context.Context, actorID, reviewID uint64) error {
	rev, err := s.deleteReview(ctx, reviewID, func(tx store.Tx, rev model.Review) error {
		if rev.UserID != actorID {
			return apperr.Forbidden("you can only delete your own reviews")
		}
		return nil
	})
	if err != nil {
		return s.finish("review.delete", err)
	}
	s.notify(ctx, queue.ActivityEvent{Type: queue.ReviewDeleted, ActorID: actorID, MovieID: rev.MovieID, ReviewID: rev.ID})
	return s.finish("review.delete", nil)
}

// Moderate deletes any review on behalf of an admin.  The deletion, the
// recompute and the audit record commit together.
func (s *ReviewService) Moderate(ctx context.Context, adminID, reviewID uint64, reason string) error {
	reason = strings.TrimSpace(reason)
	rev, err := s.deleteReview(ctx, reviewID, func(tx store.Tx, rev model.Review) error {
		details := fmt.Sprintf("review by user %d on movie %d removed", rev.UserID, rev.MovieID)
		if reason != "" {
			details += ": " + reason
		}
		err := tx.Audit().Insert(ctx, model.AuditEntry{
			AdminID:    adminID,
			ActionType: "delete",
			TableName:  "reviews",
			RecordID:   rev.ID,
			Details:    details,
		})
		if err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.finish("review.moderate", err)
	}
	s.log.Info("review moderated", zap.Uint64("admin_id", adminID), zap.Uint64("review_id", reviewID))
	s.notify(ctx, queue.ActivityEvent{Type: queue.ReviewModerated, ActorID: adminID, MovieID: rev.MovieID, ReviewID: rev.ID})
	return s.finish("review.moderate", nil)
}

// deleteReview locks, checks, deletes and recomputes.  check runs after the
// review is locked and before it is deleted; an error from it aborts the
// transaction.
func (s *ReviewService) deleteReview(ctx context.Context, reviewID uint64, check func(store.Tx, model.Review) error) (model.Review, error) {
	var deleted model.Review
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		rev, err := lockReview(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if err := check(tx, rev); err != nil {
			return err
		}
		if err := tx.Reviews().Delete(ctx, reviewID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("review not found")
			}
			return fmt.Errorf("delete review %d: %w", reviewID, err)
		}
		if _, err := recomputeRating(ctx, tx, rev.MovieID); err != nil {
			return err
		}
		deleted = rev
		return nil
	})
	return deleted, err
}

// ToggleLike likes a review for userID, or removes the like if present.
// It reports whether the review is liked afterwards.
func (s *ReviewService) ToggleLike(ctx context.Context, userID, reviewID uint64) (bool, error) {
	var liked bool
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Reviews().Get(ctx, reviewID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("review not found")
			}
			return fmt.Errorf("load review %d: %w", reviewID, err)
		}
		var err error
		liked, err = tx.Reviews().ToggleLike(ctx, userID, reviewID)
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Wrap(apperr.KindConflict, "like already recorded", err)
		}
		return err
	})
	return liked, s.finish("review.like", err)
}

// RecomputeRating rebuilds one movie's aggregate from its reviews.  Review
// mutations already do this; it exists to repair rows edited outside the
// service.
func (s *ReviewService) RecomputeRating(ctx context.Context, movieID uint64) (model.RatingAggregate, error) {
	var agg model.RatingAggregate
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.Movies().LockMovie(ctx, movieID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("movie not found")
			}
			return fmt.Errorf("lock movie %d: %w", movieID, err)
		}
		var err error
		agg, err = recomputeRating(ctx, tx, movieID)
		return err
	})
	return agg, s.finish("rating.recompute", err)
}
