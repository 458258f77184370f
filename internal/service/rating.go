package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/cinesocial/internal/metrics"
	"github.com/iliyamo/cinesocial/internal/model"
	"github.com/iliyamo/cinesocial/internal/store"
)

// recomputeRating rewrites the rating aggregate of movieID from its current
// reviews.  It is the only writer of movies.average_rating and
// movies.review_count, and it must run in the same transaction as the
// review mutation that triggered it, after that mutation.
func recomputeRating(ctx context.Context, tx store.Tx, movieID uint64) (model.RatingAggregate, error) {
	ratings, err := tx.Reviews().RatingsForMovie(ctx, movieID)
	if err != nil {
		return model.RatingAggregate{}, fmt.Errorf("load ratings of movie %d: %w", movieID, err)
	}
	agg := model.AggregateRatings(ratings)
	if err := tx.Movies().SetRatingAggregate(ctx, movieID, agg); err != nil {
		return model.RatingAggregate{}, fmt.Errorf("store rating aggregate of movie %d: %w", movieID, err)
	}
	metrics.RatingRecomputes.Inc()
	return agg, nil
}
