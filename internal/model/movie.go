package model

import (
    "math"
    "time"
)

// Movie is a row of the `movies` table.  AverageRating, ReviewCount and
// ViewCount are derived fields: the first two are written only by the
// rating aggregator, ViewCount only by the watchlist completion edge.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – display title.
//  ReleaseYear   – year of release, if known.
//  DurationMin   – running time in minutes, if known.
//  PosterURL     – poster image location, if any.
//  AverageRating – mean of all current review ratings, one decimal place;
//                  nil when the movie has no reviews.
//  ReviewCount   – number of reviews the average was computed from.
//  ViewCount     – number of watchlist entries that reached "completed".
//  CreatedAt     – creation timestamp.
type Movie struct {
    ID            uint64    `json:"movie_id"`       // movies.movie_id
    Title         string    `json:"title"`          // movies.title
    ReleaseYear   *int      `json:"release_year"`   // movies.release_year (nullable)
    DurationMin   *int      `json:"duration"`       // movies.duration (nullable)
    PosterURL     *string   `json:"poster_url"`     // movies.poster_url (nullable)
    AverageRating *float64  `json:"average_rating"` // movies.average_rating (nullable)
    ReviewCount   int       `json:"review_count"`   // movies.review_count
    ViewCount     uint64    `json:"view_count"`     // movies.view_count
    CreatedAt     time.Time `json:"created_at"`     // movies.created_at
}

// RatingAggregate is the derived rating state of one movie.
type RatingAggregate struct {
    Average *float64
    Count   int
}

// AggregateRatings computes the mean of ratings rounded to one decimal
// place.  An empty slice yields a nil Average and a zero Count.
func AggregateRatings(ratings []int) RatingAggregate {
    if len(ratings) == 0 {
        return RatingAggregate{}
    }
    sum := 0
    for _, r := range ratings {
        sum += r
    }
    avg := math.Round(float64(sum)/float64(len(ratings))*10) / 10
    return RatingAggregate{Average: &avg, Count: len(ratings)}
}
