package model

import "time"

// Bounds of Review.Rating, inclusive.
const (
    MinRating = 1
    MaxRating = 10
)

// Review is a row of the `reviews` table.  There is at most one review per
// (UserID, MovieID) pair.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – author of the review.
//  MovieID      – reviewed movie.
//  Rating       – integer score in [MinRating, MaxRating].
//  Text         – free text body, may be empty.
//  DatePosted   – creation timestamp.
//  LastModified – timestamp of the last edit, nil if never edited.
//  LikeCount    – number of review_likes rows (read models only).
type Review struct {
    ID           uint64     `json:"review_id"`     // reviews.review_id
    UserID       uint64     `json:"user_id"`       // reviews.user_id
    MovieID      uint64     `json:"movie_id"`      // reviews.movie_id
    Rating       int        `json:"rating"`        // reviews.rating
    Text         string     `json:"review_text"`   // reviews.review_text
    DatePosted   time.Time  `json:"date_posted"`   // reviews.date_posted
    LastModified *time.Time `json:"last_modified"` // reviews.last_modified (nullable)
    LikeCount    int        `json:"like_count"`
}

// ValidRating reports whether r is an acceptable review score.
func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }
