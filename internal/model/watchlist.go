package model

import "time"

// WatchStatus is the progress of a user through a watchlisted movie.
type WatchStatus string

const (
    StatusToWatch   WatchStatus = "to-watch"
    StatusWatching  WatchStatus = "watching"
    StatusCompleted WatchStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s WatchStatus) Valid() bool {
    switch s {
    case StatusToWatch, StatusWatching, StatusCompleted:
        return true
    }
    return false
}

// WatchlistEntry is a row of the `watchlist` table.  There is at most one
// entry per (UserID, MovieID) pair.
type WatchlistEntry struct {
    ID         uint64      `json:"watchlist_id"` // watchlist.watchlist_id
    UserID     uint64      `json:"user_id"`      // watchlist.user_id
    MovieID    uint64      `json:"movie_id"`     // watchlist.movie_id
    Status     WatchStatus `json:"status"`       // watchlist.status
    AddedDate  time.Time   `json:"added_date"`   // watchlist.added_date
    MovieTitle string      `json:"title,omitempty"`
}
