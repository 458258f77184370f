// Package queue carries activity notifications over RabbitMQ: a publisher
// used by the services after a commit and a consumer that appends each
// message to an activity log file.
package queue

// ActivityQueueName is the durable queue activity messages are routed to.
const ActivityQueueName = "activity.events"

// Activity types.
const (
	ReviewCreated          = "review.created"
	ReviewUpdated          = "review.updated"
	ReviewDeleted          = "review.deleted"
	ReviewModerated        = "review.moderated"
	WatchlistAdded         = "watchlist.added"
	WatchlistStatusChanged = "watchlist.status_changed"
	WatchlistRemoved       = "watchlist.removed"
	EventCreated           = "event.created"
	EventUpdated           = "event.updated"
	EventJoined            = "event.joined"
	EventLeft              = "event.left"
	EventCancelled         = "event.cancelled"
	UserSuspended          = "user.suspended"
	UserReinstated         = "user.reinstated"
)

// ActivityEvent describes one committed mutation.  Only the ids relevant to
// Type are set.
type ActivityEvent struct {
	Type        string `json:"type"`
	ActorID     uint64 `json:"actor_id"`
	MovieID     uint64 `json:"movie_id,omitempty"`
	ReviewID    uint64 `json:"review_id,omitempty"`
	WatchlistID uint64 `json:"watchlist_id,omitempty"`
	EventID     uint64 `json:"event_id,omitempty"`
	UserID      uint64 `json:"user_id,omitempty"` // account acted upon by an admin
	Rating      int    `json:"rating,omitempty"`
	Status      string `json:"status,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
