package model

import "time"

// EventStatus is the lifecycle state of a watch party.
type EventStatus string

const (
    EventScheduled EventStatus = "scheduled"
    EventCancelled EventStatus = "cancelled"
    EventCompleted EventStatus = "completed"
)

// RSVPAttending is the rsvp_status given to every joined participant,
// including the host at creation time.
const RSVPAttending = "attending"

// Event represents a watch party hosted by a user for a movie.  A host may
// not have two scheduled events at the exact same EventDate.  The number of
// participant rows never exceeds MaxParticipants.
//
// Fields:
//  ID               – primary key identifier.
//  HostID           – user who created the event; always a participant
//                     while the event is scheduled.
//  MovieID          – movie being watched.
//  EventDate        – start time, UTC, second precision.
//  MaxParticipants  – capacity ceiling including the host (>= 1).
//  Location         – free text location.
//  Description      – free text description.
//  Status           – scheduled, cancelled or completed.
//  CreatedAt        – creation timestamp.
//  ParticipantCount – current number of participants (read models only).
type Event struct {
    ID               uint64      `json:"event_id"`         // events.event_id
    HostID           uint64      `json:"host_id"`          // events.host_id
    MovieID          uint64      `json:"movie_id"`         // events.movie_id
    EventDate        time.Time   `json:"event_date"`       // events.event_date
    MaxParticipants  int         `json:"max_participants"` // events.max_participants
    Location         string      `json:"location"`         // events.location
    Description      string      `json:"description"`      // events.description
    Status           EventStatus `json:"status"`           // events.status
    CreatedAt        time.Time   `json:"created_at"`       // events.created_at
    ParticipantCount int         `json:"participant_count"`
    MovieTitle       string      `json:"movie_title,omitempty"`
}

// EventParticipant is a row of `event_participants`, keyed by
// (EventID, UserID).
type EventParticipant struct {
    EventID    uint64    `json:"event_id"`    // event_participants.event_id
    UserID     uint64    `json:"user_id"`     // event_participants.user_id
    JoinedAt   time.Time `json:"joined_at"`   // event_participants.joined_at
    RSVPStatus string    `json:"rsvp_status"` // event_participants.rsvp_status
}
