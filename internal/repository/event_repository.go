package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

// EventFilter narrows EventRepo.List.  Zero fields are ignored.
type EventFilter struct {
	Status  model.EventStatus
	HostID  uint64
	MovieID uint64
	From    time.Time
	Limit   int
	Offset  int
}

type EventRepo struct{ db DBTX }

func NewEventRepo(db DBTX) *EventRepo { return &EventRepo{db: db} }

const eventColumns = "e.event_id, e.host_id, e.movie_id, e.event_date, e.max_participants, e.location, e.description, e.status, e.created_at"

func scanEvent(row rowScanner, extra ...any) (model.Event, error) {
	var ev model.Event
	dest := append([]any{&ev.ID, &ev.HostID, &ev.MovieID, &ev.EventDate, &ev.MaxParticipants,
		&ev.Location, &ev.Description, &ev.Status, &ev.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return ev, translate(err)
	}
	return ev, nil
}

// GetForUpdate locks the event row; joins, leaves and cancels on the same
// event serialise on this lock.
func (r *EventRepo) GetForUpdate(ctx context.Context, eventID uint64) (model.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.event_id=? FOR UPDATE", eventID))
}

func (r *EventRepo) HostHasScheduledAt(ctx context.Context, hostID uint64, at time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM events WHERE host_id=? AND event_date=? AND status=? LIMIT 1",
		hostID, at.UTC(), string(model.EventScheduled)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Insert adds ev and sets ev.ID and ev.CreatedAt.
func (r *EventRepo) Insert(ctx context.Context, ev *model.Event) error {
	created := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (host_id, movie_id, event_date, max_participants, location, description, status, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		ev.HostID, ev.MovieID, ev.EventDate.UTC(), ev.MaxParticipants, ev.Location, ev.Description, string(ev.Status), created)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID, ev.CreatedAt = uint64(id), created
	return nil
}

func (r *EventRepo) Update(ctx context.Context, ev model.Event) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE events SET event_date=?, max_participants=?, location=?, description=? WHERE event_id=?",
		ev.EventDate, ev.MaxParticipants, ev.Location, ev.Description, ev.ID)
	return err
}

func (r *EventRepo) SetStatus(ctx context.Context, eventID uint64, status model.EventStatus) error {
	_, err := r.db.ExecContext(ctx, "UPDATE events SET status=? WHERE event_id=?", string(status), eventID)
	return err
}

func (r *EventRepo) IsParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM event_participants WHERE event_id=? AND user_id=?", eventID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *EventRepo) CountParticipants(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_participants WHERE event_id=?", eventID).Scan(&n)
	return n, err
}

func (r *EventRepo) AddParticipant(ctx context.Context, p model.EventParticipant) error {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO event_participants (event_id, user_id, joined_at, rsvp_status) VALUES (?,?,?,?)",
		p.EventID, p.UserID, p.JoinedAt.Truncate(time.Second), p.RSVPStatus)
	return translate(err)
}

func (r *EventRepo) RemoveParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM event_participants WHERE event_id=? AND user_id=?", eventID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EventRepo) RemoveAllParticipants(ctx context.Context, eventID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM event_participants WHERE event_id=?", eventID)
	return err
}

const participantCountColumn = "(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.event_id)"

// GetByID returns an event with its movie title and current participant
// count.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (model.Event, error) {
	var (
		count int
		title string
	)
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+", "+participantCountColumn+", m.title"+
			" FROM events e JOIN movies m ON m.movie_id = e.movie_id WHERE e.event_id=?", eventID),
		&count, &title)
	if err != nil {
		return ev, err
	}
	ev.ParticipantCount, ev.MovieTitle = count, title
	return ev, nil
}

// Participants lists an event's members in join order.
func (r *EventRepo) Participants(ctx context.Context, eventID uint64) ([]model.EventParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT event_id, user_id, joined_at, rsvp_status FROM event_participants WHERE event_id=? ORDER BY joined_at, user_id",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.EventParticipant{}
	for rows.Next() {
		var p model.EventParticipant
		if err := rows.Scan(&p.EventID, &p.UserID, &p.JoinedAt, &p.RSVPStatus); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns events matching f ordered by date.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "e.status=?")
		args = append(args, string(f.Status))
	}
	if f.HostID != 0 {
		where = append(where, "e.host_id=?")
		args = append(args, f.HostID)
	}
	if f.MovieID != 0 {
		where = append(where, "e.movie_id=?")
		args = append(args, f.MovieID)
	}
	if !f.From.IsZero() {
		where = append(where, "e.event_date>=?")
		args = append(args, f.From.UTC())
	}
	q := "SELECT " + eventColumns + ", " + participantCountColumn + ", m.title" +
		" FROM events e JOIN movies m ON m.movie_id = e.movie_id"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += " ORDER BY e.event_date, e.event_id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		var (
			count int
			title string
		)
		ev, err := scanEvent(rows, &count, &title)
		if err != nil {
			return nil, err
		}
		ev.ParticipantCount, ev.MovieTitle = count, title
		out = append(out, ev)
	}
	return out, rows.Err()
}
