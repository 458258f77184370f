package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

type WatchlistRepo struct{ db DBTX }

func NewWatchlistRepo(db DBTX) *WatchlistRepo { return &WatchlistRepo{db: db} }

func (r *WatchlistRepo) ExistsForUserAndMovie(ctx context.Context, userID, movieID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM watchlist WHERE user_id=? AND movie_id=? LIMIT 1", userID, movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Insert adds e and sets e.ID and e.AddedDate.
func (r *WatchlistRepo) Insert(ctx context.Context, e *model.WatchlistEntry) error {
	added := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO watchlist (user_id, movie_id, status, added_date) VALUES (?,?,?,?)",
		e.UserID, e.MovieID, string(e.Status), added)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID, e.AddedDate = uint64(id), added
	return nil
}

func (r *WatchlistRepo) GetForUpdate(ctx context.Context, watchlistID uint64) (model.WatchlistEntry, error) {
	var e model.WatchlistEntry
	err := r.db.QueryRowContext(ctx,
		"SELECT watchlist_id, user_id, movie_id, status, added_date FROM watchlist WHERE watchlist_id=? FOR UPDATE",
		watchlistID).Scan(&e.ID, &e.UserID, &e.MovieID, &e.Status, &e.AddedDate)
	return e, translate(err)
}

func (r *WatchlistRepo) UpdateStatus(ctx context.Context, watchlistID uint64, status model.WatchStatus) error {
	_, err := r.db.ExecContext(ctx, "UPDATE watchlist SET status=? WHERE watchlist_id=?", string(status), watchlistID)
	return err
}

func (r *WatchlistRepo) Delete(ctx context.Context, watchlistID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE watchlist_id=?", watchlistID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's watchlist, most recently added first.  An
// empty status returns every entry.
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID uint64, status model.WatchStatus) ([]model.WatchlistEntry, error) {
	q := `SELECT w.watchlist_id, w.user_id, w.movie_id, w.status, w.added_date, m.title
	      FROM watchlist w JOIN movies m ON m.movie_id = w.movie_id
	      WHERE w.user_id=?`
	args := []any{userID}
	if status != "" {
		q += " AND w.status=?"
		args = append(args, string(status))
	}
	q += " ORDER BY w.added_date DESC, w.watchlist_id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WatchlistEntry{}
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MovieID, &e.Status, &e.AddedDate, &e.MovieTitle); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
