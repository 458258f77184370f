package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

type ReviewRepo struct{ db DBTX }

func NewReviewRepo(db DBTX) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = "r.review_id, r.user_id, r.movie_id, r.rating, r.review_text, r.date_posted, r.last_modified"

func scanReview(row rowScanner, extra ...any) (model.Review, error) {
	var (
		rev      model.Review
		modified sql.NullTime
	)
	dest := append([]any{&rev.ID, &rev.UserID, &rev.MovieID, &rev.Rating, &rev.Text, &rev.DatePosted, &modified}, extra...)
	if err := row.Scan(dest...); err != nil {
		return rev, translate(err)
	}
	if modified.Valid {
		rev.LastModified = &modified.Time
	}
	return rev, nil
}

func (r *ReviewRepo) Get(ctx context.Context, reviewID uint64) (model.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews r WHERE r.review_id=?", reviewID))
}

func (r *ReviewRepo) GetForUpdate(ctx context.Context, reviewID uint64) (model.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews r WHERE r.review_id=? FOR UPDATE", reviewID))
}

func (r *ReviewRepo) ExistsForUserAndMovie(ctx context.Context, userID, movieID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM reviews WHERE user_id=? AND movie_id=? LIMIT 1", userID, movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// RatingsForMovie returns every current rating of movieID.
func (r *ReviewRepo) RatingsForMovie(ctx context.Context, movieID uint64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rating FROM reviews WHERE movie_id=?", movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Insert adds rev and sets rev.ID and rev.DatePosted.  A second review by
// the same (user, movie) pair yields ErrDuplicate.
func (r *ReviewRepo) Insert(ctx context.Context, rev *model.Review) error {
	posted := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (user_id, movie_id, rating, review_text, date_posted) VALUES (?,?,?,?,?)",
		rev.UserID, rev.MovieID, rev.Rating, rev.Text, posted)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID, rev.DatePosted, rev.LastModified = uint64(id), posted, nil
	return nil
}

func (r *ReviewRepo) Update(ctx context.Context, reviewID uint64, rating int, text string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET rating=?, review_text=?, last_modified=? WHERE review_id=?",
		rating, text, time.Now().UTC().Truncate(time.Second), reviewID)
	return err
}

func (r *ReviewRepo) Delete(ctx context.Context, reviewID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE review_id=?", reviewID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike removes the caller's like if present, otherwise adds one.
func (r *ReviewRepo) ToggleLike(ctx context.Context, userID, reviewID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM review_likes WHERE user_id=? AND review_id=?", userID, reviewID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO review_likes (user_id, review_id) VALUES (?,?)", userID, reviewID); err != nil {
		return false, translate(err)
	}
	return true, nil
}

// ListByMovie returns a page of a movie's reviews, newest first, with like
// counts.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64, limit, offset int) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+", (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.review_id)"+
			" FROM reviews r WHERE r.movie_id=? ORDER BY r.date_posted DESC, r.review_id DESC LIMIT ? OFFSET ?",
		movieID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var likes int
		rev, err := scanReview(rows, &likes)
		if err != nil {
			return nil, err
		}
		rev.LikeCount = likes
		out = append(out, rev)
	}
	return out, rows.Err()
}
