package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cinesocial/internal/model"
)

// MovieOrder selects the ranking used by MovieRepo.List.
type MovieOrder string

const (
	OrderByViews  MovieOrder = "views"
	OrderByRating MovieOrder = "rating"
)

// Valid reports whether o is a known ordering.
func (o MovieOrder) Valid() bool { return o == OrderByViews || o == OrderByRating }

type MovieRepo struct{ db DBTX }

func NewMovieRepo(db DBTX) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = "movie_id, title, release_year, duration, poster_url, average_rating, review_count, view_count, created_at"

func scanMovie(row rowScanner) (model.Movie, error) {
	var (
		m         model.Movie
		year, dur sql.NullInt64
		poster    sql.NullString
		avg       sql.NullFloat64
	)
	if err := row.Scan(&m.ID, &m.Title, &year, &dur, &poster, &avg, &m.ReviewCount, &m.ViewCount, &m.CreatedAt); err != nil {
		return m, translate(err)
	}
	if year.Valid {
		y := int(year.Int64)
		m.ReleaseYear = &y
	}
	if dur.Valid {
		d := int(dur.Int64)
		m.DurationMin = &d
	}
	if poster.Valid {
		m.PosterURL = &poster.String
	}
	if avg.Valid {
		m.AverageRating = &avg.Float64
	}
	return m, nil
}

// Create inserts a catalog entry and sets m.ID.  Derived fields start empty.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (title, release_year, duration, poster_url, created_at) VALUES (?,?,?,?,?)",
		m.Title, m.ReleaseYear, m.DurationMin, m.PosterURL, m.CreatedAt)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.AverageRating, m.ReviewCount, m.ViewCount = nil, 0, 0
	return nil
}

// GetByID returns one movie with its aggregate fields.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE movie_id=?", id))
}

// List returns up to limit movies ranked by order.  Unrated movies sort
// after rated ones when ranking by rating.
func (r *MovieRepo) List(ctx context.Context, order MovieOrder, limit int) ([]model.Movie, error) {
	orderBy := "view_count DESC, movie_id"
	if order == OrderByRating {
		orderBy = "average_rating IS NULL, average_rating DESC, review_count DESC, movie_id"
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY "+orderBy+" LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0, limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MovieFilter narrows a catalog search.  Zero values mean "any".
type MovieFilter struct {
	Query  string // substring of the title
	Year   int    // exact release year
	Limit  int
	Offset int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where builds the WHERE clause for f.  The title match is a LIKE with the
// wildcards in Query escaped, so user input only ever matches literally.
func (f MovieFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
	}
	if f.Year != 0 {
		conds = append(conds, "release_year = ?")
		args = append(args, f.Year)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Search pages through the catalog, best rated first, and reports how many
// movies match in total.
func (r *MovieRepo) Search(ctx context.Context, f MovieFilter) ([]model.Movie, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies"+where+
			" ORDER BY average_rating IS NULL, average_rating DESC, view_count DESC, movie_id LIMIT ? OFFSET ?",
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0, f.Limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *MovieRepo) Exists(ctx context.Context, movieID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE movie_id=?", movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// LockMovie takes a row lock on the movie for the rest of the transaction.
func (r *MovieRepo) LockMovie(ctx context.Context, movieID uint64) error {
	var id uint64
	err := r.db.QueryRowContext(ctx, "SELECT movie_id FROM movies WHERE movie_id=? FOR UPDATE", movieID).Scan(&id)
	return translate(err)
}

// SetRatingAggregate overwrites the derived rating columns.  A nil average
// is stored as NULL.
func (r *MovieRepo) SetRatingAggregate(ctx context.Context, movieID uint64, agg model.RatingAggregate) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE movies SET average_rating=?, review_count=? WHERE movie_id=?",
		agg.Average, agg.Count, movieID)
	return err
}

func (r *MovieRepo) IncrementViewCount(ctx context.Context, movieID uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE movies SET view_count = view_count + 1 WHERE movie_id=?", movieID)
	return err
}
