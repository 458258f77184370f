package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cinesocial/internal/store"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// either standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is the common part of *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Store implements store.Store on a MySQL connection pool.
type Store struct {
	DB *sql.DB
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// WithinTx runs fn in a READ COMMITTED transaction.  Cross-row invariants
// rely on the row locks taken by the Lock.../...ForUpdate methods rather
// than on the isolation level, and READ COMMITTED makes the reads that
// follow a lock observe the latest committed rows.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(txRepos{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type txRepos struct{ db DBTX }

func (t txRepos) Users() store.UserTx          { return NewUserRepo(t.db) }
func (t txRepos) Movies() store.MovieTx        { return NewMovieRepo(t.db) }
func (t txRepos) Reviews() store.ReviewTx      { return NewReviewRepo(t.db) }
func (t txRepos) Watchlist() store.WatchlistTx { return NewWatchlistRepo(t.db) }
func (t txRepos) Events() store.EventTx        { return NewEventRepo(t.db) }
func (t txRepos) Audit() store.AuditTx         { return NewAuditRepo(t.db) }

var _ store.Store = (*Store)(nil)
