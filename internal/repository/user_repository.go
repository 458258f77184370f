package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/cinesocial/internal/model"
)

type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = "user_id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at"

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, translate(err)
}

// Create inserts u (with an already hashed password) and sets u.ID.
// The email is normalised to lower case.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, role) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id))
}

// LockUser takes a row lock on the user for the rest of the transaction.
func (r *UserRepo) LockUser(ctx context.Context, userID uint64) error {
	var id uint64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM users WHERE user_id=? FOR UPDATE", userID).Scan(&id)
	return translate(err)
}

func (r *UserRepo) Exists(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id=?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// SetActive flips users.is_active.  ErrNotFound if the user is absent.
func (r *UserRepo) SetActive(ctx context.Context, userID uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_active=? WHERE user_id=?", active, userID)
	if err != nil {
		return err
	}
	// MySQL counts changed rows only, so an unchanged flag also reads 0.
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	ok, err := r.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
