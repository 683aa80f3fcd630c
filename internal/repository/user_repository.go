package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite "modernc.org/sqlite"

	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraint           = 19
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository returns a SQLite-backed implementation.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user in a single transaction. A uniqueness race on
// username or email surfaces as Conflict, not as a crash.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return util.NewStorageError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at, is_partner)
         VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		now,
		user.IsPartner,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return util.NewConflict("username or email already taken", nil)
		}
		return util.NewStorageError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return util.NewStorageError(err)
	}
	if err := tx.Commit(); err != nil {
		return util.NewStorageError(err)
	}

	user.ID = id
	user.CreatedAt = now
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx,
		`SELECT id, username, email, password_hash, created_at, is_partner
         FROM users WHERE id = ?`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx,
		`SELECT id, username, email, password_hash, created_at, is_partner
         FROM users WHERE username = ?`, username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx,
		`SELECT id, username, email, password_hash, created_at, is_partner
         FROM users WHERE email = ?`, email)
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ? OR email = ? LIMIT 1`,
		username, email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.IsPartner,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqliteConstraint, sqliteConstraintPrimaryKey, sqliteConstraintUnique:
		return true
	}
	return false
}
