package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// RequestRepository encapsulates request persistence. Every mutation runs in
// a short per-call transaction; a failure mid-operation rolls back and is
// surfaced as a storage error, never as partial state.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Request, error)
	ListAll(ctx context.Context) ([]domain.Request, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.Request, error)
	UpdateContent(ctx context.Context, id int64, title, content string) error
	UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error
	Delete(ctx context.Context, id int64) error
}

type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(db *sql.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return util.NewStorageError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO requests (title, content, status, created_at, user_id)
         VALUES (?, ?, ?, ?, ?)`,
		request.Title,
		request.Content,
		request.Status,
		now,
		request.UserID,
	)
	if err != nil {
		return util.NewStorageError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return util.NewStorageError(err)
	}
	if err := tx.Commit(); err != nil {
		return util.NewStorageError(err)
	}

	request.ID = id
	request.CreatedAt = now
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, status, created_at, user_id
         FROM requests WHERE id = ?`, id)
	return scanRequest(row)
}

func (r *requestRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Request, error) {
	return r.list(ctx,
		`SELECT id, title, content, status, created_at, user_id
         FROM requests WHERE user_id = ?
         ORDER BY created_at DESC, id DESC`, userID)
}

func (r *requestRepository) ListAll(ctx context.Context) ([]domain.Request, error) {
	return r.list(ctx,
		`SELECT id, title, content, status, created_at, user_id
         FROM requests
         ORDER BY created_at DESC, id DESC`)
}

func (r *requestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.Request, error) {
	return r.list(ctx,
		`SELECT id, title, content, status, created_at, user_id
         FROM requests WHERE status = ?
         ORDER BY created_at DESC, id DESC`, status)
}

func (r *requestRepository) UpdateContent(ctx context.Context, id int64, title, content string) error {
	return r.mutate(ctx, `UPDATE requests SET title = ?, content = ? WHERE id = ?`, title, content, id)
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	return r.mutate(ctx, `UPDATE requests SET status = ? WHERE id = ?`, status, id)
}

func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	return r.mutate(ctx, `DELETE FROM requests WHERE id = ?`, id)
}

// mutate runs a single statement transactionally and reports a missing row
// as sql.ErrNoRows.
func (r *requestRepository) mutate(ctx context.Context, query string, args ...any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return util.NewStorageError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return util.NewStorageError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return util.NewStorageError(err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return util.NewStorageError(err)
	}
	return nil
}

func (r *requestRepository) list(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, util.NewStorageError(err)
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		request, err := scanRequestRow(rows)
		if err != nil {
			return nil, util.NewStorageError(err)
		}
		result = append(result, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, util.NewStorageError(err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	return scanRequestRow(row)
}

func scanRequestRow(row rowScanner) (*domain.Request, error) {
	var (
		request domain.Request
		userID  sql.NullInt64
	)
	if err := row.Scan(
		&request.ID,
		&request.Title,
		&request.Content,
		&request.Status,
		&request.CreatedAt,
		&userID,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		request.UserID = &userID.Int64
	}
	return &request, nil
}
