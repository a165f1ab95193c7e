package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/request"
)

const requestColumns = `id, user_id, book_id, kind, status, duration, loan_id, start_date, end_date, is_finished, score, description, created_at, updated_at`

// RequestPG persists the request union in a single table with a kind
// discriminator. The partial unique indexes created by the migrations turn
// submission races into unique violations, which this repo reports as
// ConflictError.
type RequestPG struct {
	db
}

func NewRequestPG(pool *pgxpool.Pool) *RequestPG {
	return &RequestPG{db: db{pool: pool}}
}

func (r *RequestPG) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RequestPG) Create(ctx context.Context, req *request.Request) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	const stmt = `
		INSERT INTO requests (id, user_id, book_id, kind, status, duration, loan_id, score, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`
	err := r.queryRow(ctx, stmt,
		req.ID, req.UserID, req.BookID, req.Kind, req.Status,
		req.Duration, req.LoanID, req.Score, req.Description,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &request.ConflictError{Reason: "a conflicting request already exists for this book"}
		}
		return err
	}
	return nil
}

func (r *RequestPG) GetByID(ctx context.Context, id string) (request.Request, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate locks the request row for the rest of the transaction so
// two admins cannot decide the same request concurrently.
func (r *RequestPG) GetByIDForUpdate(ctx context.Context, id string) (request.Request, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *RequestPG) getByID(ctx context.Context, id, suffix string) (request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1` + suffix
	req, err := scanRequest(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, request.ErrNotFound
		}
		return request.Request{}, err
	}
	return req, nil
}

func (r *RequestPG) Update(ctx context.Context, req *request.Request) error {
	const stmt = `
		UPDATE requests
		SET status = $2, start_date = $3, end_date = $4, is_finished = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.exec(ctx, stmt, req.ID, req.Status, req.StartDate, req.EndDate, req.IsFinished, req.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound
	}
	return nil
}

func (r *RequestPG) Delete(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound
	}
	return nil
}

func (r *RequestPG) FindActiveLoan(ctx context.Context, userID, bookID string) (*request.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE user_id = $1 AND book_id = $2 AND kind = 'borrow' AND status = 'accepted' AND NOT is_finished
		LIMIT 1`
	req, err := scanRequest(r.queryRow(ctx, query, userID, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestPG) HasPending(ctx context.Context, userID, bookID string, kind request.Kind) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE user_id = $1 AND book_id = $2 AND kind = $3 AND status = 'pending'
		)`
	return r.exists(ctx, query, userID, bookID, kind)
}

func (r *RequestPG) HasLiveExtension(ctx context.Context, loanID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE loan_id = $1 AND kind = 'extension' AND status IN ('pending', 'accepted')
		)`
	return r.exists(ctx, query, loanID)
}

func (r *RequestPG) HasPendingReturn(ctx context.Context, loanID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE loan_id = $1 AND kind = 'return' AND status = 'pending'
		)`
	return r.exists(ctx, query, loanID)
}

func (r *RequestPG) HasAcceptedReturn(ctx context.Context, loanID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE loan_id = $1 AND kind = 'return' AND status = 'accepted'
		)`
	return r.exists(ctx, query, loanID)
}

func (r *RequestPG) HasAcceptedReturnForBook(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE user_id = $1 AND book_id = $2 AND kind = 'return' AND status = 'accepted'
		)`
	return r.exists(ctx, query, userID, bookID)
}

func (r *RequestPG) HasReview(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE user_id = $1 AND book_id = $2 AND kind = 'review'
		)`
	return r.exists(ctx, query, userID, bookID)
}

func (r *RequestPG) ExtendLoan(ctx context.Context, loanID string, days int) error {
	const stmt = `
		UPDATE requests
		SET end_date = end_date + make_interval(days => $2), updated_at = now()
		WHERE id = $1 AND kind = 'borrow'`
	tag, err := r.exec(ctx, stmt, loanID, days)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound
	}
	return nil
}

func (r *RequestPG) FinishLoan(ctx context.Context, loanID string, endedAt time.Time) error {
	const stmt = `
		UPDATE requests
		SET is_finished = true, end_date = $2, updated_at = now()
		WHERE id = $1 AND kind = 'borrow'`
	tag, err := r.exec(ctx, stmt, loanID, endedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound
	}
	return nil
}

func (r *RequestPG) ListByUser(ctx context.Context, userID string) ([]request.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE user_id = $1
		ORDER BY created_at`
	return r.list(ctx, query, userID)
}

func (r *RequestPG) ListActiveLoansByUser(ctx context.Context, userID string) ([]request.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE user_id = $1 AND kind = 'borrow' AND status = 'accepted' AND NOT is_finished
		ORDER BY created_at`
	return r.list(ctx, query, userID)
}

func (r *RequestPG) ListByStatus(ctx context.Context, status request.Status, limit, offset int) ([]request.Request, int, error) {
	where := ""
	countArgs := []any{}
	if status != "" {
		where = " WHERE status = $1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM requests`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + requestColumns + ` FROM requests` + where + ` ORDER BY created_at DESC`
	args := countArgs
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	out, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *RequestPG) ListBorrowHistory(ctx context.Context, bookID, userID string) ([]request.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE kind = 'borrow' AND status = 'accepted'`
	args := []any{}
	argn := 1
	if bookID != "" {
		query += fmt.Sprintf(` AND book_id = $%d`, argn)
		args = append(args, bookID)
		argn++
	}
	if userID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argn)
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *RequestPG) ListAcceptedReviews(ctx context.Context, bookID string) ([]request.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE book_id = $1 AND kind = 'review' AND status = 'accepted'
		ORDER BY created_at DESC`
	return r.list(ctx, query, bookID)
}

func (r *RequestPG) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := r.queryRow(ctx, query, args...).Scan(&ok)
	return ok, err
}

func (r *RequestPG) list(ctx context.Context, query string, args ...any) ([]request.Request, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (request.Request, error) {
	var req request.Request
	err := row.Scan(
		&req.ID, &req.UserID, &req.BookID, &req.Kind, &req.Status,
		&req.Duration, &req.LoanID, &req.StartDate, &req.EndDate,
		&req.IsFinished, &req.Score, &req.Description,
		&req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}
