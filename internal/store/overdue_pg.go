package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/overdue"
)

// OverduePG feeds the reminder sweep and records which reminders already
// fired.
type OverduePG struct {
	db
}

func NewOverduePG(pool *pgxpool.Pool) *OverduePG {
	return &OverduePG{db: db{pool: pool}}
}

func (r *OverduePG) ListActiveLoans(ctx context.Context) ([]overdue.ActiveLoan, error) {
	const query = `
		SELECT r.id, r.user_id, r.book_id, u.username, u.phone_number, b.title, r.end_date
		FROM requests r
		JOIN users u ON u.id = r.user_id
		JOIN books b ON b.id = r.book_id
		WHERE r.kind = 'borrow' AND r.status = 'accepted' AND NOT r.is_finished AND r.end_date IS NOT NULL
		ORDER BY r.end_date`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []overdue.ActiveLoan
	for rows.Next() {
		var l overdue.ActiveLoan
		if err := rows.Scan(&l.LoanID, &l.UserID, &l.BookID, &l.Username, &l.PhoneNumber, &l.BookTitle, &l.EndDate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TryMarkReminded claims the (book, user, threshold, day) slot. ON CONFLICT
// DO NOTHING makes overlapping sweeps race-safe: exactly one run claims the
// slot and sends the reminder.
func (r *OverduePG) TryMarkReminded(ctx context.Context, bookID, userID string, threshold int, day time.Time) (bool, error) {
	const stmt = `
		INSERT INTO reminders (book_id, user_id, threshold, day)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (book_id, user_id, threshold, day) DO NOTHING`
	tag, err := r.exec(ctx, stmt, bookID, userID, threshold, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
