package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/notification"
	"github.com/TheAliBit/codinto-library/internal/request"
)

type NotificationPG struct {
	db
}

func NewNotificationPG(pool *pgxpool.Pool) *NotificationPG {
	return &NotificationPG{db: db{pool: pool}}
}

func (r *NotificationPG) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	const stmt = `
		INSERT INTO notifications (id, user_id, book_id, title, description, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`
	return r.queryRow(ctx, stmt, n.ID, n.UserID, n.BookID, n.Title, n.Description, n.Kind).Scan(&n.CreatedAt)
}

// ListForUser returns the user's own notifications plus broadcasts, newest
// first. Availability-alert rows are subscriptions, not messages, so they
// are filtered out.
func (r *NotificationPG) ListForUser(ctx context.Context, userID string, limit, offset int) ([]notification.Notification, int, error) {
	const where = `
		WHERE kind <> 'available'
		  AND (user_id = $1 OR kind = 'broadcast')`

	var total int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM notifications `+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, user_id, book_id, title, description, kind, created_at
		FROM notifications ` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	out, err := r.list(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *NotificationPG) ListAll(ctx context.Context, limit, offset int) ([]notification.Notification, int, error) {
	var total int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, user_id, book_id, title, description, kind, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	out, err := r.list(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *NotificationPG) HasAlert(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND book_id = $2 AND kind = 'available'
		)`
	var ok bool
	err := r.queryRow(ctx, query, userID, bookID).Scan(&ok)
	return ok, err
}

func (r *NotificationPG) CreateAlert(ctx context.Context, userID, bookID string) error {
	const stmt = `
		INSERT INTO notifications (id, user_id, book_id, title, description, kind, created_at)
		VALUES ($1, $2, $3, '', '', 'available', now())`
	_, err := r.exec(ctx, stmt, uuid.New().String(), userID, bookID)
	if isUniqueViolation(err) {
		return &request.ConflictError{Reason: "you already have an availability alert for this book"}
	}
	return err
}

func (r *NotificationPG) AlertSubscribers(ctx context.Context, bookID string) ([]notification.Subscriber, error) {
	const query = `
		SELECT u.id, u.username, u.phone_number
		FROM notifications n
		JOIN users u ON u.id = n.user_id
		WHERE n.book_id = $1 AND n.kind = 'available'
		ORDER BY n.created_at`
	rows, err := r.query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Subscriber
	for rows.Next() {
		var s notification.Subscriber
		if err := rows.Scan(&s.UserID, &s.Username, &s.PhoneNumber); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *NotificationPG) DeleteAlerts(ctx context.Context, bookID string) error {
	_, err := r.exec(ctx, `DELETE FROM notifications WHERE book_id = $1 AND kind = 'available'`, bookID)
	return err
}

func (r *NotificationPG) list(ctx context.Context, query string, args ...any) ([]notification.Notification, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.BookID, &n.Title, &n.Description, &n.Kind, &n.CreatedAt)
	return n, err
}
