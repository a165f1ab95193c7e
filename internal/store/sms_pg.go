package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/sms"
)

// SMSOutboxPG is the outbound-message outbox. Enqueue joins the decision
// transaction through the context, so queued messages appear exactly when
// the decision commits.
type SMSOutboxPG struct {
	db
}

func NewSMSOutboxPG(pool *pgxpool.Pool) *SMSOutboxPG {
	return &SMSOutboxPG{db: db{pool: pool}}
}

func (r *SMSOutboxPG) Enqueue(ctx context.Context, phone, body string) error {
	const stmt = `
		INSERT INTO outbound_messages (id, phone_number, body, status, attempts, created_at)
		VALUES ($1, $2, $3, 'pending', 0, now())`
	_, err := r.exec(ctx, stmt, uuid.New().String(), phone, body)
	return err
}

// NextBatch claims up to limit pending messages by moving them to
// 'sending'. The claim outlives the statement, so concurrent workers
// cannot pick up the same rows between select and send; SKIP LOCKED only
// keeps concurrent claims from blocking each other. Rows stuck in
// 'sending' past the stale window belong to a crashed worker and are
// requeued first.
func (r *SMSOutboxPG) NextBatch(ctx context.Context, limit int) ([]sms.Message, error) {
	const requeue = `
		UPDATE outbound_messages
		SET status = 'pending', claimed_at = NULL
		WHERE status = 'sending' AND claimed_at < now() - interval '5 minutes'`
	if _, err := r.exec(ctx, requeue); err != nil {
		return nil, err
	}

	const claim = `
		UPDATE outbound_messages m
		SET status = 'sending', claimed_at = now()
		FROM (
			SELECT id
			FROM outbound_messages
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) next
		WHERE m.id = next.id
		RETURNING m.id, m.phone_number, m.body, m.status, m.attempts, m.created_at, m.sent_at`
	rows, err := r.query(ctx, claim, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sms.Message
	for rows.Next() {
		var m sms.Message
		if err := rows.Scan(&m.ID, &m.PhoneNumber, &m.Body, &m.Status, &m.Attempts, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SMSOutboxPG) MarkSent(ctx context.Context, id string, at time.Time) error {
	const stmt = `UPDATE outbound_messages SET status = 'sent', sent_at = $2 WHERE id = $1`
	_, err := r.exec(ctx, stmt, id, at)
	return err
}

// RecordAttempt releases the claim along with the attempt count, so the
// row is eligible for the next batch.
func (r *SMSOutboxPG) RecordAttempt(ctx context.Context, id string, attempts int) error {
	const stmt = `UPDATE outbound_messages SET attempts = $2, status = 'pending', claimed_at = NULL WHERE id = $1`
	_, err := r.exec(ctx, stmt, id, attempts)
	return err
}

func (r *SMSOutboxPG) MarkFailed(ctx context.Context, id string, attempts int) error {
	const stmt = `UPDATE outbound_messages SET status = 'failed', attempts = $2 WHERE id = $1`
	_, err := r.exec(ctx, stmt, id, attempts)
	return err
}
