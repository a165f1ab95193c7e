package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BlacklistPG stores revoked refresh-token ids. Rows become dead weight once
// the token would have expired anyway; CleanupExpired reaps them.
type BlacklistPG struct {
	db
}

func NewBlacklistPG(pool *pgxpool.Pool) *BlacklistPG {
	return &BlacklistPG{db: db{pool: pool}}
}

func (r *BlacklistPG) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	const stmt = `
		INSERT INTO token_blacklist (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING`
	_, err := r.exec(ctx, stmt, jti, expiresAt)
	return err
}

func (r *BlacklistPG) Contains(ctx context.Context, jti string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM token_blacklist
			WHERE jti = $1 AND expires_at > now()
		)`
	var exists bool
	err := r.queryRow(ctx, query, jti).Scan(&exists)
	return exists, err
}

func (r *BlacklistPG) CleanupExpired(ctx context.Context) error {
	_, err := r.exec(ctx, `DELETE FROM token_blacklist WHERE expires_at < now()`)
	return err
}
