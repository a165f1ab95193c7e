package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/user"
)

const userColumns = `id, username, password_hash, first_name, last_name, phone_number, email, telegram_id, picture_url, is_admin, created_at, updated_at`

type UserPG struct {
	db
}

func NewUserPG(pool *pgxpool.Pool) *UserPG {
	return &UserPG{db: db{pool: pool}}
}

func (r *UserPG) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	const stmt = `
		INSERT INTO users (id, username, password_hash, first_name, last_name, phone_number, email, telegram_id, picture_url, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING created_at, updated_at`
	err := r.queryRow(ctx, stmt,
		u.ID, u.Username, u.Password, u.FirstName, u.LastName,
		u.PhoneNumber, u.Email, u.TelegramID, u.PictureURL, u.IsAdmin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return user.ErrUsernameTaken
	}
	return err
}

func (r *UserPG) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserPG) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserPG) Update(ctx context.Context, u *user.User) error {
	const stmt = `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, email = $5, telegram_id = $6, picture_url = $7, updated_at = now()
		WHERE id = $1`
	tag, err := r.exec(ctx, stmt, u.ID, u.FirstName, u.LastName, u.PhoneNumber, u.Email, u.TelegramID, u.PictureURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserPG) get(ctx context.Context, query string, arg any) (user.User, error) {
	var u user.User
	err := r.queryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Password, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &u.Email, &u.TelegramID, &u.PictureURL, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
