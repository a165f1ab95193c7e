package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering with a username that
	// already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// User is a library member profile. PhoneNumber feeds the SMS side channel.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Email       string    `json:"email,omitempty"`
	TelegramID  string    `json:"telegram_id,omitempty"`
	PictureURL  string    `json:"picture_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, u *User) error
}

// Service wraps profile reads and updates.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile changes the mutable profile fields; username and admin flag
// stay as they are.
func (s *Service) UpdateProfile(ctx context.Context, u *User) error {
	if u.ID == "" {
		return ErrNotFound
	}
	return s.repo.Update(ctx, u)
}
