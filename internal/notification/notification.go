package notification

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a notification row.
const (
	// KindRequest is a request-outcome notification created by the
	// decision engine.
	KindRequest = "request"
	// KindAvailable is an availability-alert subscription: a standing
	// request to be told when an out-of-stock book comes back. Consumed
	// (deleted) the first time the book regains inventory.
	KindAvailable = "available"
	// KindBroadcast is an admin announcement visible to every user.
	KindBroadcast = "broadcast"
)

// ErrNotFound is returned when a notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Notification is persisted by the decision engine and read by the delivery
// and listing endpoints. A nil UserID means broadcast.
type Notification struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	BookID      *string   `json:"book_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

// Subscriber is a user holding an availability alert for a book.
type Subscriber struct {
	UserID      string
	Username    string
	PhoneNumber string
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]Notification, int, error)
	HasAlert(ctx context.Context, userID, bookID string) (bool, error)
	CreateAlert(ctx context.Context, userID, bookID string) error
	AlertSubscribers(ctx context.Context, bookID string) ([]Subscriber, error)
	DeleteAlerts(ctx context.Context, bookID string) error
}

// Service exposes notification listing and admin broadcasts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForUser returns the user's own notifications plus broadcasts, newest
// first. Availability-alert subscriptions are excluded; they are internal
// state, not messages.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// ListAll returns every notification, for the admin panel.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAll(ctx, limit, offset)
}

// Broadcast creates an announcement visible to all users.
func (s *Service) Broadcast(ctx context.Context, title, description string) (Notification, error) {
	if title == "" {
		return Notification{}, errors.New("title is required")
	}
	n := Notification{Title: title, Description: description, Kind: KindBroadcast}
	if err := s.repo.Create(ctx, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
