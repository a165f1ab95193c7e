package book

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Book represents a catalog entry. AvailableCopies is mutated only by the
// request decision engine, always inside the deciding transaction.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	CategoryID      *string   `json:"category_id,omitempty"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Query defines filters and pagination for listing books.
type Query struct {
	CategoryID    string
	Q             string
	OnlyAvailable bool
	Sort          string // latest | popular | title
	Limit         int
	Offset        int
}

// HomePage groups the three scoreboards shown on the landing page.
type HomePage struct {
	NewestBooks       []Book `json:"newest_books"`
	MostBorrowedBooks []Book `json:"most_borrowed_books"`
	MostReviewedBooks []Book `json:"most_reviewed_books"`
}

type Repository interface {
	Get(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, q Query) ([]Book, int, error)
	Newest(ctx context.Context, limit int) ([]Book, error)
	MostBorrowed(ctx context.Context, limit int) ([]Book, error)
	MostReviewed(ctx context.Context, limit int) ([]Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
}

// Service provides catalog browsing and admin book management.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, q)
}

// Home returns the landing-page scoreboards: the ten newest, most borrowed
// and most reviewed books.
func (s *Service) Home(ctx context.Context) (HomePage, error) {
	const limit = 10
	newest, err := s.repo.Newest(ctx, limit)
	if err != nil {
		return HomePage{}, err
	}
	borrowed, err := s.repo.MostBorrowed(ctx, limit)
	if err != nil {
		return HomePage{}, err
	}
	reviewed, err := s.repo.MostReviewed(ctx, limit)
	if err != nil {
		return HomePage{}, err
	}
	return HomePage{NewestBooks: newest, MostBorrowedBooks: borrowed, MostReviewedBooks: reviewed}, nil
}

func (s *Service) Create(ctx context.Context, b *Book) error {
	if b.Title == "" {
		return errors.New("title is required")
	}
	if b.AvailableCopies < 0 {
		return errors.New("available copies cannot be negative")
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, b *Book) error {
	if b.AvailableCopies < 0 {
		return errors.New("available copies cannot be negative")
	}
	return s.repo.Update(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
