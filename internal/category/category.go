package category

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a category does not exist.
var ErrNotFound = errors.New("category not found")

// Category is one node of the catalog's category tree.
type Category struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	ImageURL  string     `json:"image_url,omitempty"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Children  []Category `json:"children,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (Category, error)
}

// Service exposes category reads; the workflow only ever reads the tree.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Tree returns root categories with children nested one level deep, the
// shape the browse page renders.
func (s *Service) Tree(ctx context.Context) ([]Category, error) {
	flat, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]Category)
	var roots []Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}
	for i := range roots {
		roots[i].Children = byParent[roots[i].ID]
	}
	return roots, nil
}
