package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/category"
)

type CategoryPG struct {
	db
}

func NewCategoryPG(pool *pgxpool.Pool) *CategoryPG {
	return &CategoryPG{db: db{pool: pool}}
}

func (r *CategoryPG) List(ctx context.Context) ([]category.Category, error) {
	const query = `
		SELECT id, title, image_url, parent_id, created_at
		FROM categories
		ORDER BY id`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.ImageURL, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryPG) Get(ctx context.Context, id string) (category.Category, error) {
	const query = `
		SELECT id, title, image_url, parent_id, created_at
		FROM categories
		WHERE id = $1`
	var c category.Category
	err := r.queryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.ImageURL, &c.ParentID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}
