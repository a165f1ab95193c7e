package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheAliBit/codinto-library/internal/book"
	"github.com/TheAliBit/codinto-library/internal/request"
)

const bookColumns = `id, title, description, image_url, publisher, category_id, available_copies, created_at, updated_at`

type BookPG struct {
	db
}

func NewBookPG(pool *pgxpool.Pool) *BookPG {
	return &BookPG{db: db{pool: pool}}
}

func (r *BookPG) Get(ctx context.Context, id string) (book.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err := scanBook(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, err
	}
	return b, nil
}

// CopiesForUpdate locks the book row and returns the current copy count.
// Called by the decision engine inside its transaction; the lock serializes
// concurrent decisions touching the same book.
func (r *BookPG) CopiesForUpdate(ctx context.Context, id string) (int, error) {
	const query = `SELECT available_copies FROM books WHERE id = $1 FOR UPDATE`
	var n int
	if err := r.queryRow(ctx, query, id).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, book.ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

// AdjustCopies applies a delta to the copy count. The CHECK constraint on
// the column is a second line of defense against going negative.
func (r *BookPG) AdjustCopies(ctx context.Context, id string, delta int) error {
	const stmt = `
		UPDATE books
		SET available_copies = available_copies + $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id, delta)
	if err != nil {
		if isCheckViolation(err) {
			return request.ErrInventoryUnavailable
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *BookPG) List(ctx context.Context, q book.Query) ([]book.Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.CategoryID != "" {
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", argn))
		args = append(args, q.CategoryID)
		argn++
	}
	if q.OnlyAvailable {
		clauses = append(clauses, "available_copies > 0")
	}
	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR publisher ILIKE $%d)", argn, argn+1, argn+2))
		pattern := "%" + q.Q + "%"
		args = append(args, pattern, pattern, pattern)
		argn += 3
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := `SELECT COUNT(*) FROM books ` + where
	var total int
	if err := r.queryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "b.title ASC"
	borrowJoin := ""
	switch q.Sort {
	case "latest":
		order = "b.created_at DESC"
	case "popular":
		borrowJoin = `LEFT JOIN (
			SELECT book_id, COUNT(*) AS borrow_count
			FROM requests WHERE kind = 'borrow'
			GROUP BY book_id
		) stats ON stats.book_id = b.id`
		order = "COALESCE(stats.borrow_count, 0) DESC, b.title ASC"
	}

	dataSQL := fmt.Sprintf(`
		SELECT b.id, b.title, b.description, b.image_url, b.publisher, b.category_id, b.available_copies, b.created_at, b.updated_at
		FROM books b
		%s
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		borrowJoin, where, order, argn, argn+1)

	args = append(args, q.Limit, q.Offset)
	rows, err := r.query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []book.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *BookPG) Newest(ctx context.Context, limit int) ([]book.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC LIMIT $1`
	return r.listPlain(ctx, query, limit)
}

func (r *BookPG) MostBorrowed(ctx context.Context, limit int) ([]book.Book, error) {
	const query = `
		SELECT b.id, b.title, b.description, b.image_url, b.publisher, b.category_id, b.available_copies, b.created_at, b.updated_at
		FROM books b
		LEFT JOIN (
			SELECT book_id, COUNT(*) AS n FROM requests WHERE kind = 'borrow' GROUP BY book_id
		) stats ON stats.book_id = b.id
		ORDER BY COALESCE(stats.n, 0) DESC, b.created_at DESC
		LIMIT $1`
	return r.listPlain(ctx, query, limit)
}

func (r *BookPG) MostReviewed(ctx context.Context, limit int) ([]book.Book, error) {
	const query = `
		SELECT b.id, b.title, b.description, b.image_url, b.publisher, b.category_id, b.available_copies, b.created_at, b.updated_at
		FROM books b
		LEFT JOIN (
			SELECT book_id, COUNT(*) AS n FROM requests WHERE kind = 'review' GROUP BY book_id
		) stats ON stats.book_id = b.id
		ORDER BY COALESCE(stats.n, 0) DESC, b.created_at DESC
		LIMIT $1`
	return r.listPlain(ctx, query, limit)
}

func (r *BookPG) Create(ctx context.Context, b *book.Book) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	const stmt = `
		INSERT INTO books (id, title, description, image_url, publisher, category_id, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at`
	return r.queryRow(ctx, stmt,
		b.ID, b.Title, b.Description, b.ImageURL, b.Publisher, b.CategoryID, b.AvailableCopies,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BookPG) Update(ctx context.Context, b *book.Book) error {
	const stmt = `
		UPDATE books
		SET title = $2, description = $3, image_url = $4, publisher = $5, category_id = $6, available_copies = $7, updated_at = now()
		WHERE id = $1`
	tag, err := r.exec(ctx, stmt, b.ID, b.Title, b.Description, b.ImageURL, b.Publisher, b.CategoryID, b.AvailableCopies)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *BookPG) Delete(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *BookPG) listPlain(ctx context.Context, query string, args ...any) ([]book.Book, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []book.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row) (book.Book, error) {
	var b book.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.ImageURL, &b.Publisher,
		&b.CategoryID, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
