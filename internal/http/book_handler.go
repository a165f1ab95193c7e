package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/TheAliBit/codinto-library/internal/book"
	"github.com/TheAliBit/codinto-library/internal/httpx"
	"github.com/TheAliBit/codinto-library/internal/request"
)

// LoanInfo reports how long the caller may still keep a borrowed book.
type LoanInfo interface {
	DaysRemaining(ctx context.Context, userID, bookID string) (int, error)
}

type BookHandler struct {
	svc   *book.Service
	loans LoanInfo
}

func NewBookHandler(svc *book.Service, loans LoanInfo) *BookHandler {
	return &BookHandler{svc: svc, loans: loans}
}

type bookPayload struct {
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	Publisher       string  `json:"publisher"`
	CategoryID      *string `json:"category_id"`
	AvailableCopies int     `json:"available_copies" validate:"min=0"`
}

type bookDetail struct {
	book.Book
	Borrowed      bool `json:"borrowed"`
	DaysRemaining *int `json:"days_remaining,omitempty"`
}

// List handles GET /books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q := book.Query{
		CategoryID:    r.URL.Query().Get("category_id"),
		Q:             r.URL.Query().Get("q"),
		OnlyAvailable: r.URL.Query().Get("available") == "true",
		Sort:          r.URL.Query().Get("sort"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		q.Offset, _ = strconv.Atoi(v)
	}
	books, total, err := h.svc.List(r.Context(), q)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]any{"total": total})
}

// Get handles GET /books/{id}. For an authenticated caller the response
// carries the remaining loan days when the book is currently borrowed.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	detail := bookDetail{Book: b}
	if userID := httpx.UserIDFrom(r); userID != "" {
		days, err := h.loans.DaysRemaining(r.Context(), userID, b.ID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		if days != request.NotBorrowed {
			detail.Borrowed = true
			detail.DaysRemaining = &days
		}
	}
	httpx.JSONSuccess(w, detail, nil)
}

// Home handles GET /home.
func (h *BookHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Home(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, page, nil)
}

// Create handles POST /admin/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body bookPayload
	if !decodeValid(w, r, &body) {
		return
	}
	b := book.Book{
		Title:           body.Title,
		Description:     body.Description,
		ImageURL:        body.ImageURL,
		Publisher:       body.Publisher,
		CategoryID:      body.CategoryID,
		AvailableCopies: body.AvailableCopies,
	}
	if err := h.svc.Create(r.Context(), &b); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, b)
}

// Update handles PATCH /admin/books/{id}.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	var body bookPayload
	if !decodeValid(w, r, &body) {
		return
	}
	b.Title = body.Title
	b.Description = body.Description
	b.ImageURL = body.ImageURL
	b.Publisher = body.Publisher
	b.CategoryID = body.CategoryID
	b.AvailableCopies = body.AvailableCopies
	if err := h.svc.Update(r.Context(), &b); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, b, nil)
}

// Delete handles DELETE /admin/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
