package http

import (
	"context"
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/httpx"
	"github.com/TheAliBit/codinto-library/internal/request"
)

// RequestService is the slice of the workflow engine the handlers call.
type RequestService interface {
	SubmitBorrow(ctx context.Context, userID, bookID string, duration int) (request.Request, error)
	SubmitExtension(ctx context.Context, userID, bookID string, duration int) (request.Request, error)
	SubmitReturn(ctx context.Context, userID, bookID string, score int, description string) (request.Request, error)
	SubmitReview(ctx context.Context, userID, bookID string, score int, description string) (request.Request, error)
	EditReview(ctx context.Context, userID, reviewID string, score int, description string) (request.Request, error)
	SubmitAvailabilityAlert(ctx context.Context, userID, bookID string) error
	Decide(ctx context.Context, requestID string, outcome request.Outcome) (request.Request, error)
	ListUserRequests(ctx context.Context, userID string) ([]request.Request, error)
	MyBooks(ctx context.Context, userID string) ([]request.Request, error)
	BookReviews(ctx context.Context, bookID string) ([]request.Request, error)
	ListForAdmin(ctx context.Context, status request.Status, limit, offset int) ([]request.Request, int, error)
	BorrowHistory(ctx context.Context, bookID, userID string) ([]request.Request, error)
	DaysRemaining(ctx context.Context, userID, bookID string) (int, error)
}

// RequestHandler exposes the submission and decision endpoints.
type RequestHandler struct {
	svc RequestService
}

func NewRequestHandler(svc RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

type borrowPayload struct {
	Duration int `json:"duration" validate:"required"`
}

type reviewPayload struct {
	Score       *int   `json:"score" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type decidePayload struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// SubmitBorrow handles POST /books/{id}/borrow.
func (h *RequestHandler) SubmitBorrow(w http.ResponseWriter, r *http.Request) {
	var body borrowPayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.SubmitBorrow(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), body.Duration)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, req)
}

// SubmitExtension handles POST /books/{id}/extension.
func (h *RequestHandler) SubmitExtension(w http.ResponseWriter, r *http.Request) {
	var body borrowPayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.SubmitExtension(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), body.Duration)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, req)
}

// SubmitReturn handles POST /books/{id}/return. The score and description
// seed the companion review request.
func (h *RequestHandler) SubmitReturn(w http.ResponseWriter, r *http.Request) {
	var body reviewPayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.SubmitReturn(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), *body.Score, body.Description)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, req)
}

// SubmitReview handles POST /books/{id}/review.
func (h *RequestHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var body reviewPayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.SubmitReview(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), *body.Score, body.Description)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, req)
}

// EditReview handles PATCH /reviews/{id}.
func (h *RequestHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	var body reviewPayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.EditReview(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), *body.Score, body.Description)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, req, nil)
}

// SubmitAvailabilityAlert handles POST /books/{id}/availability-alert.
func (h *RequestHandler) SubmitAvailabilityAlert(w http.ResponseWriter, r *http.Request) {
	err := h.svc.SubmitAvailabilityAlert(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, map[string]string{"message": "availability alert created"})
}

// ListMine handles GET /requests.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListUserRequests(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}

// MyBooks handles GET /my-books: the caller's active loans.
func (h *RequestHandler) MyBooks(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.MyBooks(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}

// BookReviews handles GET /books/{id}/reviews: accepted reviews only.
func (h *RequestHandler) BookReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.BookReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}

// AdminList handles GET /admin/requests.
func (h *RequestHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, total, err := h.svc.ListForAdmin(r.Context(), request.Status(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, map[string]any{"total": total, "limit": limit, "offset": offset})
}

// Decide handles PATCH /admin/requests/{id}.
func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var body decidePayload
	if !decodeValid(w, r, &body) {
		return
	}
	req, err := h.svc.Decide(r.Context(), r.PathValue("id"), request.Outcome(body.Status))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, req, nil)
}

// BorrowHistory handles GET /admin/borrow-history.
func (h *RequestHandler) BorrowHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.BorrowHistory(r.Context(), q.Get("book_id"), q.Get("user_id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}
