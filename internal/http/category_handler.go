package http

import (
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/category"
	"github.com/TheAliBit/codinto-library/internal/httpx"
)

type CategoryHandler struct {
	svc *category.Service
}

func NewCategoryHandler(svc *category.Service) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}

// Tree handles GET /categories/tree: roots with nested children.
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Tree(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}

// Get handles GET /categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, nil)
}
