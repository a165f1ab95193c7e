package http

import (
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/httpx"
	"github.com/TheAliBit/codinto-library/internal/notification"
)

type NotificationHandler struct {
	svc *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type broadcastPayload struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// ListMine handles GET /notifications: the caller's notifications plus
// broadcasts, newest first.
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, total, err := h.svc.ListForUser(r.Context(), httpx.UserIDFrom(r), limit, offset)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, map[string]any{"total": total, "limit": limit, "offset": offset})
}

// ListAll handles GET /admin/notifications.
func (h *NotificationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, total, err := h.svc.ListAll(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, out, map[string]any{"total": total, "limit": limit, "offset": offset})
}

// Broadcast handles POST /admin/notifications.
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var body broadcastPayload
	if !decodeValid(w, r, &body) {
		return
	}
	n, err := h.svc.Broadcast(r.Context(), body.Title, body.Description)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, n)
}
