package http

import (
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/httpx"
	"github.com/TheAliBit/codinto-library/internal/user"
)

type UserHandler struct {
	svc *user.Service
}

func NewUserHandler(svc *user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

type profilePayload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email" validate:"omitempty,email"`
	TelegramID  string `json:"telegram_id"`
	PictureURL  string `json:"picture_url"`
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByID(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, u, nil)
}

// UpdateMe handles PATCH /me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByID(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	var body profilePayload
	if !decodeValid(w, r, &body) {
		return
	}
	u.FirstName = body.FirstName
	u.LastName = body.LastName
	u.PhoneNumber = body.PhoneNumber
	u.Email = body.Email
	u.TelegramID = body.TelegramID
	u.PictureURL = body.PictureURL
	if err := h.svc.UpdateProfile(r.Context(), &u); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, u, nil)
}
