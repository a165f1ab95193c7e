package http

import (
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/auth"
	"github.com/TheAliBit/codinto-library/internal/httpx"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerPayload struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email" validate:"omitempty,email"`
	TelegramID  string `json:"telegram_id"`
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerPayload
	if !decodeValid(w, r, &body) {
		return
	}
	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Username:    body.Username,
		Password:    body.Password,
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		PhoneNumber: body.PhoneNumber,
		Email:       body.Email,
		TelegramID:  body.TelegramID,
	})
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, u)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginPayload
	if !decodeValid(w, r, &body) {
		return
	}
	pair, err := h.svc.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, pair, nil)
}

// Refresh handles POST /auth/refresh. The presented refresh token is
// revoked and a new pair comes back.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshPayload
	if !decodeValid(w, r, &body) {
		return
	}
	pair, err := h.svc.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, pair, nil)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body refreshPayload
	if !decodeValid(w, r, &body) {
		return
	}
	if err := h.svc.Logout(r.Context(), body.RefreshToken); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
