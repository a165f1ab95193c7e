package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TheAliBit/codinto-library/internal/auth"
	"github.com/TheAliBit/codinto-library/internal/book"
	"github.com/TheAliBit/codinto-library/internal/user"
)

// TestUser is a mock member for testing
var TestUser = user.User{
	ID:          "test-user-id-123",
	Username:    "testuser",
	Password:    "hashedpassword",
	PhoneNumber: "+989120000001",
	Email:       "test@example.com",
	CreatedAt:   time.Now(),
	UpdatedAt:   time.Now(),
}

// TestAdminUser is a mock admin for testing
var TestAdminUser = user.User{
	ID:          "test-admin-id-456",
	Username:    "adminuser",
	Password:    "hashedpassword",
	PhoneNumber: "+989120000002",
	Email:       "admin@example.com",
	IsAdmin:     true,
	CreatedAt:   time.Now(),
	UpdatedAt:   time.Now(),
}

// TestBook is a mock book for testing
var TestBook = book.Book{
	ID:              "test-book-id-789",
	Title:           "Test Book Title",
	Publisher:       "Test Publisher",
	Description:     "A test book description",
	AvailableCopies: 3,
	CreatedAt:       time.Now(),
	UpdatedAt:       time.Now(),
}

// GenerateTestToken generates an access token for testing
func GenerateTestToken(secret, userID, role string) string {
	token, _, _ := auth.GenerateToken(secret, userID, role, auth.TokenTypeAccess, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired access token for testing
func GenerateExpiredToken(secret, userID, role string) string {
	c := auth.Claims{
		Sub:       userID,
		Role:      role,
		TokenType: auth.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
