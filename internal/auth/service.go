package auth

import (
	"context"
	"errors"
	"time"

	"github.com/TheAliBit/codinto-library/internal/user"
)

// ErrUnauthorized is returned for bad credentials and unusable tokens.
var ErrUnauthorized = errors.New("unauthorized")

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Blacklist stores revoked refresh-token ids until they expire on their own.
type Blacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Service issues and rotates JWT pairs. Refresh tokens are single-use: a
// refresh blacklists the presented token and issues a new pair.
type Service struct {
	secret    string
	users     user.Repository
	blacklist Blacklist
}

func NewService(secret string, users user.Repository, blacklist Blacklist) *Service {
	return &Service{secret: secret, users: users, blacklist: blacklist}
}

type RegisterInput struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	TelegramID  string
}

// Register creates a member account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	if in.Username == "" {
		return user.User{}, errors.New("username is required")
	}
	if err := ValidatePasswordStrength(in.Password); err != nil {
		return user.User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return user.User{}, err
	}
	u := user.User{
		Username:    in.Username,
		Password:    hash,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
		TelegramID:  in.TelegramID,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !VerifyPassword(u.Password, password) {
		return TokenPair{}, ErrUnauthorized
	}
	return s.issuePair(u)
}

// Refresh rotates a refresh token: the presented token is blacklisted and a
// new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.usableRefreshClaims(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	u, err := s.users.GetByID(ctx, claims.Sub)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(u)
}

// Logout revokes the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.usableRefreshClaims(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) usableRefreshClaims(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := ParseToken(s.secret, refreshToken)
	if err != nil || claims.TokenType != TokenTypeRefresh {
		return nil, ErrUnauthorized
	}
	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) issuePair(u user.User) (TokenPair, error) {
	role := "USER"
	if u.IsAdmin {
		role = "ADMIN"
	}
	access, _, err := GenerateToken(s.secret, u.ID, role, TokenTypeAccess, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := GenerateToken(s.secret, u.ID, role, TokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}
