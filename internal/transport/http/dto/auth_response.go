package dto

import (
	"time"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/domain"
)

// UserRead is the public user payload. The password hash never leaves the service.
type UserRead struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUserRead(u domain.User) UserRead {
	return UserRead{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // "bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds, access token only
}

func NewTokenPair(p auth.TokenPair) TokenPair {
	return TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
