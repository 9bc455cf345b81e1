package dto

import (
	"strings"

	"github.com/baechuer/recipe-hub/internal/domain"
)

// bcrypt only looks at the first 72 bytes; longer secrets would silently collide.
const maxPasswordBytes = 72

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Username *string `json:"username,omitempty" validate:"omitempty,max=50"`
}

// Validate trims the inputs in place and checks them.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Username != nil {
		trimmed := strings.TrimSpace(*r.Username)
		r.Username = &trimmed
	}
	if err := validateStruct(r); err != nil {
		return err
	}
	if len(r.Password) > maxPasswordBytes {
		return domain.ErrWeakPassword("password exceeds 72 bytes")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (r *RefreshRequest) Validate() error {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	return validateStruct(r)
}
