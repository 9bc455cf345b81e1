package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/baechuer/recipe-hub/internal/domain"
)

type RegisterInput struct {
	Email    string
	Password string
	Username *string
}

// Register creates an active user. Duplicate emails (case-insensitive) are a conflict,
// including the race where the pre-check passes but the unique constraint fires.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return domain.User{}, domain.ErrInvalidField("email", "empty")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrInvalidField("password", "empty")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.audit("register_conflict", map[string]string{"email": email})
		return domain.User{}, domain.ErrEmailAlreadyExists()
	case domain.KindOf(err) != domain.KindNotFound:
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return domain.User{}, de
		}
		return domain.User{}, domain.ErrHashFailed(err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     domain.NormalizeUsername(in.Username),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if domain.Is(err, "email_already_exists") {
			s.audit("register_conflict", map[string]string{"email": email})
		}
		return domain.User{}, err
	}

	s.audit("user_registered", map[string]string{"user_id": created.ID, "email": created.Email})
	s.publishRegistered(ctx, created)
	return created, nil
}
