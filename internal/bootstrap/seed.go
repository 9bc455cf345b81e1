package bootstrap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// SeedUsers creates the demo accounts used in local development. Safe to rerun.
func SeedUsers(ctx context.Context, repo SeederRepo, hasher SeederHasher) int {
	type seedUser struct {
		Email    string
		Username string
		Pass     string
	}

	seeds := []seedUser{
		{Email: "chef@example.com", Username: "chef", Pass: "ChefPassword123!"},
		{Email: "cook@example.com", Username: "cook", Pass: "CookPassword123!"},
		{Email: "taster@example.com", Username: "", Pass: "TasterPassword123!"},
	}

	created := 0
	for _, s := range seeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			logger.Logger.Warn().Err(err).Str("email", s.Email).Msg("seed: hash failed")
			continue
		}

		now := time.Now().UTC()
		u := domain.User{
			ID:           uuid.NewString(),
			Email:        s.Email,
			Username:     domain.NormalizeUsername(&s.Username),
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := repo.Create(ctx, u); err != nil {
			// ignore duplicates (restart safe)
			continue
		}
		created++
	}

	logger.Logger.Info().Int("created", created).Msg("seed: demo users ready")
	return created
}
