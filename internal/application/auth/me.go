package auth

import (
	"context"

	"github.com/baechuer/recipe-hub/internal/domain"
)

// Me re-reads the caller from storage instead of trusting token claims.
func (s *Service) Me(ctx context.Context, id domain.Identity) (domain.User, error) {
	if id.ID == "" {
		return domain.User{}, domain.ErrUnauthorized()
	}
	u, err := s.users.GetByID(ctx, id.ID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.User{}, domain.ErrUnauthorized()
		}
		return domain.User{}, err
	}
	if !u.IsActive {
		return domain.User{}, domain.ErrUnauthorized()
	}
	return u, nil
}
