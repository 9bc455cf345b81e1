package auth

import (
	"context"

	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
)

// Refresh validates a refresh token and issues a brand new pair.
// The presented refresh token is not revoked; it stays valid until it expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	u, err := s.resolver.ResolveRefresh(ctx, refreshToken)
	if err != nil {
		if domain.KindOf(err) != domain.KindAuth {
			return TokenPair{}, err
		}
		logger.WithCtx(ctx).Debug().Str("reason", failureReason(err)).Msg("refresh rejected")
		s.audit("refresh_rejected", map[string]string{"reason": failureReason(err)})
		return TokenPair{}, domain.ErrUnauthorized()
	}

	toks, err := s.issueTokens(u)
	if err != nil {
		return TokenPair{}, err
	}
	s.audit("token_refreshed", map[string]string{"user_id": u.ID})
	return toks, nil
}
