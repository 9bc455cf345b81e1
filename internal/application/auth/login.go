package auth

import (
	"context"

	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
)

// Login authenticates a user and issues tokens.
// IMPORTANT: unknown email, inactive account and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = domain.NormalizeEmail(email)

	if email == "" || password == "" {
		s.audit("login_failed", map[string]string{"email": email, "reason": "empty"})
		return TokenPair{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			return TokenPair{}, err
		}
		s.burnHashCheck(password)
		s.audit("login_failed", map[string]string{"email": email, "reason": "unknown_email"})
		return TokenPair{}, domain.ErrInvalidCredentials()
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.audit("login_failed", map[string]string{"email": email, "reason": "bad_password"})
		return TokenPair{}, domain.ErrInvalidCredentials()
	}
	if !u.IsActive {
		s.audit("login_failed", map[string]string{"email": email, "reason": "inactive"})
		return TokenPair{}, domain.ErrInvalidCredentials()
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, password)
	}

	toks, err := s.issueTokens(u)
	if err != nil {
		return TokenPair{}, err
	}

	s.audit("login_succeeded", map[string]string{"user_id": u.ID, "email": u.Email})
	return toks, nil
}

// rehash upgrades a deprecated hash. Failures never block the login.
func (s *Service) rehash(ctx context.Context, u domain.User, password string) {
	fresh, err := s.hasher.Hash(password)
	if err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("password rehash failed")
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, fresh); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("store rehashed password failed")
		return
	}
	s.audit("password_rehashed", map[string]string{"user_id": u.ID})
}
