package auth

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
)

const TokenTypeBearer = "bearer"

type Service struct {
	users    UserRepo
	hasher   PasswordHasher
	codec    TokenCodec
	resolver *Resolver
	pub      EventPublisher

	accessTTL  time.Duration
	refreshTTL time.Duration
	audit      func(action string, fields map[string]string)
	now        func() time.Time

	// verified against when the email is unknown so both login paths cost one hash check
	dummyOnce sync.Once
	dummyHash string
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	codec TokenCodec,
	pub EventPublisher,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 10080 * time.Minute
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		resolver: NewResolver(codec, users),
		pub:      pub,
		audit:    func(string, map[string]string) {},
		now:      time.Now,

		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is the common token output for handlers/DTO mapping.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // seconds, access token lifetime
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// Resolver exposes the identity resolver backing this service, for the auth middleware.
func (s *Service) Resolver() *Resolver { return s.resolver }

// issueTokens issues a fresh access + refresh pair for a user.
func (s *Service) issueTokens(u domain.User) (TokenPair, error) {
	access, err := s.codec.Issue(TokenAccess, u.ID, u.Email, s.accessTTL)
	if err != nil {
		return TokenPair{}, domain.ErrTokenSignFailed(err)
	}
	refresh, err := s.codec.Issue(TokenRefresh, u.ID, u.Email, s.refreshTTL)
	if err != nil {
		return TokenPair{}, domain.ErrTokenSignFailed(err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *Service) burnHashCheck(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalizer-password")
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("dummy hash generation failed")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *Service) publishRegistered(ctx context.Context, u domain.User) {
	if s.pub == nil {
		return
	}
	evt := UserRegisteredEvent{UserID: u.ID, Email: u.Email, OccurredAt: s.now().UTC()}
	if u.Username != nil {
		evt.Username = *u.Username
	}
	if err := s.pub.PublishUserRegistered(ctx, evt); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("publish user.registered failed")
	}
}
