package auth

import (
	"context"
	"time"

	"github.com/baechuer/recipe-hub/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Only describes WHAT the auth service needs, not HOW it's stored.
Lookups return domain.ErrUserNotFound when absent; Create returns
domain.ErrEmailAlreadyExists when the unique constraint fires.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt / argon2id. Verify never errors: malformed hashes simply fail.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	NeedsRehash(hash string) bool
}

/*
TokenCodec
----------
Issues and decodes signed access/refresh tokens. Each kind has its own key.
Decode checks signature and expiry only; callers check Type.
*/
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

type TokenClaims struct {
	Subject   string
	Email     string
	Type      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenCodec interface {
	Issue(kind TokenKind, subject, email string, ttl time.Duration) (string, error)
	Decode(kind TokenKind, token string) (TokenClaims, error)
}

/*
EventPublisher
--------------
Publishes integration events. Delivery is best effort from the service's
point of view: failures are logged, never returned to the client.
*/
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error
}

type UserRegisteredEvent struct {
	UserID     string
	Email      string
	Username   string
	OccurredAt time.Time
}
