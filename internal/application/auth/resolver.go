package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/baechuer/recipe-hub/internal/domain"
)

// Resolver turns presented tokens into an authenticated user.
// Every rejection is a domain.ErrAuthRejected carrying one AuthFailure reason.
type Resolver struct {
	codec TokenCodec
	users UserRepo
}

func NewResolver(codec TokenCodec, users UserRepo) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", domain.ErrAuthRejected(domain.FailureMissingCredential, nil)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", domain.ErrAuthRejected(domain.FailureMissingCredential, nil)
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", domain.ErrAuthRejected(domain.FailureMissingCredential, nil)
	}
	return tok, nil
}

// ResolveHeader runs the full access flow starting from the Authorization header.
func (r *Resolver) ResolveHeader(ctx context.Context, header string) (domain.Identity, error) {
	tok, err := BearerToken(header)
	if err != nil {
		return domain.Identity{}, err
	}
	return r.ResolveAccess(ctx, tok)
}

// ResolveAccess validates an access token and loads its user.
func (r *Resolver) ResolveAccess(ctx context.Context, token string) (domain.Identity, error) {
	u, _, err := r.resolve(ctx, TokenAccess, token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{ID: u.ID, Email: u.Email}, nil
}

// ResolveRefresh validates a refresh token and loads its user.
// Refresh claims must also carry the email they were issued for.
func (r *Resolver) ResolveRefresh(ctx context.Context, token string) (domain.User, error) {
	u, claims, err := r.resolve(ctx, TokenRefresh, token)
	if err != nil {
		return domain.User{}, err
	}
	if strings.TrimSpace(claims.Email) == "" {
		return domain.User{}, domain.ErrAuthRejected(domain.FailureMalformedClaims, nil)
	}
	return u, nil
}

func (r *Resolver) resolve(ctx context.Context, kind TokenKind, token string) (domain.User, TokenClaims, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureMissingCredential, nil)
	}

	claims, err := r.codec.Decode(kind, token)
	if err != nil {
		return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureInvalidToken, err)
	}
	if claims.Type != kind {
		return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureWrongTokenType, nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureMalformedClaims, nil)
	}

	u, err := r.users.GetByID(ctx, claims.Subject)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindNotFound {
			return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureUnknownOrInactiveUser, nil)
		}
		// persistence failures are not auth outcomes
		return domain.User{}, TokenClaims{}, err
	}
	if !u.IsActive {
		return domain.User{}, TokenClaims{}, domain.ErrAuthRejected(domain.FailureUnknownOrInactiveUser, nil)
	}
	return u, claims, nil
}
