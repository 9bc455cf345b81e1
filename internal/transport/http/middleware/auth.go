package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
)

// IdentityResolver turns an Authorization header into the caller's identity.
type IdentityResolver interface {
	ResolveHeader(ctx context.Context, header string) (domain.Identity, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth resolves Authorization: Bearer <access_token> and injects the identity
// into the request context. Every rejection reaches the client as the same
// generic 401; the reason is only logged. Store failures pass through as-is.
func Auth(resolver IdentityResolver, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.ResolveHeader(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if reason, ok := domain.FailureOf(err); ok {
					logger.WithCtx(r.Context()).Debug().
						Str("reason", string(reason)).
						Str("path", r.URL.Path).
						Msg("auth_rejected")
					writeErr(w, r, domain.ErrUnauthorized())
					return
				}
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
