package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baechuer/recipe-hub/internal/domain"
)

func TestRefresh_Success_IssuesNewPair_OldTokenStillValid(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)
	f.users.put(activeUser("u1", "e@x.com"))
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "e@x.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected a distinct pair")
	}
	if second.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", second.TokenType)
	}

	// no rotation: both the old refresh token and old access token still work
	if _, err := f.svc.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("old refresh token should remain valid: %v", err)
	}
	if _, err := f.svc.Resolver().ResolveAccess(ctx, first.AccessToken); err != nil {
		t.Fatalf("old access token should remain valid: %v", err)
	}
	requireAuditAction(t, f.audits, "token_refreshed")
}

func TestRefresh_Rejections_CollapseToUnauthorized(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)
	f.users.put(activeUser("u1", "e@x.com"))
	access, _ := f.codec.Issue(TokenAccess, "u1", "e@x.com", time.Hour)
	expired, _ := f.codec.Issue(TokenRefresh, "u1", "e@x.com", -time.Minute)
	ghost, _ := f.codec.Issue(TokenRefresh, "nobody", "n@x.com", time.Hour)

	cases := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"garbage", "garbage"},
		{"access as refresh", access},
		{"expired", expired},
		{"deleted user", ghost},
	}
	for _, tc := range cases {
		_, err := f.svc.Refresh(context.Background(), tc.tok)
		var de *domain.Error
		if !errors.As(err, &de) || de.Code != "unauthorized" || de.Meta != nil {
			t.Fatalf("%s: expected generic unauthorized, got %v", tc.name, err)
		}
	}
	e := requireAuditAction(t, f.audits, "refresh_rejected")
	requireAuditField(t, e, "reason", "unknown_or_inactive_user")
}

func TestRefresh_StoreFailure_Propagates(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)
	tok, _ := f.codec.Issue(TokenRefresh, "u1", "e@x.com", time.Hour)
	f.users.getByIDErr = domain.ErrDBUnavailable(errors.New("down"))

	_, err := f.svc.Refresh(context.Background(), tok)
	requireErrCode(t, err, "db_unavailable")
}

func TestMe_ReturnsFreshUser(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)
	u := activeUser("u1", "e@x.com")
	u.Username = strPtr("chef")
	f.users.put(u)

	got, err := f.svc.Me(context.Background(), domain.Identity{ID: "u1", Email: "stale@x.com"})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if got.Email != "e@x.com" || got.Username == nil || *got.Username != "chef" {
		t.Fatalf("expected stored user, got %+v", got)
	}
}

func TestMe_UserGone_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)

	_, err := f.svc.Me(context.Background(), domain.Identity{ID: "gone"})
	requireErrCode(t, err, "unauthorized")

	_, err = f.svc.Me(context.Background(), domain.Identity{})
	requireErrCode(t, err, "unauthorized")
}

func TestMe_Inactive_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newSvcForTest(t)
	u := activeUser("u1", "e@x.com")
	u.IsActive = false
	f.users.put(u)

	_, err := f.svc.Me(context.Background(), domain.Identity{ID: "u1"})
	requireErrCode(t, err, "unauthorized")
}
