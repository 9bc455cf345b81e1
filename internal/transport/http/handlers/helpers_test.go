package http_handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/infrastructure/memory"
	"github.com/baechuer/recipe-hub/internal/infrastructure/security"
	"github.com/baechuer/recipe-hub/internal/transport/http/middleware"
	"github.com/baechuer/recipe-hub/internal/transport/http/response"
)

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadJSON decodes JSON from r into out.
func mustReadJSON(t *testing.T, r io.Reader, out any) {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode json failed: %v; body=%s", err, string(raw))
	}
}

func mustErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	mustReadJSON(t, bytes.NewReader(rr.Body.Bytes()), &body)
	return body.Error.Code
}

// withIdentity injects an authenticated identity like the Auth middleware does.
func withIdentity(req *http.Request, id domain.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

type handlerFixture struct {
	h     *AuthHandler
	svc   *auth.Service
	users *memory.UserRepo
	codec *security.JWTCodec
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()

	users := memory.NewUserRepo()
	codec, err := security.NewJWTCodec(security.JWTConfig{
		Algorithm:  "HS256",
		AccessKey:  "test-access-key",
		RefreshKey: "test-refresh-key",
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	svc := auth.NewService(users, security.NewBcryptHasher(bcrypt.MinCost), codec, memory.NewNoopPublisher(), auth.Config{})

	return handlerFixture{h: NewAuthHandler(svc), svc: svc, users: users, codec: codec}
}
