package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/domain"
)

// JWTCodec signs access and refresh tokens with independent HMAC keys.
type JWTCodec struct {
	method     *jwt.SigningMethodHMAC
	accessKey  []byte
	refreshKey []byte
	now        func() time.Time
}

type JWTConfig struct {
	Algorithm  string // HS256, HS384 or HS512
	AccessKey  string
	RefreshKey string
}

func NewJWTCodec(cfg JWTConfig) (*JWTCodec, error) {
	method, err := hmacMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.AccessKey == "" || cfg.RefreshKey == "" {
		return nil, errors.New("jwt: access and refresh keys are required")
	}
	return &JWTCodec{
		method:     method,
		accessKey:  []byte(cfg.AccessKey),
		refreshKey: []byte(cfg.RefreshKey),
		now:        time.Now,
	}, nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("jwt: unsupported algorithm %q", alg)
	}
}

type tokenClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

func (c *JWTCodec) key(kind auth.TokenKind) ([]byte, error) {
	switch kind {
	case auth.TokenAccess:
		return c.accessKey, nil
	case auth.TokenRefresh:
		return c.refreshKey, nil
	default:
		return nil, fmt.Errorf("jwt: unknown token kind %q", kind)
	}
}

func (c *JWTCodec) Issue(kind auth.TokenKind, subject, email string, ttl time.Duration) (string, error) {
	key, err := c.key(kind)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	now := c.now()
	claims := tokenClaims{
		Email: email,
		Type:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(key)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// Decode verifies signature and expiry with the key bound to kind.
// The Type field is returned as found; callers must compare it to kind.
func (c *JWTCodec) Decode(kind auth.TokenKind, token string) (auth.TokenClaims, error) {
	key, err := c.key(kind)
	if err != nil {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != c.method {
			return nil, domain.ErrTokenInvalid()
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.TokenClaims{}, domain.ErrTokenExpired()
		}
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	out := auth.TokenClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Type:    auth.TokenKind(claims.Type),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
