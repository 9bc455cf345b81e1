package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/recipe-hub/internal/domain"
)

type bcryptScheme struct {
	cost int
}

func newBcryptScheme(cost int) *bcryptScheme {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptScheme{cost: cost}
}

func (b *bcryptScheme) name() Scheme { return SchemeBcrypt }

func (b *bcryptScheme) identifies(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func (b *bcryptScheme) hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrWeakPassword("password exceeds 72 bytes")
		}
		return "", domain.ErrHashFailed(err)
	}
	return string(out), nil
}

func (b *bcryptScheme) verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// outdated reports hashes produced with a lower cost than the configured one.
func (b *bcryptScheme) outdated(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < b.cost
}
