package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/baechuer/recipe-hub/internal/domain"
)

// Argon2Params are the argon2id cost parameters encoded into every hash.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params follow the OWASP baseline for argon2id.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

type argon2Scheme struct {
	p Argon2Params
}

func (a *argon2Scheme) name() Scheme { return SchemeArgon2id }

func (a *argon2Scheme) identifies(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

func (a *argon2Scheme) hash(password string) (string, error) {
	salt := make([]byte, a.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", domain.ErrHashFailed(err)
	}
	key := argon2.IDKey([]byte(password), salt, a.p.Time, a.p.Memory, a.p.Threads, a.p.KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.p.Memory, a.p.Time, a.p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2(encoded string) (argon2Hash, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Hash{}, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argon2Hash{}, false
	}
	var mem, t, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &t, &threads); err != nil {
		return argon2Hash{}, false
	}
	if threads == 0 || threads > 255 || t == 0 {
		return argon2Hash{}, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Hash{}, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1<<10 {
		return argon2Hash{}, false
	}
	return argon2Hash{
		params: Argon2Params{Time: t, Memory: mem, Threads: uint8(threads), SaltLen: len(salt), KeyLen: uint32(len(key))},
		salt:   salt,
		key:    key,
	}, true
}

func (a *argon2Scheme) verify(password, hash string) bool {
	h, ok := parseArgon2(hash)
	if !ok {
		return false
	}
	computed := argon2.IDKey([]byte(password), h.salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return subtle.ConstantTimeCompare(computed, h.key) == 1
}

func (a *argon2Scheme) outdated(hash string) bool {
	h, ok := parseArgon2(hash)
	if !ok {
		return true
	}
	return h.params.Time < a.p.Time || h.params.Memory < a.p.Memory || h.params.KeyLen < a.p.KeyLen
}
