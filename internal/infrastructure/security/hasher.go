package security

import (
	"fmt"
)

// Scheme names a password hashing algorithm.
type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

type scheme interface {
	name() Scheme
	identifies(hash string) bool
	hash(password string) (string, error)
	verify(password, hash string) bool
	outdated(hash string) bool
}

// HasherConfig selects the scheme used for new hashes.
// Every known scheme stays verifiable; hashes from a scheme other than
// Current (or with weaker parameters) are deprecated and flagged by NeedsRehash.
type HasherConfig struct {
	Current    Scheme
	BcryptCost int
	Argon2     Argon2Params
}

// PasswordHasher hashes with the current scheme and verifies any known scheme.
type PasswordHasher struct {
	current scheme
	known   []scheme
}

func NewPasswordHasher(cfg HasherConfig) (*PasswordHasher, error) {
	argon := cfg.Argon2
	if argon == (Argon2Params{}) {
		argon = DefaultArgon2Params
	}
	bc := newBcryptScheme(cfg.BcryptCost)
	ar := &argon2Scheme{p: argon}

	h := &PasswordHasher{known: []scheme{bc, ar}}
	switch cfg.Current {
	case "", SchemeBcrypt:
		h.current = bc
	case SchemeArgon2id:
		h.current = ar
	default:
		return nil, fmt.Errorf("unsupported password scheme: %q", cfg.Current)
	}
	return h, nil
}

// NewBcryptHasher is the default policy: bcrypt at the given cost, argon2id accepted.
func NewBcryptHasher(cost int) *PasswordHasher {
	h, _ := NewPasswordHasher(HasherConfig{Current: SchemeBcrypt, BcryptCost: cost})
	return h
}

func (h *PasswordHasher) Current() Scheme { return h.current.name() }

func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.current.hash(password)
}

// Verify returns false for mismatches and for hashes no scheme recognises.
func (h *PasswordHasher) Verify(password, hash string) bool {
	s := h.schemeFor(hash)
	if s == nil {
		return false
	}
	return s.verify(password, hash)
}

// NeedsRehash reports whether hash should be replaced by a fresh Hash on next login.
func (h *PasswordHasher) NeedsRehash(hash string) bool {
	s := h.schemeFor(hash)
	if s == nil {
		return true
	}
	if s.name() != h.current.name() {
		return true
	}
	return s.outdated(hash)
}

func (h *PasswordHasher) schemeFor(hash string) scheme {
	for _, s := range h.known {
		if s.identifies(hash) {
			return s
		}
	}
	return nil
}
