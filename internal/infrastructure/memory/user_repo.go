package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/recipe-hub/internal/domain"
)

type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // normalized email -> userID
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.byID[id], nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

// Create enforces case-insensitive email uniqueness under the write lock.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = domain.NormalizeEmail(u.Email)
	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	if u.ID == "" {
		return domain.User{}, domain.ErrInvalidField("id", "empty")
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now().UTC()
	r.byID[userID] = u
	return nil
}

// SetActive toggles the account gate. Used by tests and local tooling.
func (r *UserRepo) SetActive(ctx context.Context, userID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	r.byID[userID] = u
	return nil
}

// Delete removes a user. Used by tests to simulate accounts disappearing mid-session.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	delete(r.byID, userID)
	delete(r.byEmail, u.Email)
	return nil
}

// Ping always succeeds; the in-memory store has no connection to lose.
func (r *UserRepo) Ping(ctx context.Context) error { return nil }
