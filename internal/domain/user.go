package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string
	Username     *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is applied before every lookup and write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims the name; blank names become nil.
func NormalizeUsername(name *string) *string {
	if name == nil {
		return nil
	}
	v := strings.TrimSpace(*name)
	if v == "" {
		return nil
	}
	return &v
}

// Identity is the authenticated caller for a single request.
type Identity struct {
	ID    string
	Email string
}
