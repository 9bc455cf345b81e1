package main

import (
	"bufio"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/recipe-hub/internal/application/auth"
)

type issuer interface {
	Issue(kind auth.TokenKind, subject, email string, ttl time.Duration) (string, error)
}

// mint writes n tokens, one per line.
func mint(w *bufio.Writer, codec issuer, kind auth.TokenKind, sub, email string, ttl time.Duration, n int) error {
	if n < 1 {
		return fmt.Errorf("n must be positive, got %d", n)
	}
	for i := 0; i < n; i++ {
		subject := sub
		if subject == "" {
			subject = uuid.NewString()
		}
		tok, err := codec.Issue(kind, subject, email, ttl)
		if err != nil {
			return err
		}
		if _, err := w.WriteString(tok + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
