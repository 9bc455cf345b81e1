package audit

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for auth business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

var messages = map[string]string{
	"user_registered":   "User registered",
	"register_conflict": "Registration rejected: email taken",
	"login_succeeded":   "User logged in successfully",
	"login_failed":      "Login attempt failed",
	"token_refreshed":   "Token pair refreshed",
	"refresh_rejected":  "Refresh token rejected",
	"password_rehashed": "Password hash upgraded to current scheme",
}

// Record matches the auth service audit hook. Emails are masked before they are written.
func (l *Logger) Record(action string, fields map[string]string) {
	ev := l.log.Info()
	if strings.HasSuffix(action, "_failed") || strings.HasSuffix(action, "_rejected") || strings.HasSuffix(action, "_conflict") {
		ev = l.log.Warn()
	}
	ev = ev.Str("action", action)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}

	msg, ok := messages[action]
	if !ok {
		msg = action
	}
	ev.Msg(msg)
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	// Show first 2 chars and domain
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:2] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
