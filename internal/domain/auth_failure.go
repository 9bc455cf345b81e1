package domain

import "errors"

// AuthFailure enumerates why a presented credential was rejected.
type AuthFailure string

const (
	FailureMissingCredential     AuthFailure = "missing_credential"
	FailureInvalidToken          AuthFailure = "invalid_token"
	FailureWrongTokenType        AuthFailure = "wrong_token_type"
	FailureMalformedClaims       AuthFailure = "malformed_claims"
	FailureUnknownOrInactiveUser AuthFailure = "unknown_or_inactive_user"
)

// FailureOf extracts the rejection reason from an error produced by ErrAuthRejected.
func FailureOf(err error) (AuthFailure, bool) {
	var de *Error
	if !errors.As(err, &de) || de.Code != "auth_rejected" {
		return "", false
	}
	r, ok := de.Meta["reason"]
	return AuthFailure(r), ok
}
