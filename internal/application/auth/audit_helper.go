package auth

import "github.com/baechuer/recipe-hub/internal/domain"

func domainCode(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := err.(*domain.Error); ok {
		return de.Code
	}
	return "non_domain_error"
}

func failureReason(err error) string {
	if r, ok := domain.FailureOf(err); ok {
		return string(r)
	}
	return domainCode(err)
}
