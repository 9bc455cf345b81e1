package response

import (
	"net/http"

	reqctx "github.com/baechuer/recipe-hub/internal/pkg/context"
)

// RequestIDFromContext returns the id set by the RequestID middleware, if any.
func RequestIDFromContext(r *http.Request) string {
	return reqctx.GetRequestID(r.Context())
}
