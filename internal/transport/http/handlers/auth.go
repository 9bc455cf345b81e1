package http_handlers

import (
	"net/http"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/domain"
	"github.com/baechuer/recipe-hub/internal/logger"
	"github.com/baechuer/recipe-hub/internal/transport/http/dto"
	"github.com/baechuer/recipe-hub/internal/transport/http/middleware"
	"github.com/baechuer/recipe-hub/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// metricStatus buckets an error into a small label set.
func metricStatus(err error) string {
	if err == nil {
		return "success"
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return "invalid"
	case domain.KindAuth:
		return "rejected"
	case domain.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		middleware.RegistrationsTotal.WithLabelValues(metricStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		middleware.RegistrationsTotal.WithLabelValues(metricStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	middleware.RegistrationsTotal.WithLabelValues(metricStatus(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", u.ID).
		Msg("user_registered")

	response.Created(w, dto.NewUserRead(u))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := metricStatus(err)
		if domain.Is(err, "invalid_credentials") {
			status = "invalid_credentials"
		}
		middleware.LoginAttemptsTotal.WithLabelValues(status).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	response.OK(w, dto.NewTokenPair(pair))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	middleware.TokenRefreshTotal.WithLabelValues(metricStatus(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewTokenPair(pair))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthorized())
		return
	}

	u, err := h.svc.Me(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewUserRead(u))
}
