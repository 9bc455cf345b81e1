package router

import (
	"fmt"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/recipe-hub/internal/transport/http/middleware"
)

type HealthHandler interface {
	Health(w http.ResponseWriter, r *http.Request)
	Root(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler

	AuthMW func(http.Handler) http.Handler

	// Optional per-route limiters.
	LoginLimitMW    func(http.Handler) http.Handler
	RegisterLimitMW func(http.Handler) http.Handler

	// CORSOrigins defaults to "*".
	CORSOrigins []string

	// TrustedProxies may supply the client address via forwarding headers.
	TrustedProxies []netip.Prefix
}

func passthrough(next http.Handler) http.Handler { return next }

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.LoginLimitMW == nil {
		deps.LoginLimitMW = passthrough
	}
	if deps.RegisterLimitMW == nil {
		deps.RegisterLimitMW = passthrough
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.TrustedRealIP(deps.TrustedProxies))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", deps.Health.Root)
	r.Get("/health", deps.Health.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RegisterLimitMW).Post("/register", deps.Auth.Register)
		r.With(deps.LoginLimitMW).Post("/login", deps.Auth.Login)
		r.Post("/refresh", deps.Auth.Refresh)
		r.With(deps.AuthMW).Get("/me", deps.Auth.Me)
	})

	return r, nil
}
