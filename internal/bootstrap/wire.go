package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/audit"
	"github.com/baechuer/recipe-hub/internal/config"
	"github.com/baechuer/recipe-hub/internal/infrastructure/db/postgres"
	"github.com/baechuer/recipe-hub/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/recipe-hub/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/recipe-hub/internal/infrastructure/redis"
	"github.com/baechuer/recipe-hub/internal/infrastructure/security"
	"github.com/baechuer/recipe-hub/internal/logger"
	http_handlers "github.com/baechuer/recipe-hub/internal/transport/http/handlers"
	"github.com/baechuer/recipe-hub/internal/transport/http/middleware"
	"github.com/baechuer/recipe-hub/internal/transport/http/response"
	"github.com/baechuer/recipe-hub/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

// Server is the configured HTTP server plus how long shutdown may take.
type Server struct {
	*http.Server
	ShutdownTimeout time.Duration
}

func NewServer() (*Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string, debug bool) (*sql.DB, error)

	// Migrate brings the schema up to date; only called for postgres storage.
	Migrate func(dsn string) error

	NewRedis func(opts redis.Options) *redis.Client

	NewPublisher func(rabbitURL string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type Publisher interface {
	auth.EventPublisher
	Close() error
}

// userStore is what the service and /health need from storage.
type userStore interface {
	auth.UserRepo
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*Server, func(), error) {
	deps = withDefaults(deps)

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) storage
	var store userStore
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Logger.Warn().Msg("using in-memory user store; data is lost on restart")
		store = memory.NewUserRepo()

	default:
		db, err := deps.NewDB(cfg.DatabaseURL, cfg.DBDebug)
		if err != nil {
			return fail(fmt.Errorf("connect db: %w", err))
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBAutoMigrate {
			if err := deps.Migrate(cfg.DatabaseURL); err != nil {
				return fail(err)
			}
		}
		store = postgres.NewUserRepo(db)
	}

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" {
		c := deps.NewRedis(redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-process rate limits")
			_ = c.Close()
		} else {
			logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 3) publisher
	var pub auth.EventPublisher = memory.NewNoopPublisher()
	if cfg.RabbitURL != "" {
		p, err := deps.NewPublisher(cfg.RabbitURL)
		switch {
		case err == nil:
			pub = p
			cleanupFns = append(cleanupFns, func() { _ = p.Close() })
		case cfg.Env == "prod":
			return fail(fmt.Errorf("connect rabbitmq: %w", err))
		default:
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		}
	}

	// 4) security
	hasher, err := security.NewPasswordHasher(security.HasherConfig{
		Current:    security.Scheme(cfg.PasswordScheme),
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return fail(err)
	}
	codec, err := security.NewJWTCodec(security.JWTConfig{
		Algorithm:  cfg.JWTAlgorithm,
		AccessKey:  cfg.JWTSecret,
		RefreshKey: cfg.JWTRefreshSecret,
	})
	if err != nil {
		return fail(err)
	}
	logger.Logger.Info().
		Str("algorithm", cfg.JWTAlgorithm).
		Str("password_scheme", string(hasher.Current())).
		Msg("security initialised")

	if cfg.SeedDemoUsers {
		SeedUsers(context.Background(), store, hasher)
	}

	// 5) service
	authSvc := auth.NewService(store, hasher, codec, pub, auth.Config{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}).WithAudit(audit.New(logger.Logger).Record)

	// 6) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc)
	healthH := http_handlers.NewHealthHandler(store)
	authMW := middleware.Auth(authSvc.Resolver(), response.WriteError)

	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		fw := middleware.FixedWindowConfig{RouteKey: key, Limit: limit, Window: window}
		if redisCli == nil {
			return middleware.RateLimitLocal(fw, response.WriteError)
		}
		return middleware.RateLimitFixedWindow(redis.NewFixedWindowLimiter(redisCli), fw, response.WriteError)
	}

	// 7) router
	mux, err := deps.NewRouter(router.Deps{
		Health:          healthH,
		Auth:            authH,
		AuthMW:          authMW,
		LoginLimitMW:    rl("auth.login", cfg.LoginRateLimit, cfg.LoginRateWindow),
		RegisterLimitMW: rl("auth.register", cfg.RegisterRateLimit, cfg.RegisterRateWindow),
		CORSOrigins:     cfg.CORSAllowOrigins,
		TrustedProxies:  cfg.TrustedProxies,
	})
	if err != nil {
		return fail(err)
	}

	// 8) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	logger.Logger.Info().
		Str("app", cfg.AppName).
		Str("version", cfg.AppVersion).
		Str("env", cfg.Env).
		Str("storage", cfg.Storage).
		Msg("server configured")

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return &Server{Server: srv, ShutdownTimeout: cfg.ShutdownTimeout}, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    runMigrations,
		NewRedis:   redis.New,
		NewPublisher: func(url string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url)
		},
		NewRouter: router.New,
	}
}

func withDefaults(d Deps) Deps {
	def := defaultDeps()
	if d.LoadConfig == nil {
		d.LoadConfig = def.LoadConfig
	}
	if d.NewDB == nil {
		d.NewDB = def.NewDB
	}
	if d.Migrate == nil {
		d.Migrate = def.Migrate
	}
	if d.NewRedis == nil {
		d.NewRedis = def.NewRedis
	}
	if d.NewPublisher == nil {
		d.NewPublisher = def.NewPublisher
	}
	if d.NewRouter == nil {
		d.NewRouter = def.NewRouter
	}
	return d
}

/*
========================
 helpers
========================
*/

func runMigrations(dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if err := m.Up(); err != nil {
		return err
	}
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema migrated")
	return nil
}

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
