package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is built once by Load and passed by value or pointer; nothing mutates it afterwards.
type Config struct {
	// App
	AppName    string
	AppVersion string
	Env        string // dev / test / prod

	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
	// Peers allowed to set X-Forwarded-For / X-Real-IP; empty trusts nobody.
	TrustedProxies   []netip.Prefix

	// Auth / Security
	JWTSecret        string
	JWTRefreshSecret string
	JWTAlgorithm     string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	PasswordScheme   string // bcrypt / argon2id
	BcryptCost       int

	// Storage
	Storage       string // postgres / memory
	DatabaseURL   string
	DBDebug       bool
	DBAutoMigrate bool
	SeedDemoUsers bool

	// Optional infrastructure; empty disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RabbitURL     string

	// Rate limiting (per client IP)
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	RegisterRateLimit  int
	RegisterRateWindow time.Duration
}

func Load() (*Config, error) {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	cfg := &Config{
		AppName:        getEnv("APP_NAME", "Recipe Hub API"),
		AppVersion:     getEnv("APP_VERSION", "0.1.0"),
		Env:            getEnv("APP_ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTAlgorithm:   strings.ToUpper(getEnv("ALGORITHM", "HS256")),
		PasswordScheme: strings.ToLower(getEnv("PASSWORD_SCHEME", "bcrypt")),
		Storage:        strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitURL:      getEnv("RABBIT_URL", ""),
	}
	cfg.CORSAllowOrigins = splitList(getEnv("CORS_ALLOW_ORIGINS", "*"))

	proxies, err := parsePrefixes(splitList(getEnv("TRUSTED_PROXIES", "")))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET_KEY")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET_KEY")
	}
	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET_KEY")
	if cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_REFRESH_SECRET_KEY")
	}
	// a shared key would let an access token pass as a refresh token's signature
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_SECRET_KEY and JWT_REFRESH_SECRET_KEY must differ")
	}

	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported ALGORITHM %q (want HS256, HS384 or HS512)", cfg.JWTAlgorithm)
	}

	switch cfg.PasswordScheme {
	case "bcrypt", "argon2id":
	default:
		return nil, fmt.Errorf("unsupported PASSWORD_SCHEME %q (want bcrypt or argon2id)", cfg.PasswordScheme)
	}

	switch cfg.Storage {
	case StoragePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("missing required env var: DATABASE_URL")
		}
		if err := validatePostgresDSN(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	case StorageMemory:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	default:
		return nil, fmt.Errorf("unsupported STORAGE %q (want postgres or memory)", cfg.Storage)
	}

	if cfg.AccessTokenTTL, err = getMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", 30); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getMinutes("REFRESH_TOKEN_EXPIRE_MINUTES", 10080); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be within 4..31, got %d", cfg.BcryptCost)
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate, err = getBool("DB_AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.SeedDemoUsers, err = getBool("SEED_DEMO_USERS", false); err != nil {
		return nil, err
	}

	if cfg.LoginRateLimit, err = getInt("RL_LOGIN_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = getDuration("RL_LOGIN_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RegisterRateLimit, err = getInt("RL_REGISTER_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.RegisterRateWindow, err = getDuration("RL_REGISTER_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	// timeouts are optional
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("scheme must be postgres or postgresql, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("missing database name")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return i, nil
}

// getMinutes reads a positive whole number of minutes.
func getMinutes(key string, def int) (time.Duration, error) {
	n, err := getInt(key, def)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Minute, nil
}

// parsePrefixes accepts CIDRs ("10.0.0.0/8") and bare addresses ("127.0.0.1").
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(items))
	for _, it := range items {
		if p, err := netip.ParsePrefix(it); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(it)
		if err != nil {
			return nil, fmt.Errorf("%q is neither a CIDR nor an IP", it)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
