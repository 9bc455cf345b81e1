// Command tool mints signed tokens with the service's own keys, for local debugging:
//
//	go run ./cmd/tool -email chef@example.com -kind access
//	go run ./cmd/tool -sub <uuid> -kind refresh -n 100 -out tokens.csv
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/config"
	"github.com/baechuer/recipe-hub/internal/infrastructure/security"
	"github.com/baechuer/recipe-hub/internal/logger"
)

func main() {
	sub := flag.String("sub", "", "subject (user id); random uuid per token when empty")
	email := flag.String("email", "", "email claim")
	kind := flag.String("kind", string(auth.TokenAccess), "token kind: access|refresh")
	n := flag.Int("n", 1, "number of tokens")
	out := flag.String("out", "", "write tokens to this file instead of stdout")
	flag.Parse()

	logger.Init()

	if err := run(*sub, *email, auth.TokenKind(*kind), *n, *out); err != nil {
		logger.Logger.Error().Err(err).Msg("mint failed")
		os.Exit(1)
	}
}

func run(sub, email string, kind auth.TokenKind, n int, out string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	codec, err := security.NewJWTCodec(security.JWTConfig{
		Algorithm:  cfg.JWTAlgorithm,
		AccessKey:  cfg.JWTSecret,
		RefreshKey: cfg.JWTRefreshSecret,
	})
	if err != nil {
		return err
	}

	ttl := cfg.AccessTokenTTL
	switch kind {
	case auth.TokenAccess:
	case auth.TokenRefresh:
		ttl = cfg.RefreshTokenTTL
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return mint(bufio.NewWriter(w), codec, kind, sub, email, ttl, n)
}
