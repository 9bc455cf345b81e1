// Command rlwindows lists or clears the Redis rate-limit counters behind /auth/login and /auth/register.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/baechuer/recipe-hub/internal/infrastructure/redis"
)

func main() {
	var (
		addr    = flag.String("addr", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address host:port")
		pass    = flag.String("pass", os.Getenv("REDIS_PASSWORD"), "redis password")
		db      = flag.Int("db", 0, "redis db")
		pattern = flag.String("pattern", "*", "counter pattern, e.g. auth.login:ip:*")
		doReset = flag.Bool("reset", false, "delete matched counters")
		count   = flag.Int64("count", 200, "SCAN COUNT hint")
		timeout = flag.Duration("timeout", 5*time.Second, "overall timeout")
	)
	flag.Parse()

	c := redis.New(redis.Options{Addr: *addr, Password: *pass, DB: *db})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}

	windows, err := c.ScanWindows(ctx, *pattern, *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	if len(windows) == 0 {
		fmt.Println("No counters matched.")
		return
	}

	keys := make([]string, 0, len(windows))
	for i, w := range windows {
		fmt.Printf("%d) %s\n   count=%d ttl=%s\n", i+1, w.Key, w.Count, w.TTL)
		keys = append(keys, w.Key)
	}

	if *doReset {
		n, err := c.ResetWindows(ctx, keys...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("reset %d counters\n", n)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
