package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Window is one live rate-limit counter.
type Window struct {
	Key   string // without the shared prefix, e.g. "auth.login:ip:10.0.0.1"
	Count int64
	TTL   time.Duration
}

// ScanWindows lists counters whose key (without prefix) matches the glob pattern.
func (c *Client) ScanWindows(ctx context.Context, pattern string, batch int64) ([]Window, error) {
	if pattern == "" {
		pattern = "*"
	}
	if batch <= 0 {
		batch = 200
	}

	var (
		out    []Window
		cursor uint64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+pattern, batch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for _, k := range keys {
			w := Window{Key: k[len(keyPrefix):]}

			val, err := c.rdb.Get(ctx, k).Result()
			switch {
			case errors.Is(err, goredis.Nil):
				continue // expired between SCAN and GET
			case err != nil:
				return nil, fmt.Errorf("get %s: %w", k, err)
			}
			w.Count, _ = strconv.ParseInt(val, 10, 64)

			if w.TTL, err = c.rdb.PTTL(ctx, k).Result(); err != nil {
				return nil, fmt.Errorf("pttl %s: %w", k, err)
			}
			out = append(out, w)
		}

		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// ResetWindows deletes the given counters, unblocking their callers. Keys are given without prefix.
func (c *Client) ResetWindows(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	n, err := c.rdb.Del(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("del: %w", err)
	}
	return n, nil
}
