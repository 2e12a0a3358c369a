package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/cv-matcher/internal/adapter/httpserver"
)

// Pinger is anything that can report its own reachability, such as a
// *pgxpool.Pool or the Tika client.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the readiness probes. The database is
// required; redis and tika are probed only when wired.
func BuildReadinessChecks(pool Pinger, rdb goredis.Cmdable, tika Pinger) []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{
		{Name: "db", Check: func(ctx context.Context) error {
			if pool == nil {
				return fmt.Errorf("db not configured")
			}
			return pool.Ping(ctx)
		}},
	}
	if rdb != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if tika != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "tika", Check: tika.Ping})
	}
	return checks
}
