// Package redis caches rendered dashboard metrics in Redis.
package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// DashboardKey is the Redis key holding the cached dashboard.
const DashboardKey = "cvmatch:dashboard:v1"

// DashboardCache implements domain.MetricsCache on a go-redis client.
type DashboardCache struct {
	Client goredis.Cmdable
	Key    string
}

// NewDashboardCache constructs a cache using DashboardKey.
func NewDashboardCache(c goredis.Cmdable) *DashboardCache {
	return &DashboardCache{Client: c, Key: DashboardKey}
}

// GetDashboard returns the cached metrics; ok is false on a miss.
func (c *DashboardCache) GetDashboard(ctx domain.Context) (domain.DashboardMetrics, bool, error) {
	ctx, span := otel.Tracer("cache.redis").Start(ctx, "dashboard.Get")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("db.operation", "GET"))

	b, err := c.Client.Get(ctx, c.Key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.DashboardMetrics{}, false, nil
	}
	if err != nil {
		return domain.DashboardMetrics{}, false, fmt.Errorf("op=dashboard_cache.get: %w", err)
	}
	var m domain.DashboardMetrics
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.DashboardMetrics{}, false, fmt.Errorf("op=dashboard_cache.decode: %w", err)
	}
	return m, true, nil
}

// SetDashboard stores metrics for ttl.
func (c *DashboardCache) SetDashboard(ctx domain.Context, m domain.DashboardMetrics, ttl time.Duration) error {
	ctx, span := otel.Tracer("cache.redis").Start(ctx, "dashboard.Set")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("db.operation", "SET"))

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("op=dashboard_cache.encode: %w", err)
	}
	if err := c.Client.Set(ctx, c.Key, b, ttl).Err(); err != nil {
		return fmt.Errorf("op=dashboard_cache.set: %w", err)
	}
	return nil
}

// Invalidate drops the cached metrics.
func (c *DashboardCache) Invalidate(ctx domain.Context) error {
	if err := c.Client.Del(ctx, c.Key).Err(); err != nil {
		return fmt.Errorf("op=dashboard_cache.invalidate: %w", err)
	}
	return nil
}
