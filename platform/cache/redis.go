// Package cache opens the Redis connection shared by the evaluation caches.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"crm_messaging_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses the configured Redis URL and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
