package main

import (
	"context"
	"log/slog"
	"time"

	"hu-tracker/internal/config"
	"hu-tracker/internal/docgen"
	"hu-tracker/internal/middleware"
)

func getContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func institution(cfg config.InstitutionConfig) docgen.Institution {
	return docgen.Institution{
		Country:    cfg.Country,
		University: cfg.University,
		Faculty:    cfg.Faculty,
		City:       cfg.City,
	}
}

// newRateLimiter shares the limit through Redis when RATE_LIMIT_REDIS_URL is
// set and falls back to the in-process limiter otherwise. The returned func
// releases the Redis connection.
func newRateLimiter(cfg *config.RateLimitConfig) (*middleware.RateLimiter, func()) {
	if cfg.RedisURL == "" || !cfg.Enabled {
		return middleware.NewRateLimiter(cfg, nil), func() {}
	}

	limiter, client, err := middleware.NewRedisLimiter(cfg.RedisURL)
	if err != nil {
		slog.Warn("Invalid RATE_LIMIT_REDIS_URL, using in-memory rate limiting", "error", err)
		return middleware.NewRateLimiter(cfg, nil), func() {}
	}

	ctx, cancel := getContext(2 * time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis not reachable, rate limiting fails open until it is", "error", err)
	} else {
		slog.Info("Rate limiting shared through Redis")
	}

	return middleware.NewRateLimiter(cfg, limiter), func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close Redis client", "error", err)
		}
	}
}
