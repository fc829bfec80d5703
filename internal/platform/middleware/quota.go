// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/constants"
	"github.com/taibuivan/bonappetit/internal/platform/ctxutil"
	"github.com/taibuivan/bonappetit/internal/platform/respond"
)

// # Hourly Abuse Quota

// QuotaCounter abstracts the increment-with-expiry primitive behind the
// hourly quota, so the middleware can be unit-tested without a live Redis.
type QuotaCounter interface {
	// Increment bumps the counter stored under key, starting the window
	// on first use, and returns the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisQuotaCounter implements [QuotaCounter] on a Redis client.
type RedisQuotaCounter struct {
	client *redis.Client
}

// NewRedisQuotaCounter creates a Redis-backed quota counter.
func NewRedisQuotaCounter(client *redis.Client) *RedisQuotaCounter {
	return &RedisQuotaCounter{client: client}
}

// Increment bumps the per-address counter and arms its expiry on first use.
//
// INCR followed by EXPIRE NX keeps the pair race-safe across concurrent
// requests from the same address: whichever request creates the key also
// arms the window, and later requests leave the deadline untouched.
func (counter *RedisQuotaCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := counter.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := counter.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// HourlyQuota enforces a fixed request budget per source address per rolling
// hour. It gates only the abuse-sensitive endpoints (registration and
// password commit); the global token bucket covers everything else.
//
// # Failure Mode
//
// If the counter backend is unreachable the request is allowed through and
// the incident is logged: quota enforcement is a defense layer, not a
// dependency the login flow may die on.
func HourlyQuota(counter QuotaCounter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := constants.RedisPrefixQuota + RealIP(request)

			count, err := counter.Increment(request.Context(), key, constants.HourlyQuotaWindow)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"quota_counter_unavailable", slog.Any("error", err))
				next.ServeHTTP(writer, request)
				return
			}

			if count > constants.HourlyQuotaLimit {
				respond.Error(writer, request,
					apperr.RateLimited(int(constants.HourlyQuotaWindow.Seconds())))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
