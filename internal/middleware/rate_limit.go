package middleware

import (
	"context"
	"time"

	"github.com/deppfellow/student-records/internal/errs"
	"github.com/deppfellow/student-records/internal/server"
	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const rateLimitTimeout = 500 * time.Millisecond

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Enabled reports whether throttling is configured and Redis is available.
func (r *RateLimitMiddleware) Enabled() bool {
	return r.server.Redis != nil && r.server.Config.Server.RateLimit.RequestsPerSecond > 0
}

// RecordRateLimitHit records a New Relic custom event for a rejected request.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// Limit throttles clients by IP using a GCRA limiter stored in Redis, shared
// by every instance pointing at the same Redis.
//
// The health endpoint is never throttled.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	cfg := r.server.Config.Server.RateLimit

	burst := cfg.Burst
	if burst == 0 {
		burst = cfg.RequestsPerSecond
	}

	store := &redisRateLimiterStore{
		limiter: redis_rate.NewLimiter(r.server.Redis),
		limit: redis_rate.Limit{
			Rate:   cfg.RequestsPerSecond,
			Burst:  burst,
			Period: time.Second,
		},
		logger: r.server.Logger,
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())

			r.server.Logger.Warn().
				Str("identifier", identifier).
				Str("path", c.Path()).
				Msg("rate limit exceeded")

			return errs.NewTooManyRequestsError("Too many requests")
		},
	})
}

// redisRateLimiterStore adapts redis_rate to echo's RateLimiterStore.
type redisRateLimiterStore struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	logger  *zerolog.Logger
}

// Allow fails open when Redis is unreachable.
func (s *redisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitTimeout)
	defer cancel()

	res, err := s.limiter.Allow(ctx, "rate:"+identifier, s.limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("rate limiter unavailable, allowing request")
		return true, nil
	}

	return res.Allowed > 0, nil
}
