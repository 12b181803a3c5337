package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/config"
)

// Rate limit scopes
const (
	ScopeLogin         = "login"
	ScopePasswordReset = "password_reset"
)

// counterStore is the subset of redis.Cmdable the limiter needs
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RateLimitService counts attempts per client IP and email in fixed windows
type RateLimitService struct {
	store       counterStore
	maxAttempts int
	window      time.Duration
	logger      *logrus.Logger
}

// NewRedisClient connects to the Redis instance at url
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRateLimitService creates a limiter. A nil store disables limiting.
func NewRateLimitService(store counterStore, cfg config.RateLimitConfig, logger *logrus.Logger) *RateLimitService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimitService{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

// Enabled reports whether attempts are being counted
func (s *RateLimitService) Enabled() bool {
	return s != nil && s.store != nil
}

// Check records one attempt and returns a KindRateLimited error once the
// window holds more than maxAttempts. Redis failures allow the attempt.
func (s *RateLimitService) Check(ctx context.Context, scope, ip, email string) error {
	if !s.Enabled() {
		return nil
	}

	key := rateLimitKey(scope, ip, email)
	count, err := s.store.Incr(ctx, key).Result()
	if err != nil {
		s.logger.WithField("scope", scope).WithError(err).Warn("Rate limit check failed, allowing request")
		return nil
	}
	if count == 1 {
		if err := s.store.Expire(ctx, key, s.window).Err(); err != nil {
			s.logger.WithField("scope", scope).WithError(err).Warn("Failed to set rate limit window")
		}
	}
	if int(count) <= s.maxAttempts {
		return nil
	}

	retryAfter, err := s.store.TTL(ctx, key).Result()
	if err != nil || retryAfter <= 0 {
		retryAfter = s.window
	}
	return &Error{
		Kind:       KindRateLimited,
		Code:       CodeRateLimitExceeded,
		Message:    fmt.Sprintf("Too many attempts. Please try again in %d seconds", int(retryAfter.Seconds())),
		RetryAfter: retryAfter,
	}
}

// Reset clears the counter, used after a successful login
func (s *RateLimitService) Reset(ctx context.Context, scope, ip, email string) {
	if !s.Enabled() {
		return
	}
	if err := s.store.Del(ctx, rateLimitKey(scope, ip, email)).Err(); err != nil {
		s.logger.WithField("scope", scope).WithError(err).Warn("Failed to reset rate limit")
	}
}

func rateLimitKey(scope, ip, email string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", scope, ip, strings.ToLower(strings.TrimSpace(email)))
}
