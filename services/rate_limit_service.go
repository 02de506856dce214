package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether a caller may proceed.
type RateLimiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitService is a fixed-window counter in redis. The window starts
// with the first request for a key.
type RateLimitService struct {
	redis     *redis.Client
	keyPrefix string
}

func NewRateLimitService(client *redis.Client) *RateLimitService {
	return &RateLimitService{
		redis:     client,
		keyPrefix: "dispatch:rate_limit:",
	}
}

func (s *RateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error) {
	rKey := s.keyPrefix + key

	count, err := s.redis.Incr(ctx, rKey).Result()
	if err != nil {
		return RateLimitDecision{}, err
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, rKey, window).Err(); err != nil {
			return RateLimitDecision{}, err
		}
	}

	if count > int64(limit) {
		ttl, err := s.redis.TTL(ctx, rKey).Result()
		if err != nil {
			return RateLimitDecision{}, err
		}
		if ttl < 0 {
			// Key lost its expiry; start a new window.
			if err := s.redis.Expire(ctx, rKey, window).Err(); err != nil {
				return RateLimitDecision{}, err
			}
			ttl = window
		}
		return RateLimitDecision{Allowed: false, RetryAfter: ttl}, nil
	}

	return RateLimitDecision{Allowed: true, Remaining: limit - int(count)}, nil
}
