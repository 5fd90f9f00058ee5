package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// UsageLimiterService enforces the daily orchestration budget per
// learner. Counters live in Redis with a midnight UTC reset; without
// Redis a per-learner token bucket approximates the same budget in
// process.
type UsageLimiterService struct {
	redis    *redis.Client
	dailyCap int64

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// LimitExceededError represents a rate limit rejection
type LimitExceededError struct {
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	ResetAt   time.Time `json:"reset_at"`
}

func (e *LimitExceededError) Error() string {
	return e.Message
}

// NewUsageLimiterService creates a usage limiter. redisClient may be
// nil; dailyCap <= 0 disables limiting entirely.
func NewUsageLimiterService(redisClient *redis.Client, dailyCap int64) *UsageLimiterService {
	return &UsageLimiterService{
		redis:    redisClient,
		dailyCap: dailyCap,
		buckets:  map[string]*rate.Limiter{},
	}
}

// CheckOrchestrateLimit reports whether the learner may run another
// orchestration today. Redis errors fail open.
func (s *UsageLimiterService) CheckOrchestrateLimit(ctx context.Context, learnerID string) error {
	if s.dailyCap <= 0 {
		return nil
	}
	if s.redis == nil {
		return s.checkLocal(learnerID)
	}

	count, err := s.redis.Get(ctx, s.orchestrateKey(learnerID)).Int64()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		// On error, allow the request (fail open)
		return nil
	}

	if count >= s.dailyCap {
		resetAt := s.nextMidnightUTC()
		return &LimitExceededError{
			ErrorCode: "orchestrate_limit_exceeded",
			Message:   fmt.Sprintf("Daily orchestration limit reached (%d/%d). Resets at midnight UTC.", count, s.dailyCap),
			Limit:     s.dailyCap,
			Used:      count,
			ResetAt:   resetAt,
		}
	}
	return nil
}

// IncrementOrchestrateCount records one orchestration for the learner
func (s *UsageLimiterService) IncrementOrchestrateCount(ctx context.Context, learnerID string) error {
	if s.dailyCap <= 0 || s.redis == nil {
		return nil
	}
	key := s.orchestrateKey(learnerID)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		// Expire at next midnight plus a day of buffer
		expiry := time.Until(s.nextMidnightUTC().Add(24 * time.Hour))
		s.redis.Expire(ctx, key, expiry)
	}
	return nil
}

func (s *UsageLimiterService) checkLocal(learnerID string) error {
	s.mu.Lock()
	bucket, ok := s.buckets[learnerID]
	if !ok {
		// Spread the daily cap over the day, allowing a small burst
		perSecond := rate.Limit(float64(s.dailyCap) / (24 * 60 * 60))
		bucket = rate.NewLimiter(perSecond, int(min64(s.dailyCap, 10)))
		s.buckets[learnerID] = bucket
	}
	s.mu.Unlock()

	if !bucket.Allow() {
		return &LimitExceededError{
			ErrorCode: "orchestrate_limit_exceeded",
			Message:   fmt.Sprintf("Orchestration rate limit reached (%d per day).", s.dailyCap),
			Limit:     s.dailyCap,
			ResetAt:   s.nextMidnightUTC(),
		}
	}
	return nil
}

func (s *UsageLimiterService) orchestrateKey(learnerID string) string {
	date := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("orchestrations:%s:%s", learnerID, date)
}

func (s *UsageLimiterService) nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
