package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const limiterIdle = 5 * time.Minute

type userLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	limiters  map[string]*userLimiter
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterSet(perMinute int) *limiterSet {
	return &limiterSet{
		limiters:  map[string]*userLimiter{},
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     max(perMinute/2, 1),
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// RateLimit applies a token bucket per authenticated user, or per client IP
// when no identity is set. perMinute <= 0 disables limiting.
func RateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	set := newLimiterSet(perMinute)

	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if userID, err := CheckUserLoggedIn(c); err == nil {
			key = "user:" + strconv.FormatUint(uint64(userID), 10)
		}

		if !set.get(key).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "Too many requests, slow down",
				"data":    nil,
			})
		}

		return c.Next()
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// idle buckets are evicted at most once per idle period
	if now.Sub(s.lastSweep) >= limiterIdle {
		for k, l := range s.limiters {
			if now.After(l.expires) {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	if l, ok := s.limiters[key]; ok {
		l.expires = now.Add(limiterIdle)
		return l.limiter
	}

	l := &userLimiter{
		limiter: rate.NewLimiter(s.limit, s.burst),
		expires: now.Add(limiterIdle),
	}
	s.limiters[key] = l
	return l.limiter
}
