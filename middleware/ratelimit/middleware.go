package ratelimit

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// instanceID is used as a key fallback when no client address is available,
// so such requests at least share one bucket per process.
var instanceID = uuid.New().String()

// New creates a Fiber middleware enforcing the configured per-client rate
// limit. Clients are identified by remote IP. A nil Redis client disables
// limiting entirely.
func New(client *redis.Client, config Config) fiber.Handler {
	limiter := NewLimiter(client, config.KeyPrefix)

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if key == "" {
			key = instanceID
		}

		result, err := limiter.Allow(c.UserContext(), key, config.Limit, config.Window)
		if err != nil {
			// Fail open: a broken limiter must not take down auth.
			log.Printf("[ratelimit] Check failed for %s: %v", key, err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int64(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"detail": "Too many requests. Please slow down and try again.",
			})
		}

		return c.Next()
	}
}
