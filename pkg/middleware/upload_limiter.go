package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/pkg/cache"
	"steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
)

// UploadLimiter throttles sound uploads per identity over a fixed window
// (default 5 per 60 seconds). Counters live in the shared KV cache: when
// the backing store is unreachable the counter reads as zero, so the
// limiter fails open rather than blocking uploads.
type UploadLimiter struct {
	kv     cache.KV
	limit  int
	window time.Duration
	logger *logger.Logger
}

// NewUploadLimiter creates an upload limiter over the given KV store
func NewUploadLimiter(kv cache.KV, limit int, window time.Duration, logger *logger.Logger) *UploadLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &UploadLimiter{
		kv:     kv,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Middleware enforces the limit for the authenticated steam id.
// Must run after JWTAuthMiddleware.
func (u *UploadLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		steamID := c.GetString("steamID")
		if steamID == "" {
			// Unauthenticated requests are rejected by the auth layer
			c.Next()
			return
		}

		key := "upload_rate:" + steamID
		ctx := c.Request.Context()

		count := 0
		if raw, ok := u.kv.Get(ctx, key); ok {
			if parsed, err := strconv.Atoi(raw); err == nil {
				count = parsed
			}
		}

		if count >= u.limit {
			u.logger.Warn("upload rate limit exceeded",
				"steam_id", steamID,
				"count", count,
				"limit", u.limit,
			)
			c.Error(errors.NewError(429, errors.CodeRateLimited,
				"Upload limit reached. Please wait before uploading again."))
			c.Abort()
			return
		}

		// Read-modify-write rather than an atomic increment: two racing
		// uploads can both pass at the boundary, which only widens the
		// window by one upload.
		u.kv.Set(ctx, key, strconv.Itoa(count+1), u.window)

		c.Next()
	}
}
