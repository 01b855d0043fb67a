package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/pkg/errcode"
	"github.com/docuvault/docuvault/internal/pkg/response"
)

const rateLimitCacheSize = 4096

// RateLimit rejects a second request for the same (ip, user, route) inside
// the window. Keys live in a bounded LRU so an attacker rotating source
// addresses cannot grow memory without bound; evicting an old key merely
// forgets its cooldown.
func RateLimit(window time.Duration) gin.HandlerFunc {
	cache, err := lru.New[string, time.Time](rateLimitCacheSize)
	if err != nil {
		panic(err)
	}
	return func(c *gin.Context) {
		if window <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		uid := "0"
		if v, ok := c.Get(ContextUserIDKey); ok {
			if id, ok := v.(string); ok && id != "" {
				uid = id
			}
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := strings.Join([]string{ip, uid, path}, "|")

		now := time.Now()
		if last, ok := cache.Get(key); ok && now.Sub(last) < window {
			logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
				zap.String("ip", ip),
				zap.String("user_id", uid),
				zap.String("path", path),
			)
			response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
			c.Abort()
			return
		}
		cache.Add(key, now)
		c.Next()
	}
}
