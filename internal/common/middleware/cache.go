package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/cache"
	"prize-pool-backend/internal/common/logger"
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache caches successful GET responses under prefix for ttl.
// Entries are keyed by prefix, caller identity and full request URI, so
// per-caller views such as /deposits/me never leak between users.
func ResponseCache(svc *cache.CacheService, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil || ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := prefix + ":" + GetIdentity(c) + ":" + c.Request.URL.RequestURI()

		var entry cachedResponse
		if err := svc.Get(c.Request.Context(), key, &entry); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		entry = cachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := svc.Set(context.Background(), key, entry, ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to store cached response")
		}
	}
}

// InvalidateCache drops every entry under prefix after a successful
// state-changing request.
func InvalidateCache(svc *cache.CacheService, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if svc == nil || c.Request.Method == http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		if err := svc.DeletePattern(context.Background(), prefix+":*"); err != nil {
			logger.Warn().Err(err).Str("prefix", prefix).Msg("Failed to invalidate response cache")
		}
	}
}
