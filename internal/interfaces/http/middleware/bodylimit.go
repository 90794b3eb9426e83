package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BodyLimitConfig caps request bodies. Upload routes get a larger cap.
type BodyLimitConfig struct {
	MaxBytes       int64
	UploadMaxBytes int64
	UploadPrefixes []string
}

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithConfig(BodyLimitConfig{MaxBytes: maxBytes})
}

// BodyLimitWithConfig returns a body limit middleware with per-prefix upload caps
func BodyLimitWithConfig(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := cfg.MaxBytes
		if cfg.UploadMaxBytes > 0 {
			for _, p := range cfg.UploadPrefixes {
				if strings.HasPrefix(c.Request.URL.Path, p) {
					limit = cfg.UploadMaxBytes
					break
				}
			}
		}
		if limit <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_PAYLOAD_TOO_LARGE",
					"message": "Request body exceeds maximum allowed size",
				},
			})
			return
		}

		// Chunked bodies carry no Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
