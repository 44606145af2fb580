package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybits-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

// quietPaths are probed constantly; successful hits log at debug.
var quietPaths = map[string]bool{"/healthcheck": true, "/metrics": true}

// RequestLogger writes one line per request after the handler chain finishes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", routeLabel(c),
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		kv = append(kv, ctxutil.LogFields(c.Request.Context())...)
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			kv = append(kv, "errors", errs.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", kv...)
		case quietPaths[c.Request.URL.Path]:
			log.Debug("request served", kv...)
		default:
			log.Info("request served", kv...)
		}
	}
}
