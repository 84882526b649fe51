package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// LoggingMiddleware writes one debug line per request.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(nil, next, func(_ io.Writer, params handlers.LogFormatterParams) {
			logger.Debug("request",
				zap.String("method", params.Request.Method),
				zap.String("path", params.URL.Path),
				zap.Int("status", params.StatusCode),
				zap.Int("size", params.Size),
				zap.Duration("duration", time.Since(params.TimeStamp)),
			)
		})
	}
}
