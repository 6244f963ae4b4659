package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/zx8086/url-shortener/internal/handlers"
	"github.com/zx8086/url-shortener/internal/metrics"
	"go.uber.org/zap"
)

// AccessLog logs every request once it completes and records its latency.
// It must run inside RequestMeta to see the request id.
func AccessLog(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			elapsed := time.Since(start)
			m.HTTPRequest(r.Method, status, elapsed)

			meta := handlers.RequestMetaFromContext(r.Context())
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", meta.RequestID),
				zap.String("client_ip", meta.ClientIP),
			}

			if status >= http.StatusInternalServerError {
				logger.Warn("request completed", fields...)

				return
			}

			logger.Info("request completed", fields...)
		})
	}
}
