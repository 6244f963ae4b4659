package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zx8086/url-shortener/internal/handlers"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/ratelimit"
	"go.uber.org/zap"
)

// MessageRateLimited is returned with 429 responses.
const MessageRateLimited = "Too many requests, please try again later."

// RateLimiter returns a Huma middleware that limits requests per client.
// When the limiter's store fails the request is let through.
func RateLimiter(
	api huma.API, limiter ratelimit.Limiter, logger *zap.Logger, m *metrics.Metrics,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMetaFromContext(ctx.Context())

		decision, err := limiter.Allow(ctx.Context(), clientKey(meta))
		if err != nil {
			logger.Warn("rate limit check failed, allowing request",
				zap.String("request_id", meta.RequestID),
				zap.Error(err),
			)
			next(ctx)

			return
		}

		ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			m.RateLimited()
			logger.Debug("rate limit exceeded",
				zap.String("client_ip", meta.ClientIP),
				zap.String("request_id", meta.RequestID),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(decision.Window.Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, MessageRateLimited)

			return
		}

		next(ctx)
	}
}

// clientKey identifies a client by IP without storing the address itself.
// The User-Agent is left out so rotating it does not buy a fresh budget.
func clientKey(meta handlers.RequestMeta) string {
	hash := sha256.Sum256([]byte(meta.ClientIP))

	return hex.EncodeToString(hash[:])
}
