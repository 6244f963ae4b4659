package container

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/events"
	"github.com/zx8086/url-shortener/internal/handlers"
	"github.com/zx8086/url-shortener/internal/health"
	"github.com/zx8086/url-shortener/internal/messaging"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/middleware"
	"github.com/zx8086/url-shortener/internal/ratelimit"
	"github.com/zx8086/url-shortener/internal/shortener"
	"github.com/zx8086/url-shortener/internal/store"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HTTPPackage provides the *chi.Mux and the huma.API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		router := chi.NewMux()
		router.Use(
			chimiddleware.Recoverer,
			middleware.RequestMeta,
			middleware.AccessLog(logger, m),
			middleware.SecurityHeaders,
			middleware.CORS(cfg.AllowedOrigins),
			chimiddleware.Compress(5),
		)
		router.Method("GET", "/metrics", m.Handler())

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		router := do.MustInvoke[*chi.Mux](i)

		handlers.UseMessageErrors()

		humaConfig := huma.DefaultConfig("URL Shortener", "1.0.0")
		humaConfig.Info.Description = "Shortens long URLs and redirects short codes to them."
		humaConfig.DocsPath = "/swagger"

		api := humachi.New(router, humaConfig)

		if cfg.RateLimit > 0 {
			limiter := do.MustInvoke[ratelimit.Limiter](i)
			api.UseMiddleware(middleware.RateLimiter(api, limiter, logger, m))
		}

		urlHandler := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[messaging.Publish[events.MappingCreated]](i),
			m,
			logger,
		)

		var cacheChecker health.Checker
		if cfg.RedisEnabled() {
			cacheChecker = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[*store.Connector](i), cacheChecker, healthTimeout))
		handlers.RegisterRoutes(api, urlHandler)

		return api, nil
	})
}
