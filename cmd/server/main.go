package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/container"
	"github.com/zx8086/url-shortener/internal/store"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector) {
	container.LoggerPackage(injector)
	container.MetricsPackage(injector)
	container.RedisPackage(injector)
	container.CachePackage(injector)
	container.StorePackage(injector)
	container.RepositoryPackage(injector)
	container.ServicePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *config.Options) {
		cfg, err := config.Load(options, nil)
		if err != nil {
			bootstrap, _ := container.NewLogger("json", "info")
			bootstrap.Fatal("invalid configuration", zap.Error(err))
		}

		injector := container.New(cfg)
		registerPackages(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", cfg.Port),
				zap.String("base_url", cfg.PublicBaseURL),
				zap.String("store", cfg.StoreDriver),
				zap.Bool("redis", cfg.RedisEnabled()),
			)

			go warmUp(injector, logger)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}

// warmUp connects to the store in the background so the first request does
// not pay for it. Failure is only logged; requests will retry.
func warmUp(injector *do.Injector, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := do.MustInvoke[*store.Connector](injector).Ping(ctx); err != nil {
		logger.Warn("store not ready at startup", zap.Error(err))
	}
}
