package main

import (
	"context"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/container"
	"github.com/zx8086/url-shortener/internal/messaging"
	"go.uber.org/zap"
)

// The consumer warms the Redis read cache from mapping.created events, so
// short links created on one instance are cache hits everywhere. It never
// touches the mapping store, so only Redis needs configuring.
func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *config.Options) {
		cfg, err := config.LoadCacheWarmer(options, nil)
		if err != nil {
			bootstrap, _ := container.NewLogger("json", "info")
			bootstrap.Fatal("invalid configuration", zap.Error(err))
		}

		injector := container.New(cfg)
		container.LoggerPackage(injector)
		container.MetricsPackage(injector)
		container.RedisPackage(injector)
		container.CachePackage(injector)
		container.ConsumerGroupPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("cache warmer running", zap.String("group", container.CacheWarmerGroup))

			<-done
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			close(done)
			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}
