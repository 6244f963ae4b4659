// Package container wires the application's services into a samber/do injector.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates an injector holding cfg. Packages are registered by the caller.
func New(cfg *config.Config) *do.Injector {
	injector := do.New()
	do.ProvideValue(injector, cfg)

	return injector
}

// LoggerPackage provides the *zap.Logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return NewLogger(cfg.LogFormat, cfg.LogLevel)
	})
}

// NewLogger builds a JSON production logger, or a console development
// logger when format is "console".
func NewLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}

// MetricsPackage provides the *metrics.Metrics.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// Redis is the shared client used for the read cache, rate limits and
// events. It is closed when the injector shuts down.
type Redis struct {
	Client *redis.Client
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

// RedisPackage provides *Redis. Invoking it fails when no Redis is configured.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.RedisEnabled() {
			return nil, fmt.Errorf("redis is not configured")
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// A failed ping is not fatal: the cache and limiter degrade until Redis is back.
		if err := client.Ping(ctx).Err(); err != nil {
			do.MustInvoke[*zap.Logger](i).Warn("redis not reachable at startup",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		}

		return &Redis{Client: client}, nil
	})
}
