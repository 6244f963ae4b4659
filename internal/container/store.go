package container

import (
	"fmt"

	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/ratelimit"
	"github.com/zx8086/url-shortener/internal/shortener"
	"github.com/zx8086/url-shortener/internal/store"
	"go.uber.org/zap"
)

// StorePackage provides the *store.Connector for the configured driver.
// Nothing is dialled until the first request.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.Connector, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		backend, err := Backend(cfg)
		if err != nil {
			return nil, err
		}

		return store.NewConnector(backend, cfg.Retry, logger, m), nil
	})
}

// Backend returns the store backend named by cfg.StoreDriver.
func Backend(cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverCouchbase:
		return store.CouchbaseBackend(cfg.Couchbase), nil
	case config.DriverPostgres:
		return store.PostgresBackend(cfg.DatabaseURL), nil
	case config.DriverRedis:
		return store.RedisBackend(cfg.Redis), nil
	case config.DriverMemory:
		return store.MemoryBackend(store.NewMemoryStore()), nil
	default:
		return store.Backend{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// CachePackage provides the Redis *store.MappingCache. It needs RedisPackage
// and nothing from the store.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.MappingCache, error) {
		cfg := do.MustInvoke[*config.Config](i)

		rdb, err := do.Invoke[*Redis](i)
		if err != nil {
			return nil, err
		}

		return store.NewMappingCache(rdb.Client, cfg.CacheTTL, do.MustInvoke[*zap.Logger](i)), nil
	})
}

// RepositoryPackage provides the shortener.Repository, behind the Redis read
// cache when Redis is configured, and *store.CachedRepository in that case.
// The cached variant needs CachePackage.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return store.NewRepository(
			do.MustInvoke[*store.Connector](i),
			cfg.StoreTimeout,
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*store.CachedRepository, error) {
		cache, err := do.Invoke[*store.MappingCache](i)
		if err != nil {
			return nil, err
		}

		return store.NewCachedRepository(
			do.MustInvoke[*store.Repository](i),
			cache,
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RedisEnabled() {
			cached, err := do.Invoke[*store.CachedRepository](i)
			if err != nil {
				return nil, err
			}

			return cached, nil
		}

		return do.MustInvoke[*store.Repository](i), nil
	})
}

// ServicePackage provides the *shortener.Service.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			shortener.NewULIDGenerator().Generator(),
			cfg.PublicBaseURL,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the ratelimit.Limiter. Limits are shared through
// Redis when it is configured and kept per instance otherwise.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		cfg := do.MustInvoke[*config.Config](i)

		var s ratelimit.Store = store.NewRateLimitMemoryStore()

		if cfg.RedisEnabled() {
			rdb, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			s = store.NewRateLimitRedisStore(rdb.Client)
		}

		return ratelimit.NewSlidingWindowLimiter(s, cfg.RateLimit, cfg.RateWindow), nil
	})
}
