package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zx8086/url-shortener/internal/config"
)

// defaults mirrors the option defaults humacli would apply.
func defaults() *config.Options {
	return &config.Options{
		Port:            3005,
		BaseURL:         "http://localhost",
		StoreDriver:     "couchbase",
		CacheTTL:        "24h",
		ConnectAttempts: 3,
		ConnectBackoff:  "200ms",
		StoreTimeout:    "2.5s",
		RateLimit:       100,
		AllowedOrigins:  "*",
		ShutdownTimeout: "30s",
		LogFormat:       "json",
		LogLevel:        "info",
	}
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]

		return v, ok
	}
}

var couchbaseEnv = map[string]string{
	"COUCHBASE_URL":        "couchbase://db",
	"COUCHBASE_USERNAME":   "app",
	"COUCHBASE_PASSWORD":   "secret",
	"COUCHBASE_BUCKET":     "shortener",
	"COUCHBASE_SCOPE":      "urls",
	"COUCHBASE_COLLECTION": "mappings",
}

func TestLoad(t *testing.T) {
	t.Run("reads couchbase settings from the environment", func(t *testing.T) {
		cfg, err := config.Load(defaults(), env(couchbaseEnv))

		require.NoError(t, err)
		assert.Equal(t, config.DriverCouchbase, cfg.StoreDriver)
		assert.Equal(t, "couchbase://db", cfg.Couchbase.ConnectionString)
		assert.Equal(t, "mappings", cfg.Couchbase.Collection)
		assert.Equal(t, "http://localhost:3005", cfg.PublicBaseURL)
		assert.Equal(t, 2500*time.Millisecond, cfg.StoreTimeout)
		assert.Equal(t, uint(3), cfg.Retry.Attempts)
		assert.Equal(t, 200*time.Millisecond, cfg.Retry.Backoff)
		assert.Equal(t, int64(100), cfg.RateLimit)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
		assert.False(t, cfg.RedisEnabled())
	})

	t.Run("names every missing variable", func(t *testing.T) {
		_, err := config.Load(defaults(), env(map[string]string{
			"COUCHBASE_URL":      "couchbase://db",
			"COUCHBASE_USERNAME": "app",
		}))

		require.Error(t, err)
		assert.Contains(t, err.Error(),
			"COUCHBASE_BUCKET, COUCHBASE_COLLECTION, COUCHBASE_PASSWORD, COUCHBASE_SCOPE")
	})

	t.Run("requires DATABASE_URL for postgres", func(t *testing.T) {
		_, err := config.Load(defaults(), env(map[string]string{"STORE_DRIVER": "postgres"}))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
		assert.NotContains(t, err.Error(), "COUCHBASE")
	})

	t.Run("memory driver needs nothing", func(t *testing.T) {
		cfg, err := config.Load(defaults(), env(map[string]string{"STORE_DRIVER": "memory"}))

		require.NoError(t, err)
		assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	})

	t.Run("explicit options win over the environment", func(t *testing.T) {
		opts := defaults()
		opts.StoreDriver = "memory"
		opts.Port = 8080

		cfg, err := config.Load(opts, env(map[string]string{"STORE_DRIVER": "postgres", "PORT": "9090"}))

		require.NoError(t, err)
		assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		cfg, err := config.Load(defaults(), env(map[string]string{
			"STORE_DRIVER":    "redis",
			"REDIS_ADDR":      "cache:6379",
			"PORT":            "8080",
			"BASE_URL":        "https://sho.rt",
			"ALLOWED_ORIGINS": "https://a.example, https://b.example",
			"CACHE_TTL":       "1h",
		}))

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "https://sho.rt:8080", cfg.PublicBaseURL)
		assert.True(t, cfg.RedisEnabled())
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, time.Hour, cfg.CacheTTL)
	})

	t.Run("reports invalid values together", func(t *testing.T) {
		_, err := config.Load(defaults(), env(map[string]string{
			"STORE_DRIVER":  "mongo",
			"PORT":          "eighty",
			"STORE_TIMEOUT": "soon",
		}))

		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown store driver "mongo"`)
		assert.Contains(t, err.Error(), "PORT")
		assert.Contains(t, err.Error(), "STORE_TIMEOUT")
	})
}

func TestLoadCacheWarmer(t *testing.T) {
	t.Run("starts with only redis configured", func(t *testing.T) {
		cfg, err := config.LoadCacheWarmer(defaults(), env(map[string]string{"REDIS_ADDR": "cache:6379"}))

		require.NoError(t, err)
		assert.True(t, cfg.RedisEnabled())
		assert.Equal(t, time.Duration(24)*time.Hour, cfg.CacheTTL)
	})

	t.Run("requires REDIS_ADDR", func(t *testing.T) {
		_, err := config.LoadCacheWarmer(defaults(), env(couchbaseEnv))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_ADDR")
		assert.NotContains(t, err.Error(), "COUCHBASE")
	})

	t.Run("ignores the store driver", func(t *testing.T) {
		_, err := config.LoadCacheWarmer(defaults(), env(map[string]string{
			"REDIS_ADDR":   "cache:6379",
			"STORE_DRIVER": "mongo",
		}))

		require.NoError(t, err)
	})
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		port    int
		want    string
		wantErr bool
	}{
		{name: "appends port", baseURL: "http://localhost", port: 3005, want: "http://localhost:3005"},
		{name: "keeps explicit port", baseURL: "https://sho.rt:443", port: 3005, want: "https://sho.rt:443"},
		{name: "drops trailing slash", baseURL: "http://localhost/", port: 3005, want: "http://localhost:3005"},
		{name: "keeps path prefix", baseURL: "http://example.com/s", port: 80, want: "http://example.com:80/s"},
		{name: "rejects bare host", baseURL: "localhost", port: 3005, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.PublicBaseURL(tt.baseURL, tt.port)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
