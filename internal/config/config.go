// Package config turns command line options and environment variables into
// a validated Config.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zx8086/url-shortener/internal/store"
)

// Store drivers.
const (
	DriverCouchbase = "couchbase"
	DriverPostgres  = "postgres"
	DriverRedis     = "redis"
	DriverMemory    = "memory"
)

// Options are the command line options. Each may also be set through the
// variable named in its env tag; see Load for precedence.
type Options struct {
	Port    int    `default:"3005"             env:"PORT"     help:"Port to listen on" short:"p"`
	BaseURL string `default:"http://localhost" env:"BASE_URL" help:"Public base URL of short links; PORT is appended when it has none"`

	StoreDriver         string `default:"couchbase" env:"STORE_DRIVER"         help:"Mapping store: couchbase, postgres, redis or memory"`
	CouchbaseURL        string `env:"COUCHBASE_URL"        help:"Couchbase connection string"`
	CouchbaseUsername   string `env:"COUCHBASE_USERNAME"   help:"Couchbase username"`
	CouchbasePassword   string `env:"COUCHBASE_PASSWORD"   help:"Couchbase password"`
	CouchbaseBucket     string `env:"COUCHBASE_BUCKET"     help:"Couchbase bucket"`
	CouchbaseScope      string `env:"COUCHBASE_SCOPE"      help:"Couchbase scope"`
	CouchbaseCollection string `env:"COUCHBASE_COLLECTION" help:"Couchbase collection"`
	DatabaseURL         string `env:"DATABASE_URL"         help:"PostgreSQL connection URL"`

	RedisAddr     string `env:"REDIS_ADDR"     help:"Redis address; enables the read cache, events and shared rate limits" short:"r"`
	RedisPassword string `env:"REDIS_PASSWORD" help:"Redis password"`
	RedisDB       int    `default:"0"          env:"REDIS_DB" help:"Redis database number"`
	CacheTTL      string `default:"24h"        env:"CACHE_TTL" help:"Read cache entry lifetime; 0 keeps entries until evicted"`

	ConnectAttempts int    `default:"3"     env:"STORE_CONNECT_ATTEMPTS" help:"Store connection attempts per establishment"`
	ConnectBackoff  string `default:"200ms" env:"STORE_CONNECT_BACKOFF"  help:"Delay before the second connection attempt; doubles after"`
	StoreTimeout    string `default:"2.5s"  env:"STORE_TIMEOUT"          help:"Timeout for a single store operation"`

	RateLimit       int    `default:"100" env:"RATE_LIMIT"       help:"Requests per client per minute; 0 disables rate limiting"`
	AllowedOrigins  string `default:"*"   env:"ALLOWED_ORIGINS"  help:"Comma separated CORS origins"`
	ShutdownTimeout string `default:"30s" env:"SHUTDOWN_TIMEOUT" help:"Grace period for in-flight requests on shutdown"`

	LogFormat string `default:"json" env:"LOG_FORMAT" help:"Log format: json or console"`
	LogLevel  string `default:"info" env:"LOG_LEVEL"  help:"Log level: debug, info, warn or error"`
}

// Config is the validated runtime configuration.
type Config struct {
	Port int
	// PublicBaseURL prefixes every short URL. It has no trailing slash.
	PublicBaseURL string

	StoreDriver string
	Couchbase   store.CouchbaseConfig
	DatabaseURL string
	Redis       store.RedisConfig
	CacheTTL    time.Duration

	Retry        store.RetryPolicy
	StoreTimeout time.Duration

	RateLimit       int64
	RateWindow      time.Duration
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	LogFormat string
	LogLevel  string
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// Load overlays the environment onto opts and validates the result for the
// server. A variable only applies to an option still at its default, so
// explicit flags win. Every problem is reported in one error.
func Load(opts *Options, lookup func(string) (string, bool)) (*Config, error) {
	return load(opts, lookup, false)
}

// LoadCacheWarmer is Load for the cache warmer, which only talks to Redis:
// REDIS_ADDR is required and the store settings are not checked.
func LoadCacheWarmer(opts *Options, lookup func(string) (string, bool)) (*Config, error) {
	return load(opts, lookup, true)
}

func load(opts *Options, lookup func(string) (string, bool), cacheOnly bool) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	merged := *opts

	var errs []error

	if err := overlayEnv(&merged, lookup); err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Port:        merged.Port,
		StoreDriver: strings.ToLower(strings.TrimSpace(merged.StoreDriver)),
		Couchbase: store.CouchbaseConfig{
			ConnectionString: merged.CouchbaseURL,
			Username:         merged.CouchbaseUsername,
			Password:         merged.CouchbasePassword,
			Bucket:           merged.CouchbaseBucket,
			Scope:            merged.CouchbaseScope,
			Collection:       merged.CouchbaseCollection,
		},
		DatabaseURL: merged.DatabaseURL,
		Redis: store.RedisConfig{
			Addr:     merged.RedisAddr,
			Password: merged.RedisPassword,
			DB:       merged.RedisDB,
		},
		RateLimit:      int64(merged.RateLimit),
		RateWindow:     time.Minute,
		AllowedOrigins: splitList(merged.AllowedOrigins),
		LogFormat:      merged.LogFormat,
		LogLevel:       merged.LogLevel,
	}

	requiredFor := cfg.StoreDriver
	if cacheOnly {
		requiredFor = DriverRedis
	}

	if missing := missingRequired(&merged, requiredFor); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}

	switch cfg.StoreDriver {
	case DriverCouchbase, DriverPostgres, DriverRedis, DriverMemory:
	default:
		if !cacheOnly {
			errs = append(errs, fmt.Errorf("unknown store driver %q", merged.StoreDriver))
		}
	}

	if merged.Port <= 0 || merged.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", merged.Port))
	}

	if merged.ConnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("store connect attempts must be at least 1, got %d", merged.ConnectAttempts))
	}

	if merged.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %d", merged.RateLimit))
	}

	backoff, err := parseDuration("STORE_CONNECT_BACKOFF", merged.ConnectBackoff)
	errs = appendErr(errs, err)

	cfg.StoreTimeout, err = parseDuration("STORE_TIMEOUT", merged.StoreTimeout)
	errs = appendErr(errs, err)

	cfg.CacheTTL, err = parseDuration("CACHE_TTL", merged.CacheTTL)
	errs = appendErr(errs, err)

	cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", merged.ShutdownTimeout)
	errs = appendErr(errs, err)

	cfg.Retry = store.RetryPolicy{
		Attempts:    uint(max(merged.ConnectAttempts, 1)),
		Backoff:     backoff,
		DialTimeout: store.DefaultRetryPolicy.DialTimeout,
	}

	cfg.PublicBaseURL, err = PublicBaseURL(merged.BaseURL, merged.Port)
	errs = appendErr(errs, err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return cfg, nil
}

// PublicBaseURL appends port to baseURL when baseURL names no port of its own.
func PublicBaseURL(baseURL string, port int) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid BASE_URL %q", baseURL)
	}

	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

func missingRequired(o *Options, driver string) []string {
	var required map[string]string

	switch driver {
	case DriverCouchbase:
		required = map[string]string{
			"COUCHBASE_URL":        o.CouchbaseURL,
			"COUCHBASE_USERNAME":   o.CouchbaseUsername,
			"COUCHBASE_PASSWORD":   o.CouchbasePassword,
			"COUCHBASE_BUCKET":     o.CouchbaseBucket,
			"COUCHBASE_SCOPE":      o.CouchbaseScope,
			"COUCHBASE_COLLECTION": o.CouchbaseCollection,
		}
	case DriverPostgres:
		required = map[string]string{"DATABASE_URL": o.DatabaseURL}
	case DriverRedis:
		required = map[string]string{"REDIS_ADDR": o.RedisAddr}
	}

	var missing []string

	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	slices.Sort(missing)

	return missing
}

// overlayEnv sets each option that is still at its default from the
// variable named by its env tag.
func overlayEnv(o *Options, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(o).Elem()
	t := v.Type()

	var errs []error

	for i := range t.NumField() {
		field := t.Field(i)

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		raw, ok := lookup(name)
		if !ok || raw == "" {
			continue
		}

		fv := v.Field(i)
		if fmt.Sprint(fv.Interface()) != field.Tag.Get("default") {
			continue
		}

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", name, raw))

				continue
			}

			fv.SetInt(int64(n))
		default:
			errs = append(errs, fmt.Errorf("%s: unsupported option type %s", name, fv.Kind()))
		}
	}

	return errors.Join(errs...)
}

func parseDuration(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}

	return d, nil
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}

	return errs
}
