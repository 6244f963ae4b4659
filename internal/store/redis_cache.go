package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// MappingCache holds mappings in Redis, keyed by code, with a long URL index.
// Mappings never change, so an entry is valid until its ttl runs out.
type MappingCache struct {
	client  *redis.Client
	prefix  string
	hashKey string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewMappingCache creates a Redis mapping cache.
// A zero ttl keeps cached mappings until Redis evicts them.
func NewMappingCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *MappingCache {
	return &MappingCache{
		client:  client,
		prefix:  "cache:mapping:",
		hashKey: "cache:mapping:urls",
		ttl:     ttl,
		logger:  logger,
	}
}

// Put caches mapping. The long URL index keeps the first code cached for a URL.
func (c *MappingCache) Put(ctx context.Context, mapping *shortener.Mapping) {
	data, err := json.Marshal(newDocument(mapping))
	if err != nil {
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.prefix+string(mapping.Code), data, c.ttl)
	pipe.HSetNX(ctx, c.hashKey, shortener.HashURL(mapping.LongURL), string(mapping.Code))

	if _, err = pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to cache mapping", zap.String("code", string(mapping.Code)), zap.Error(err))
	}
}

// Get returns the cached mapping for code. Any Redis failure is a miss.
func (c *MappingCache) Get(ctx context.Context, code shortener.Code) (*shortener.Mapping, bool) {
	data, err := c.client.Get(ctx, c.prefix+string(code)).Bytes()
	if err != nil {
		return nil, false
	}

	var doc Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}

	return doc.mapping(string(code)), true
}

// Find returns the cached mapping whose long URL is exactly longURL.
func (c *MappingCache) Find(ctx context.Context, longURL string) (*shortener.Mapping, bool) {
	code, err := c.client.HGet(ctx, c.hashKey, shortener.HashURL(longURL)).Result()
	if err != nil {
		return nil, false
	}

	m, ok := c.Get(ctx, shortener.Code(code))
	if !ok || m.LongURL != longURL {
		return nil, false
	}

	return m, true
}

// CachedRepository puts a MappingCache in front of a Repository. The cache is
// best effort: any Redis failure falls through to the wrapped repository.
type CachedRepository struct {
	store   shortener.Repository
	cache   *MappingCache
	metrics *metrics.Metrics
}

// NewCachedRepository creates a cached repository decorator.
func NewCachedRepository(store shortener.Repository, cache *MappingCache, m *metrics.Metrics) *CachedRepository {
	return &CachedRepository{store: store, cache: cache, metrics: m}
}

// Upsert writes to the underlying store and then updates the cache.
func (r *CachedRepository) Upsert(ctx context.Context, mapping *shortener.Mapping) error {
	if err := r.store.Upsert(ctx, mapping); err != nil {
		return err
	}

	r.cache.Put(ctx, mapping)

	return nil
}

// GetByCode checks the cache first and populates it on a miss.
func (r *CachedRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Mapping, error) {
	if m, ok := r.cache.Get(ctx, code); ok {
		r.metrics.CacheLookup(true)

		return m, nil
	}

	r.metrics.CacheLookup(false)

	m, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache.Put(ctx, m)

	return m, nil
}

// FindByLongURL checks the long URL index first and populates it on a miss.
func (r *CachedRepository) FindByLongURL(ctx context.Context, longURL string) (*shortener.Mapping, error) {
	if m, ok := r.cache.Find(ctx, longURL); ok {
		r.metrics.CacheLookup(true)

		return m, nil
	}

	r.metrics.CacheLookup(false)

	m, err := r.store.FindByLongURL(ctx, longURL)
	if err != nil {
		return nil, err
	}

	r.cache.Put(ctx, m)

	return m, nil
}

// Compile-time check.
var _ shortener.Repository = (*CachedRepository)(nil)
