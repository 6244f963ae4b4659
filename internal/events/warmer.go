package events

import (
	"context"
	"errors"

	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// ErrIncompleteEvent is returned for events missing a code or long URL.
var ErrIncompleteEvent = errors.New("incomplete mapping.created event")

// Cache receives mappings announced by other server instances.
type Cache interface {
	Put(ctx context.Context, mapping *shortener.Mapping)
}

// CacheWarmer puts every announced mapping into the read cache, so the first
// redirect through any instance is already a cache hit.
type CacheWarmer struct {
	cache  Cache
	logger *zap.Logger
}

// NewCacheWarmer creates a cache warmer.
func NewCacheWarmer(cache Cache, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{cache: cache, logger: logger}
}

// Handle is a messaging.Handler for TopicMappingCreated.
func (w *CacheWarmer) Handle(ctx context.Context, event *MappingCreated) error {
	if event.Code == "" || event.LongURL == "" {
		return ErrIncompleteEvent
	}

	w.cache.Put(ctx, event.Mapping())

	w.logger.Debug("cache warmed",
		zap.String("code", event.Code),
		zap.String("request_id", event.RequestID),
	)

	return nil
}
