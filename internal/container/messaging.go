package container

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/samber/do"
	"github.com/zx8086/url-shortener/internal/config"
	"github.com/zx8086/url-shortener/internal/events"
	"github.com/zx8086/url-shortener/internal/messaging"
	"github.com/zx8086/url-shortener/internal/store"
	"go.uber.org/zap"
)

// CacheWarmerGroup is the Redis stream consumer group of cache warmers.
const CacheWarmerGroup = "cache-warmer"

// PublisherGroupPackage provides the *messaging.PublisherGroup and the typed
// publish function for mapping.created. Events go to Redis streams when Redis
// is configured and are dropped in-process otherwise.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		cfg := do.MustInvoke[*config.Config](i)
		wlogger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		var (
			publisher message.Publisher
			err       error
		)

		if cfg.RedisEnabled() {
			rdb, invokeErr := do.Invoke[*Redis](i)
			if invokeErr != nil {
				return nil, invokeErr
			}

			publisher, err = messaging.NewRedisStreamPublisher(rdb.Client, wlogger)
			if err != nil {
				return nil, err
			}
		} else {
			publisher = messaging.NewInProcessPubSub(wlogger)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.MappingCreated], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.MappingCreated](group.Publisher(), events.TopicMappingCreated), nil
	})
}

// ConsumerGroupPackage provides the *messaging.ConsumerGroup running the
// cache warmer. It requires RedisPackage and CachePackage.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		rdb, err := do.Invoke[*Redis](i)
		if err != nil {
			return nil, err
		}

		cache, err := do.Invoke[*store.MappingCache](i)
		if err != nil {
			return nil, err
		}

		subscriber, err := messaging.NewRedisStreamSubscriber(rdb.Client, CacheWarmerGroup, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, err
		}

		warmer := events.NewCacheWarmer(cache, logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, events.TopicMappingCreated, warmer.Handle, logger))

		return group, nil
	})
}
