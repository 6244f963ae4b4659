package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
)

// NewRedisStreamPublisher publishes onto Redis streams named after topics.
func NewRedisStreamPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, logger)
}

// NewRedisStreamSubscriber joins consumerGroup under a fresh consumer name, so
// several processes share the group's messages.
func NewRedisStreamSubscriber(
	client redis.UniversalClient, consumerGroup string, logger watermill.LoggerAdapter,
) (message.Subscriber, error) {
	name, err := ConsumerName(consumerGroup)
	if err != nil {
		return nil, err
	}

	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: consumerGroup,
		Consumer:      name,
	}, logger)
}

// ConsumerName returns a unique consumer name within consumerGroup.
func ConsumerName(consumerGroup string) (string, error) {
	gen, err := nanoid.Standard(12)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s", consumerGroup, gen()), nil
}

// NewInProcessPubSub is used when no Redis is configured. Events published
// with no subscriber are dropped.
func NewInProcessPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, logger)
}
