package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/zx8086/url-shortener/internal/shortener"
)

// RedisConfig addresses a Redis server used as the document store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// redisTransientPrefixes are server replies that clear up on their own.
var redisTransientPrefixes = []string{"LOADING", "BUSY", "TRYAGAIN", "CLUSTERDOWN", "MASTERDOWN", "READONLY"}

// redisFatalPrefixes mean the credentials or database are wrong.
var redisFatalPrefixes = []string{"NOAUTH", "WRONGPASS", "NOPERM", "ERR invalid password", "ERR DB index"}

// ClassifyRedis maps go-redis errors to classes.
var ClassifyRedis = TableClassifier(
	[]ErrorRule{
		{Err: redis.Nil, Class: ClassNotFound},
		{Err: redis.ErrClosed, Class: ClassFatal},
	},
	classifyRedisReply,
)

func classifyRedisReply(err error) Class {
	var reply redis.Error
	if !errors.As(err, &reply) {
		return ClassUnknown
	}

	msg := reply.Error()

	for _, prefix := range redisTransientPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return ClassTransient
		}
	}

	for _, prefix := range redisFatalPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return ClassFatal
		}
	}

	return ClassUnknown
}

// RedisBackend returns a Backend storing documents in Redis.
func RedisBackend(cfg RedisConfig) Backend {
	return Backend{
		Name:     "redis",
		Dial:     cfg.dial,
		Classify: ClassifyRedis,
	}
}

func (c RedisConfig) dial(ctx context.Context) (Session, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, err
	}

	return NewRedisSession(client), nil
}

// RedisSession stores each document as JSON under "mapping:{code}" and keeps a
// hash from the SHA-256 of each long URL to its first code.
type RedisSession struct {
	client   *redis.Client
	prefix   string
	indexKey string
}

// NewRedisSession wraps an existing client. Closing the session closes the client.
func NewRedisSession(client *redis.Client) *RedisSession {
	return &RedisSession{
		client:   client,
		prefix:   "mapping:",
		indexKey: "mapping:index",
	}
}

func (r *RedisSession) Lookup(ctx context.Context, longURL string) (Record, bool, error) {
	code, err := r.client.HGet(ctx, r.indexKey, shortener.HashURL(longURL)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}

	if err != nil {
		return Record{}, false, err
	}

	doc, err := r.Get(ctx, code)
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}

	if err != nil {
		return Record{}, false, err
	}

	// Guard against a hash collision pointing at another URL's document.
	if doc.LongURL != longURL {
		return Record{}, false, nil
	}

	return Record{Key: code, Document: doc}, true, nil
}

func (r *RedisSession) Get(ctx context.Context, key string) (Document, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return Document{}, err
	}

	var doc Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding document %s: %w", key, err)
	}

	return doc, nil
}

func (r *RedisSession) Upsert(ctx context.Context, key string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	// MULTI/EXEC so the document and its index entry land together.
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.prefix+key, data, 0)
		pipe.HSetNX(ctx, r.indexKey, shortener.HashURL(doc.LongURL), key)

		return nil
	})

	return err
}

func (r *RedisSession) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSession) Close() error {
	return r.client.Close()
}
