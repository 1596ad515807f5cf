package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/internal/runner/keeper"
	"wyckoff_keeper/pkg/logger"
)

const (
	DefaultPrefix = "keeper:status:"
	DefaultTTL    = 30 * time.Minute
)

type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// Cache публикует снапшот статуса бота в Redis после каждого тика.
type Cache struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewCache returns nil when no address is configured.
func NewCache(opt Options) *Cache {
	if opt.Addr == "" {
		return nil
	}
	return newCache(redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	}), opt.Prefix, opt.TTL)
}

func newCache(client redisClient, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(botID string) string {
	return c.prefix + botID
}

func (c *Cache) Put(ctx context.Context, st models.Status) error {
	data, err := sonic.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal status")
	}
	if err := c.client.Set(ctx, c.key(st.BotID), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", c.key(st.BotID))
	}
	return nil
}

// Get returns ok=false when the snapshot expired or was never written.
func (c *Cache) Get(ctx context.Context, botID string) (models.Status, bool, error) {
	var st models.Status
	data, err := c.client.Get(ctx, c.key(botID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, false, nil
	}
	if err != nil {
		return st, false, errors.Wrapf(err, "redis get %s", c.key(botID))
	}
	if err := sonic.Unmarshal(data, &st); err != nil {
		return st, false, errors.Wrap(err, "unmarshal status")
	}
	return st, true, nil
}

// OnTick is the keeper observer hook. Redis failures never reach the keeper.
func (c *Cache) OnTick(ctx context.Context, st models.Status, res keeper.TickResult) {
	if res.Terminal {
		st.Running = false
	}
	if err := c.Put(ctx, st); err != nil {
		logger.Warn("status cache: %v", err)
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}
