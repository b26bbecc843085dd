package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"space-trips/internal/logger"
	"space-trips/internal/models"

	"github.com/redis/go-redis/v9"
)

// KeyPrefixLaunch is the prefix for cached launch keys.
const KeyPrefixLaunch = "spacetrips:launch:"

// KeyLaunchIndex holds the ordered flight numbers of the whole collection.
const KeyLaunchIndex = "spacetrips:launches:index"

// LaunchKey returns the Redis key for a launch by flight number.
func LaunchKey(id int) string {
	return KeyPrefixLaunch + strconv.Itoa(id)
}

// RedisCache stores launches as JSON values with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, id int) (*models.Launch, error) {
	raw, err := c.client.Get(ctx, LaunchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached launch %d: %w", id, err)
	}

	var launch models.Launch
	if err := json.Unmarshal(raw, &launch); err != nil {
		return nil, fmt.Errorf("decode cached launch %d: %w", id, err)
	}
	return &launch, nil
}

func (c *RedisCache) Set(ctx context.Context, launches ...models.Launch) error {
	if len(launches) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, l := range launches {
		l.IsBooked = false
		raw, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode launch %d: %w", l.ID, err)
		}
		pipe.Set(ctx, LaunchKey(l.ID), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache launches: %w", err)
	}
	return nil
}

func (c *RedisCache) GetIndex(ctx context.Context) ([]int, error) {
	raw, err := c.client.Get(ctx, KeyLaunchIndex).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get launch index: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode launch index: %w", err)
	}
	return ids, nil
}

func (c *RedisCache) SetIndex(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode launch index: %w", err)
	}
	if err := c.client.Set(ctx, KeyLaunchIndex, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache launch index: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)

// RedisOptions configures ConnectRedis.
type RedisOptions struct {
	Addr          string
	Password      string
	DB            int
	Attempts      int           // ping attempts before giving up
	RetryInterval time.Duration // initial wait between attempts, doubled each time
}

// ConnectRedis creates a client and pings it until it answers or attempts run out.
func ConnectRedis(ctx context.Context, opts RedisOptions, log logger.Logger) (*redis.Client, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	wait := opts.RetryInterval
	var err error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			log.Info("connected to redis", logger.String("addr", opts.Addr), logger.Int("attempts", attempt))
			return client, nil
		}
		if attempt == opts.Attempts {
			break
		}
		log.Warn("redis connection failed, retrying",
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, opts.Attempts, err)
}
