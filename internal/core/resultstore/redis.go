package resultstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gosketch:result:"

// RedisStore keeps each result in a hash that expires with the result TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis. The connection string is either a
// redis:// URL or a plain host:port address.
func NewRedisStore(ctx context.Context, connectionString string) (*RedisStore, error) {
	options, err := redisOptions(connectionString)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisOptions(connectionString string) (*redis.Options, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("redis result store requires a connection string")
	}
	if strings.Contains(connectionString, "://") {
		options, err := redis.ParseURL(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis connection string: %w", err)
		}
		return options, nil
	}
	return &redis.Options{
		Addr:         connectionString,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Put(ctx context.Context, id string, entry *Entry, ttl time.Duration) error {
	key := s.key(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"mode", entry.Mode,
			"width", entry.Width,
			"height", entry.Height,
			"original", entry.Original,
			"sketch", entry.Sketch,
			"createdAt", entry.CreatedAt.UnixNano(),
		)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store result %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, error) {
	values, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load result %s: %w", id, err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	width, err := strconv.Atoi(values["width"])
	if err != nil {
		return nil, fmt.Errorf("corrupt width for result %s: %w", id, err)
	}
	height, err := strconv.Atoi(values["height"])
	if err != nil {
		return nil, fmt.Errorf("corrupt height for result %s: %w", id, err)
	}
	createdAt, err := strconv.ParseInt(values["createdAt"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp for result %s: %w", id, err)
	}

	return &Entry{
		Mode:      values["mode"],
		Width:     width,
		Height:    height,
		Original:  []byte(values["original"]),
		Sketch:    []byte(values["sketch"]),
		CreatedAt: time.Unix(0, createdAt),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete result %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
