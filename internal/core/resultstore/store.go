package resultstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrNotFound = errors.New("result not found or expired")

// Entry is one finished conversion, held only until the user downloads it.
type Entry struct {
	Mode      string
	Width     int
	Height    int
	Original  []byte
	Sketch    []byte
	CreatedAt time.Time
}

type Store interface {
	Put(ctx context.Context, id string, entry *Entry, ttl time.Duration) error
	// Get returns ErrNotFound when the id is unknown or has expired.
	Get(ctx context.Context, id string) (*Entry, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type Config struct {
	Type             string        `yaml:"type"`
	ConnectionString string        `yaml:"connectionString"`
	TTL              time.Duration `yaml:"ttl"`
	MaxEntries       int           `yaml:"maxEntries"`
}

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

func New(ctx context.Context, config Config) (store Store, err error) {
	switch config.Type {
	case "", TypeMemory:
		store = NewMemoryStore(config.MaxEntries)
	case TypeRedis:
		store, err = NewRedisStore(ctx, config.ConnectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported result store type: %s", config.Type)
	}

	slog.Info("result store initialized", "type", config.Type, "ttl", config.TTL)
	return store, nil
}
