package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "atlas:session:"

type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	// KeyPrefix namespaces every key. Defaults to DefaultKeyPrefix.
	KeyPrefix string
	// TTL expires stored values; zero keeps them until deleted.
	TTL time.Duration
}

// Store shares the session between processes and machines through Redis.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.Storage = (*Store)(nil)

func NewStore(client *goredis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Open connects to Redis and verifies the connection with a PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return NewStore(client, opts.KeyPrefix, opts.TTL), nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("redis key %q: %w", s.key(key), domain.ErrStorageKeyNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", s.key(key), err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", s.key(key), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", s.key(key), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}
