// Package redis implementa cache.Cache sobre redis/go-redis.
package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache"
)

type Cache struct {
	c      *rdb.Client
	prefix string
}

// Config de conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo para todas las keys (ej: "uaa:")
}

func New(cfg Config) *Cache {
	return &Cache{
		c:      rdb.NewClient(&rdb.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		prefix: cfg.Prefix,
	}
}

func (r *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if err == rdb.Nil {
		return nil, cache.ErrNotFound
	}
	return b, err
}

func (r *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *Cache) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *Cache) HashGet(ctx context.Context, key, field string) ([]byte, error) {
	b, err := r.c.HGet(ctx, r.prefix+key, field).Bytes()
	if err == rdb.Nil {
		return nil, cache.ErrNotFound
	}
	return b, err
}

func (r *Cache) HashSet(ctx context.Context, key, field string, value []byte) error {
	return r.c.HSet(ctx, r.prefix+key, field, value).Err()
}

func (r *Cache) HashDelete(ctx context.Context, key, field string) error {
	return r.c.HDel(ctx, r.prefix+key, field).Err()
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *Cache) Close() error                   { return r.c.Close() }
