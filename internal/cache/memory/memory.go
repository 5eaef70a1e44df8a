// Package memory implementa cache.Cache in-process sobre patrickmn/go-cache.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/cache"
)

type Mem struct{ c *gocache.Cache }

// New crea un cache en memoria con el TTL por defecto indicado.
func New(defaultTTL time.Duration) *Mem {
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Mem) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *Mem) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Mem) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Los fields de hash se guardan como keys compuestas sin expiración,
// igual que HSET en redis.
func (m *Mem) HashGet(_ context.Context, key, field string) ([]byte, error) {
	v, ok := m.c.Get(hashKey(key, field))
	if !ok {
		return nil, cache.ErrNotFound
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *Mem) HashSet(_ context.Context, key, field string, value []byte) error {
	m.c.Set(hashKey(key, field), value, gocache.NoExpiration)
	return nil
}

func (m *Mem) HashDelete(_ context.Context, key, field string) error {
	m.c.Delete(hashKey(key, field))
	return nil
}

func (m *Mem) Ping(context.Context) error { return nil }
func (m *Mem) Close() error               { return nil }

func hashKey(key, field string) string { return key + "\x00" + field }
